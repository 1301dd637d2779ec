package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestSubmissionOutcomesAreLabeled(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQuotationMetrics(reg)

	m.IncSubmission("accepted")
	m.IncSubmission("accepted")
	m.IncSubmission("rejected")
	m.IncSubmission("")

	assert.Equal(t, 2.0, counterValue(t, m.submissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, counterValue(t, m.submissions.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, counterValue(t, m.submissions.WithLabelValues("unknown")))
}

func TestResolutionCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQuotationMetrics(reg)

	m.IncResolution("resolved")
	m.IncContest()
	m.ObserveResolutionDuration(150 * time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, m.resolutions.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, counterValue(t, m.contests))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "quotation_resolution_duration_seconds")
}

func TestNilReceiverAndUnregisteredMetricsAreSafe(t *testing.T) {
	var m *QuotationMetrics
	m.IncSubmission("accepted")
	m.IncContest()
	m.IncResolution("failed")
	m.ObserveResolutionDuration(time.Second)

	empty := NewQuotationMetrics(nil)
	empty.IncSubmission("accepted")
	empty.IncResolution("resolved")
}
