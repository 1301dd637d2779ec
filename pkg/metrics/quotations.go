package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuotationMetrics records the negotiation surface counters.
type QuotationMetrics struct {
	submissions        *prometheus.CounterVec
	contests           prometheus.Counter
	resolutions        *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
}

// NewQuotationMetrics registers the quotation metrics on the provided registerer.
func NewQuotationMetrics(reg prometheus.Registerer) *QuotationMetrics {
	if reg == nil {
		return &QuotationMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotation_price_submissions_total",
		Help: "Supplier price submissions handled by the public gateway.",
	}, []string{"outcome"})
	contests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotation_contests_total",
		Help: "Buyer-initiated supplier contestations.",
	})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotation_resolutions_total",
		Help: "Quotation resolution passes by outcome.",
	}, []string{"outcome"})
	resolutionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quotation_resolution_duration_seconds",
		Help:    "Duration of quotation resolution passes in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(submissions, contests, resolutions, resolutionDuration)
	return &QuotationMetrics{
		submissions:        submissions,
		contests:           contests,
		resolutions:        resolutions,
		resolutionDuration: resolutionDuration,
	}
}

// IncSubmission counts one gateway submission with the given outcome.
func (m *QuotationMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncContest counts one supplier contestation.
func (m *QuotationMetrics) IncContest() {
	if m == nil || m.contests == nil {
		return
	}
	m.contests.Inc()
}

// IncResolution counts one resolution pass with the given outcome.
func (m *QuotationMetrics) IncResolution(outcome string) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveResolutionDuration records how long a resolution pass took.
func (m *QuotationMetrics) ObserveResolutionDuration(d time.Duration) {
	if m == nil || m.resolutionDuration == nil {
		return
	}
	m.resolutionDuration.Observe(d.Seconds())
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
