package enums

import "fmt"

// QuotationStatus tracks the lifecycle of a quotation request.
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusSent      QuotationStatus = "sent"
	QuotationStatusComparing QuotationStatus = "comparing"
	QuotationStatusContested QuotationStatus = "contested"
	QuotationStatusResolved  QuotationStatus = "resolved"
)

var validQuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusComparing,
	QuotationStatusContested,
	QuotationStatusResolved,
}

// String implements fmt.Stringer.
func (q QuotationStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuotationStatus.
func (q QuotationStatus) IsValid() bool {
	for _, candidate := range validQuotationStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (q QuotationStatus) IsTerminal() bool {
	return q == QuotationStatusResolved
}

// ParseQuotationStatus converts raw input into a QuotationStatus.
func ParseQuotationStatus(value string) (QuotationStatus, error) {
	for _, candidate := range validQuotationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation status %q", value)
}
