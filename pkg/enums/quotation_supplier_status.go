package enums

import "fmt"

// QuotationSupplierStatus tracks an invited supplier's response state.
type QuotationSupplierStatus string

const (
	QuotationSupplierStatusPending   QuotationSupplierStatus = "pending"
	QuotationSupplierStatusResponded QuotationSupplierStatus = "responded"
	QuotationSupplierStatusContested QuotationSupplierStatus = "contested"
)

var validQuotationSupplierStatuses = []QuotationSupplierStatus{
	QuotationSupplierStatusPending,
	QuotationSupplierStatusResponded,
	QuotationSupplierStatusContested,
}

// String implements fmt.Stringer.
func (q QuotationSupplierStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuotationSupplierStatus.
func (q QuotationSupplierStatus) IsValid() bool {
	for _, candidate := range validQuotationSupplierStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuotationSupplierStatus converts raw input into a QuotationSupplierStatus.
func ParseQuotationSupplierStatus(value string) (QuotationSupplierStatus, error) {
	for _, candidate := range validQuotationSupplierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation supplier status %q", value)
}
