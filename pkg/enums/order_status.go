package enums

import "fmt"

// OrderStatus tracks the lifecycle of a purchase order. Resolution only ever
// creates draft orders; the later transitions belong to fulfillment tooling.
type OrderStatus string

const (
	OrderStatusDraft    OrderStatus = "draft"
	OrderStatusSent     OrderStatus = "sent"
	OrderStatusReceived OrderStatus = "received"
	OrderStatusCanceled OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusSent,
	OrderStatusReceived,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
