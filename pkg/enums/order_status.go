package enums

import "fmt"

// OrderStatus follows pending -> paid -> shipped -> delivered; cancelled and
// failed are terminal.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusFailed,
}

// refundableOrderStatuses are the states whose inventory effect can be reversed.
var refundableOrderStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusFailed
}

// IsRefundable reports whether a refund may be issued from this status.
func (s OrderStatus) IsRefundable() bool {
	for _, candidate := range refundableOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Next returns the forward fulfillment step, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPaid:
		return OrderStatusShipped, true
	case OrderStatusShipped:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// RefundableOrderStatuses returns a copy of the refundable set.
func RefundableOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(refundableOrderStatuses))
	copy(out, refundableOrderStatuses)
	return out
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
