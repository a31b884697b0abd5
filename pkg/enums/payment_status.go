package enums

import "fmt"

// PaymentStatus tracks a payment attempt against the gateway. A payment
// leaves pending exactly once and never changes again.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusSuccessful, PaymentStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether p may move to next.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return p == PaymentStatusPending && (next == PaymentStatusSuccessful || next == PaymentStatusFailed)
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	if status := PaymentStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
