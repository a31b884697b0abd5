package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// OrderItemPayload is one line of an order event.
type OrderItemPayload struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
}

// OrderCreatedEvent is emitted when checkout commits an order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID          `json:"order_id"`
	UserID         uuid.UUID          `json:"user_id"`
	TotalAmount    int64              `json:"total_amount"`
	CouponCode     *string            `json:"coupon_code,omitempty"`
	CouponDiscount int64              `json:"coupon_discount"`
	Items          []OrderItemPayload `json:"items"`
}

// OrderPaidEvent is emitted after a successful payment verification.
type OrderPaidEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
}

// PaymentFailedEvent is emitted when initiation is rejected or verification fails.
type PaymentFailedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Stage   string    `json:"stage"`
	Reason  string    `json:"reason,omitempty"`
}

// OrderRestockedEvent is emitted by refund and cancel, both of which return
// the order's items to inventory.
type OrderRestockedEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	FromStatus enums.OrderStatus  `json:"from_status"`
	Items      []OrderItemPayload `json:"items"`
}

// OrderStatusChangedEvent is emitted for fulfilment transitions.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}
