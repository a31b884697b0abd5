package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// OrderDTO is the API representation of an order with its lines and payment.
type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Status            enums.OrderStatus `json:"status"`
	TransactionID     *string           `json:"transaction_id,omitempty"`
	ShippingAddressID *uuid.UUID        `json:"shipping_address_id,omitempty"`
	CouponCode        *string           `json:"coupon_code,omitempty"`
	SubtotalAmount    int64             `json:"subtotal_amount"`
	CouponDiscount    int64             `json:"coupon_discount"`
	TotalAmount       int64             `json:"total_amount"`
	Items             []OrderItemDTO    `json:"items"`
	Payment           *PaymentDTO       `json:"payment,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type OrderItemDTO struct {
	ID        uuid.UUID `json:"id"`
	VariantID uuid.UUID `json:"variant_id"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	Cost      int64     `json:"cost"`
}

type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	Amount        int64               `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transaction_id,omitempty"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListFilters narrows admin order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

// ToDTO maps a loaded order to its API shape.
func ToDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            order.Status,
		TransactionID:     order.TransactionID,
		ShippingAddressID: order.ShippingAddressID,
		CouponCode:        order.CouponCode,
		SubtotalAmount:    order.SubtotalAmount,
		CouponDiscount:    order.CouponDiscount,
		TotalAmount:       order.TotalAmount,
		Items:             make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:        item.ID,
			VariantID: item.VariantID,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Cost:      item.Cost(),
		})
	}
	if order.Payment != nil {
		dto.Payment = &PaymentDTO{
			ID:            order.Payment.ID,
			Amount:        order.Payment.Amount,
			Method:        order.Payment.Method,
			Status:        order.Payment.Status,
			TransactionID: order.Payment.TransactionID,
		}
	}
	return dto
}
