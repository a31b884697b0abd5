package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// Order is the immutable result of a checkout. Amounts are snapshots taken at
// checkout time.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;index"`
	TransactionID     *string           `gorm:"column:transaction_id;uniqueIndex:ux_orders_transaction_id"`
	ShippingAddressID *uuid.UUID        `gorm:"column:shipping_address_id;type:uuid"`
	CouponID          *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CouponCode        *string           `gorm:"column:coupon_code"`
	SubtotalAmount    int64             `gorm:"column:subtotal_amount;not null"`
	CouponDiscount    int64             `gorm:"column:coupon_discount;not null"`
	TotalAmount       int64             `gorm:"column:total_amount;not null;check:chk_orders_total_amount,total_amount >= 0"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment           *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}
