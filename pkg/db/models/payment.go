package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// Payment tracks the gateway attempt for an order.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_payments_order"`
	Amount        int64               `gorm:"column:amount;not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:varchar(32);not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:varchar(20);not null"`
	TransactionID *string             `gorm:"column:transaction_id;index"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = enums.PaymentStatusPending
	}
	return nil
}
