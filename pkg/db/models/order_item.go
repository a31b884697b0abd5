package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is a line of an order with the unit price charged at checkout.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Price     int64     `gorm:"column:price;not null"`
	Quantity  int       `gorm:"column:quantity;not null;check:chk_order_items_quantity,quantity >= 1"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Cost is price times quantity.
func (i OrderItem) Cost() int64 {
	return i.Price * int64(i.Quantity)
}
