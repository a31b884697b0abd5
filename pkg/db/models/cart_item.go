package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem stores the quantity of one variant plus its undiscounted price at add time.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_variant"`
	VariantID uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_variant"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	Quantity  int             `gorm:"column:quantity;not null;check:chk_cart_items_quantity,quantity >= 1"`
	Price     int64           `gorm:"column:price;not null"`
	AddedAt   time.Time       `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
