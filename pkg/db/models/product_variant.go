package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attributes is the free-form variant attribute map (size, color, ...).
type Attributes map[string]any

// ProductVariant is a purchasable SKU. Price is in the smallest currency unit.
type ProductVariant struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Product    *Product   `gorm:"foreignKey:ProductID"`
	SKU        string     `gorm:"column:sku;not null;uniqueIndex:ux_product_variants_sku"`
	Title      string     `gorm:"column:title;not null"`
	Price      int64      `gorm:"column:price;not null;check:chk_product_variants_price,price >= 0"`
	Attributes Attributes `gorm:"column:attributes;type:jsonb;serializer:json"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// CategoryID returns the parent product's category when the product is loaded.
func (v *ProductVariant) CategoryID() (uuid.UUID, bool) {
	if v == nil || v.Product == nil {
		return uuid.Nil, false
	}
	return v.Product.CategoryID, true
}
