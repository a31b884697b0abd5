package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount is an automatic catalog-side percentage reduction.
type Discount struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Description string             `gorm:"column:description;not null"`
	Percentage  decimal.Decimal    `gorm:"column:percentage;type:numeric(5,2);not null"`
	ValidFrom   time.Time          `gorm:"column:valid_from;not null"`
	ValidTo     time.Time          `gorm:"column:valid_to;not null"`
	Active      bool               `gorm:"column:active;not null"`
	Variants    []DiscountVariant  `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	Categories  []DiscountCategory `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (d *Discount) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

// DiscountVariant links a discount to a variant it applies to.
type DiscountVariant struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey;index"`
}

// DiscountCategory links a discount to a category it applies to.
type DiscountCategory struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey;index"`
}
