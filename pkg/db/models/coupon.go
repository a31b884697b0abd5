package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon is a user-entered, usage-limited, cart-wide percentage reduction.
type Coupon struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code       string           `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	Percentage int              `gorm:"column:percentage;not null;check:chk_coupons_percentage,percentage >= 0 AND percentage <= 80"`
	ValidFrom  time.Time        `gorm:"column:valid_from;not null"`
	ValidTo    time.Time        `gorm:"column:valid_to;not null"`
	Active     bool             `gorm:"column:active;not null"`
	UsageLimit int              `gorm:"column:usage_limit;not null"`
	UsageCount int              `gorm:"column:usage_count;not null"`
	Variants   []CouponVariant  `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE"`
	Categories []CouponCategory `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CouponVariant links a coupon to a variant it applies to.
type CouponVariant struct {
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;primaryKey"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
}

// CouponCategory links a coupon to a category it applies to.
type CouponCategory struct {
	CouponID   uuid.UUID `gorm:"column:coupon_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}
