package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// Cart is the single shopping cart owned by a user.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_carts_user"`
	Status    enums.CartStatus `gorm:"column:status;type:varchar(20);not null"`
	CouponID  *uuid.UUID       `gorm:"column:coupon_id;type:uuid"`
	Coupon    *Coupon          `gorm:"foreignKey:CouponID;constraint:OnDelete:SET NULL"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = enums.CartStatusActive
	}
	return nil
}
