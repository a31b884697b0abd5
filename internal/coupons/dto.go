package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code        string
	Percentage  int
	ValidFrom   time.Time
	ValidTo     time.Time
	Active      bool
	UsageLimit  int
	VariantIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// CouponDTO is the API view of a coupon.
type CouponDTO struct {
	ID          uuid.UUID   `json:"id"`
	Code        string      `json:"code"`
	Percentage  int         `json:"percentage"`
	ValidFrom   time.Time   `json:"valid_from"`
	ValidTo     time.Time   `json:"valid_to"`
	Active      bool        `json:"active"`
	UsageLimit  int         `json:"usage_limit"`
	UsageCount  int         `json:"usage_count"`
	VariantIDs  []uuid.UUID `json:"variant_ids"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// ToDTO maps a coupon row to its API view.
func ToDTO(c models.Coupon) CouponDTO {
	dto := CouponDTO{
		ID:          c.ID,
		Code:        c.Code,
		Percentage:  c.Percentage,
		ValidFrom:   c.ValidFrom,
		ValidTo:     c.ValidTo,
		Active:      c.Active,
		UsageLimit:  c.UsageLimit,
		UsageCount:  c.UsageCount,
		VariantIDs:  make([]uuid.UUID, 0, len(c.Variants)),
		CategoryIDs: make([]uuid.UUID, 0, len(c.Categories)),
	}
	for _, link := range c.Variants {
		dto.VariantIDs = append(dto.VariantIDs, link.VariantID)
	}
	for _, link := range c.Categories {
		dto.CategoryIDs = append(dto.CategoryIDs, link.CategoryID)
	}
	return dto
}
