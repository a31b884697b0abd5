package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

// Validator answers validity and applicability questions about coupons.
type Validator struct {
	now func() time.Time
}

// NewValidator builds a validator; now defaults to time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Now exposes the validator clock so callers evaluate everything at one instant.
func (v *Validator) Now() time.Time {
	return v.now()
}

// IsValid reports active && valid_from <= now <= valid_to && usage_count < usage_limit.
func IsValid(c models.Coupon, now time.Time) bool {
	return c.Active &&
		!now.Before(c.ValidFrom) &&
		!now.After(c.ValidTo) &&
		c.UsageCount < c.UsageLimit
}

// IsApplicable reports whether at least one target's variant or category is
// linked to the coupon.
func IsApplicable(c models.Coupon, targets []discounts.Target) bool {
	variants := make(map[uuid.UUID]struct{}, len(c.Variants))
	for _, link := range c.Variants {
		variants[link.VariantID] = struct{}{}
	}
	categories := make(map[uuid.UUID]struct{}, len(c.Categories))
	for _, link := range c.Categories {
		categories[link.CategoryID] = struct{}{}
	}

	for _, target := range targets {
		if _, ok := variants[target.VariantID]; ok {
			return true
		}
		if target.CategoryID == uuid.Nil {
			continue
		}
		if _, ok := categories[target.CategoryID]; ok {
			return true
		}
	}
	return false
}

// IsValid evaluates the coupon against the validator clock.
func (v *Validator) IsValid(c models.Coupon) bool {
	return IsValid(c, v.now())
}

// CheckApply runs the apply-time checks that follow the already-applied rule:
// validity first, then applicability to the cart contents.
func (v *Validator) CheckApply(c models.Coupon, targets []discounts.Target) error {
	if !v.IsValid(c) {
		return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponExpiredOrInactive, "coupon is expired or inactive")
	}
	if !IsApplicable(c, targets) {
		return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponNotApplicable, "coupon does not apply to any cart item")
	}
	return nil
}
