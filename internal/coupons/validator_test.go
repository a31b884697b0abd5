package coupons

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func validCoupon() models.Coupon {
	return models.Coupon{
		Code:       "SPRING",
		Percentage: 10,
		ValidFrom:  fixedNow.Add(-time.Hour),
		ValidTo:    fixedNow.Add(time.Hour),
		Active:     true,
		UsageLimit: 5,
		UsageCount: 0,
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.Coupon)
		want   bool
	}{
		{name: "valid", mutate: func(*models.Coupon) {}, want: true},
		{name: "inactive", mutate: func(c *models.Coupon) { c.Active = false }},
		{name: "expired", mutate: func(c *models.Coupon) { c.ValidTo = fixedNow.Add(-time.Minute) }},
		{name: "not started", mutate: func(c *models.Coupon) { c.ValidFrom = fixedNow.Add(time.Minute) }},
		{name: "usage exhausted", mutate: func(c *models.Coupon) { c.UsageCount = 5 }},
		{name: "last use available", mutate: func(c *models.Coupon) { c.UsageCount = 4 }, want: true},
		{name: "window edge", mutate: func(c *models.Coupon) { c.ValidTo = fixedNow }, want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validCoupon()
			tt.mutate(&c)
			if got := IsValid(c, fixedNow); got != tt.want {
				t.Fatalf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsApplicableUnionSemantics(t *testing.T) {
	t.Parallel()

	variantID := uuid.New()
	categoryID := uuid.New()

	byVariant := validCoupon()
	byVariant.Variants = []models.CouponVariant{{VariantID: variantID}}
	byCategory := validCoupon()
	byCategory.Categories = []models.CouponCategory{{CategoryID: categoryID}}

	inCart := []discounts.Target{
		{VariantID: uuid.New(), CategoryID: uuid.New()},
		{VariantID: variantID, CategoryID: categoryID},
	}
	if !IsApplicable(byVariant, inCart) {
		t.Fatalf("expected variant link to match")
	}
	if !IsApplicable(byCategory, inCart) {
		t.Fatalf("expected category link to match")
	}

	unrelated := []discounts.Target{{VariantID: uuid.New(), CategoryID: uuid.New()}}
	if IsApplicable(byVariant, unrelated) || IsApplicable(byCategory, unrelated) {
		t.Fatalf("expected no match for unrelated cart")
	}
	if IsApplicable(byVariant, nil) {
		t.Fatalf("empty cart never matches")
	}
}

func TestCheckApplyReasons(t *testing.T) {
	t.Parallel()

	v := NewValidator(func() time.Time { return fixedNow })
	variantID := uuid.New()
	targets := []discounts.Target{{VariantID: variantID}}

	expired := validCoupon()
	expired.ValidTo = fixedNow.Add(-time.Second)
	expired.Variants = []models.CouponVariant{{VariantID: variantID}}
	if got := pkgerrors.ReasonOf(v.CheckApply(expired, targets)); got != pkgerrors.ReasonCouponExpiredOrInactive {
		t.Fatalf("expected expired reason, got %s", got)
	}

	notApplicable := validCoupon()
	if got := pkgerrors.ReasonOf(v.CheckApply(notApplicable, targets)); got != pkgerrors.ReasonCouponNotApplicable {
		t.Fatalf("expected not applicable reason, got %s", got)
	}

	ok := validCoupon()
	ok.Variants = []models.CouponVariant{{VariantID: variantID}}
	if err := v.CheckApply(ok, targets); err != nil {
		t.Fatalf("expected coupon to apply, got %v", err)
	}
}
