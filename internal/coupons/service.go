package coupons

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/shopcore-backend/pkg/db"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

const maxCouponPercentage = 80

// Service is the admin surface for coupons.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CouponDTO, error) {
	input.Code = NormalizeCode(input.Code)
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	coupon := models.Coupon{
		Code:       input.Code,
		Percentage: input.Percentage,
		ValidFrom:  input.ValidFrom.UTC(),
		ValidTo:    input.ValidTo.UTC(),
		Active:     input.Active,
		UsageLimit: input.UsageLimit,
	}
	for _, id := range input.VariantIDs {
		coupon.Variants = append(coupon.Variants, models.CouponVariant{VariantID: id})
	}
	for _, id := range input.CategoryIDs {
		coupon.Categories = append(coupon.Categories, models.CouponCategory{CategoryID: id})
	}

	if err := s.repo.Create(ctx, &coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_coupons_code") || dbpkg.IsUniqueViolation(err, "coupons.code") {
			return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponCodeTaken, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}

	s.logg.Info(s.logg.WithField(ctx, "coupon_code", coupon.Code), "coupon created")
	dto := ToDTO(coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out, nil
}

// Delete removes a coupon that has never been redeemed.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCouponNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if coupon.UsageCount > 0 {
		return pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonCouponInUse, "coupon has been used and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// redeemed between the read and the delete
			return pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonCouponInUse, "coupon has been used and cannot be deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	s.logg.Info(s.logg.WithField(ctx, "coupon_id", id.String()), "coupon deleted")
	return nil
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	if input.Code == "" {
		details["code"] = "code is required"
	}
	if input.Percentage < 0 || input.Percentage > maxCouponPercentage {
		details["percentage"] = "percentage must be between 0 and 80"
	}
	if input.ValidFrom.IsZero() || input.ValidTo.IsZero() || input.ValidTo.Before(input.ValidFrom) {
		details["valid_to"] = "valid_to must not be before valid_from"
	}
	if input.UsageLimit < 1 {
		details["usage_limit"] = "usage_limit must be at least 1"
	}
	if len(input.VariantIDs) == 0 && len(input.CategoryIDs) == 0 {
		details["applicable"] = "at least one variant or category is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon").WithDetails(details)
	}
	return nil
}
