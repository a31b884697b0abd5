package discounts

import (
	"context"
	"strings"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

// Service manages the discount catalog for admins.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*DiscountDTO, error)
	List(ctx context.Context) ([]DiscountDTO, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "discount repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DiscountDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	discount := models.Discount{
		Description: strings.TrimSpace(input.Description),
		Percentage:  input.Percentage,
		ValidFrom:   input.ValidFrom.UTC(),
		ValidTo:     input.ValidTo.UTC(),
		Active:      input.Active,
	}
	for _, id := range input.VariantIDs {
		discount.Variants = append(discount.Variants, models.DiscountVariant{VariantID: id})
	}
	for _, id := range input.CategoryIDs {
		discount.Categories = append(discount.Categories, models.DiscountCategory{CategoryID: id})
	}

	if err := s.repo.Create(ctx, &discount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	dto := toDTO(discount)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]DiscountDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	out := make([]DiscountDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "description is required"
	}
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(hundred) {
		details["percentage"] = "percentage must be between 0 and 100"
	}
	if !input.Percentage.Equal(input.Percentage.Round(2)) {
		details["percentage"] = "percentage allows at most two decimal places"
	}
	if input.ValidFrom.IsZero() || input.ValidTo.IsZero() || input.ValidTo.Before(input.ValidFrom) {
		details["valid_to"] = "valid_to must not be before valid_from"
	}
	if len(input.VariantIDs) == 0 && len(input.CategoryIDs) == 0 {
		details["applicable"] = "at least one variant or category is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount").WithDetails(details)
	}
	return nil
}
