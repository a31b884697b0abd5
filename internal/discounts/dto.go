package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// CreateInput is the admin payload for a new discount.
type CreateInput struct {
	Description string
	Percentage  decimal.Decimal
	ValidFrom   time.Time
	ValidTo     time.Time
	Active      bool
	VariantIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// DiscountDTO is the API view of a discount.
type DiscountDTO struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Percentage  decimal.Decimal `json:"percentage"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidTo     time.Time       `json:"valid_to"`
	Active      bool            `json:"active"`
	VariantIDs  []uuid.UUID     `json:"variant_ids"`
	CategoryIDs []uuid.UUID     `json:"category_ids"`
}

func toDTO(d models.Discount) DiscountDTO {
	dto := DiscountDTO{
		ID:          d.ID,
		Description: d.Description,
		Percentage:  d.Percentage,
		ValidFrom:   d.ValidFrom,
		ValidTo:     d.ValidTo,
		Active:      d.Active,
		VariantIDs:  make([]uuid.UUID, 0, len(d.Variants)),
		CategoryIDs: make([]uuid.UUID, 0, len(d.Categories)),
	}
	for _, link := range d.Variants {
		dto.VariantIDs = append(dto.VariantIDs, link.VariantID)
	}
	for _, link := range d.Categories {
		dto.CategoryIDs = append(dto.CategoryIDs, link.CategoryID)
	}
	return dto
}
