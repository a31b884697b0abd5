package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// CartView is the priced representation returned to clients.
type CartView struct {
	ID                   uuid.UUID        `json:"id"`
	Status               enums.CartStatus `json:"status"`
	Items                []CartItemDTO    `json:"items"`
	TotalPrice           int64            `json:"total_price"`
	TotalDiscountedPrice int64            `json:"total_discounted_price"`
	FinalPrice           int64            `json:"final_price"`
	Coupon               *CouponSummary   `json:"coupon"`
}

// CartItemDTO is one priced cart line.
type CartItemDTO struct {
	ID              uuid.UUID         `json:"id"`
	VariantID       uuid.UUID         `json:"variant_id"`
	ProductID       uuid.UUID         `json:"product_id"`
	Title           string            `json:"title"`
	Attributes      models.Attributes `json:"attributes,omitempty"`
	Quantity        int               `json:"quantity"`
	Price           int64             `json:"price"`
	UnitPrice       int64             `json:"unit_price"`
	DiscountPercent string            `json:"discount_percent"`
	DiscountedPrice int64             `json:"discounted_price"`
	LineTotal       int64             `json:"line_total"`
	AddedAt         time.Time         `json:"added_at"`
}

// CouponSummary describes the coupon currently attached to a cart.
type CouponSummary struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Percentage int       `json:"percentage"`
}

// AddItemInput is the payload for adding a variant to the cart.
type AddItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

func newCartView(cart *models.Cart, quote Quote) *CartView {
	view := &CartView{
		ID:                   cart.ID,
		Status:               cart.Status,
		Items:                make([]CartItemDTO, 0, len(quote.Lines)),
		TotalPrice:           quote.TotalPrice,
		TotalDiscountedPrice: quote.TotalDiscountedPrice,
		FinalPrice:           quote.FinalPrice,
	}
	for _, line := range quote.Lines {
		view.Items = append(view.Items, newCartItemDTO(line))
	}
	if quote.Coupon != nil {
		view.Coupon = &CouponSummary{
			ID:         quote.Coupon.ID,
			Code:       quote.Coupon.Code,
			Percentage: quote.Coupon.Percentage,
		}
	}
	return view
}

func newCartItemDTO(line Line) CartItemDTO {
	item := line.Item
	dto := CartItemDTO{
		ID:              item.ID,
		VariantID:       item.VariantID,
		Quantity:        item.Quantity,
		Price:           item.Price,
		UnitPrice:       line.UnitPrice,
		DiscountPercent: line.DiscountPercent.StringFixed(2),
		DiscountedPrice: line.DiscountedUnitPrice,
		LineTotal:       line.LineTotal,
		AddedAt:         item.AddedAt,
	}
	if item.Variant != nil {
		dto.ProductID = item.Variant.ProductID
		dto.Title = item.Variant.Title
		dto.Attributes = item.Variant.Attributes
	}
	return dto
}
