package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

// Line is one priced cart item.
type Line struct {
	Item                models.CartItem
	UnitPrice           int64
	DiscountPercent     decimal.Decimal
	DiscountedUnitPrice int64
	LineTotal           int64
}

// Quote is the live pricing of a cart.
//
// TotalPrice is informational and uses the snapshot prices stored on the items.
// Every other figure is computed from the current catalog price and the best
// active discount at quote time.
type Quote struct {
	Lines                []Line
	TotalPrice           int64
	TotalDiscountedPrice int64
	FinalPrice           int64
	Coupon               *models.Coupon
	// EvictCoupon is set when the cart references a coupon that is no longer valid.
	EvictCoupon bool
}

// CouponDiscount is the amount removed by the coupon.
func (q Quote) CouponDiscount() int64 {
	return q.TotalDiscountedPrice - q.FinalPrice
}

// Targets lists the discount targets of every line.
func (q Quote) Targets() []discounts.Target {
	items := make([]models.CartItem, 0, len(q.Lines))
	for _, line := range q.Lines {
		items = append(items, line.Item)
	}
	return itemTargets(items)
}

func itemTargets(items []models.CartItem) []discounts.Target {
	targets := make([]discounts.Target, 0, len(items))
	for _, item := range items {
		if item.Variant == nil {
			continue
		}
		targets = append(targets, discounts.TargetOf(*item.Variant))
	}
	return targets
}

// Engine prices carts against the current catalog.
type Engine struct {
	resolver  *discounts.Resolver
	validator *coupons.Validator
}

func NewEngine(resolver *discounts.Resolver, validator *coupons.Validator) (*Engine, error) {
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "discount resolver required")
	}
	if validator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon validator required")
	}
	return &Engine{resolver: resolver, validator: validator}, nil
}

// WithTx returns an engine whose catalog reads run inside tx.
func (e *Engine) WithTx(tx *gorm.DB) *Engine {
	if tx == nil {
		return e
	}
	return &Engine{resolver: e.resolver.WithTx(tx), validator: e.validator}
}

// Validator returns the coupon validator the engine prices with.
func (e *Engine) Validator() *coupons.Validator {
	return e.validator
}

// Quote prices a cart loaded with items, variants, products and coupon. It
// never writes; the caller persists coupon eviction.
func (e *Engine) Quote(ctx context.Context, cart *models.Cart) (Quote, error) {
	if cart == nil {
		return Quote{}, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCartNotFound, "cart not found")
	}

	targets := make([]discounts.Target, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Variant == nil {
			return Quote{}, pkgerrors.New(pkgerrors.CodeInternal, "cart item variant not loaded")
		}
		targets = append(targets, discounts.TargetOf(*item.Variant))
	}

	best, err := e.resolver.ResolveBestFor(ctx, targets)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{Lines: make([]Line, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := Line{
			Item:                item,
			UnitPrice:           item.Variant.Price,
			DiscountedUnitPrice: item.Variant.Price,
		}
		if pct, ok := best[item.VariantID]; ok {
			line.DiscountPercent = pct
			line.DiscountedUnitPrice = discounts.ApplyPercentage(item.Variant.Price, pct)
		}
		line.LineTotal = line.DiscountedUnitPrice * int64(item.Quantity)

		quote.TotalPrice += item.Price * int64(item.Quantity)
		quote.TotalDiscountedPrice += line.LineTotal
		quote.Lines = append(quote.Lines, line)
	}

	quote.FinalPrice = quote.TotalDiscountedPrice
	if cart.CouponID == nil {
		return quote, nil
	}
	if cart.Coupon == nil || !e.validator.IsValid(*cart.Coupon) {
		quote.EvictCoupon = true
		return quote, nil
	}

	quote.Coupon = cart.Coupon
	quote.FinalPrice = discounts.ApplyPercentage(quote.TotalDiscountedPrice, decimal.NewFromInt(int64(cart.Coupon.Percentage)))
	return quote, nil
}

// LineFor returns the priced line for a variant.
func (q Quote) LineFor(variantID uuid.UUID) (Line, bool) {
	for _, line := range q.Lines {
		if line.Item.VariantID == variantID {
			return line, true
		}
	}
	return Line{}, false
}
