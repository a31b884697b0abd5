package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	dbpkg "github.com/angelmondragon/shopcore-backend/pkg/db"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type evictionRecorder interface {
	IncCouponEviction()
}

// Service exposes cart operations for the authenticated user.
//
// View is not a pure read: an attached coupon that is no longer valid is
// detached while pricing.
type Service interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	View(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartItemDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*CartView, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo      Repository
	Inventory inventory.Ledger
	Coupons   coupons.Repository
	Engine    *Engine
	Tx        txRunner
	Metrics   evictionRecorder
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	inventory inventory.Ledger
	coupons   coupons.Repository
	engine    *Engine
	tx        txRunner
	metrics   evictionRecorder
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory ledger required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing engine required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:      params.Repo,
		inventory: params.Inventory,
		coupons:   params.Coupons,
		engine:    params.Engine,
		tx:        params.Tx,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

func (s *service) view(ctx context.Context, cartID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.LoadForPricing(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCartNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	quote, err := s.engine.Quote(ctx, cart)
	if err != nil {
		return nil, err
	}
	if quote.EvictCoupon {
		if err := s.evictCoupon(ctx, cart); err != nil {
			return nil, err
		}
	}
	return newCartView(cart, quote), nil
}

// evictCoupon detaches the coupon only if it is still the one that was priced,
// so a concurrent re-apply is never undone.
func (s *service) evictCoupon(ctx context.Context, cart *models.Cart) error {
	if err := s.repo.DetachCoupon(ctx, cart.ID, cart.CouponID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach invalid coupon")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"cart_id":   cart.ID.String(),
		"coupon_id": cart.CouponID.String(),
	})
	s.logg.Info(logCtx, "invalid coupon detached from cart")
	if s.metrics != nil {
		s.metrics.IncCouponEviction()
	}
	cart.CouponID = nil
	cart.Coupon = nil
	return nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartItemDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "quantity must be at least 1")
	}
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var itemID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		variant, err := s.loadPurchasableVariant(ctx, repo, input.VariantID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByVariant(ctx, cart.ID, variant.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		total := input.Quantity
		if existing != nil {
			total += existing.Quantity
		}
		if err := s.ensureStock(ctx, tx, variant.ID, total); err != nil {
			return err
		}

		if existing != nil {
			itemID = existing.ID
			if err := repo.UpdateItemQuantity(ctx, existing.ID, total); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			return nil
		}

		item := models.CartItem{
			CartID:    cart.ID,
			VariantID: variant.ID,
			Quantity:  total,
			Price:     variant.Price,
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_cart_items_cart_variant") || dbpkg.IsUniqueViolation(err, "cart_items.cart_id") {
				return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonConcurrentUpdate, "cart item was added concurrently; retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.view(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range view.Items {
		if item.ID == itemID {
			return &item, nil
		}
	}
	return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCartItemNotFound, "cart item not found")
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "quantity must be at least 1")
	}
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCartItemNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if _, err := s.loadPurchasableVariant(ctx, repo, item.VariantID); err != nil {
			return err
		}
		if err := s.ensureStock(ctx, tx, item.VariantID, quantity); err != nil {
			return err
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if !deleted {
		return pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCartItemNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		if err := repo.DetachCoupon(ctx, cart.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach coupon")
		}
		return nil
	})
}

// ApplyCoupon attaches a coupon by code. Checks run in a fixed order: the code
// must name an active coupon, the cart must not already hold any coupon,
// the coupon must be valid now and it must apply to at least one item.
func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*CartView, error) {
	normalized := coupons.NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonCouponNotFound, "coupon code is required")
	}
	base, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.LoadForPricing(ctx, base.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	coupon, err := s.coupons.FindActiveByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonCouponNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	// a stale coupon still blocks; View evicts it or the shopper removes it
	if cart.CouponID != nil {
		return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponAlreadyApplied, "a coupon is already applied to this cart")
	}

	if err := s.engine.Validator().CheckApply(*coupon, itemTargets(cart.Items)); err != nil {
		return nil, err
	}

	attached, err := s.repo.AttachCoupon(ctx, cart.ID, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach coupon")
	}
	if !attached {
		return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponAlreadyApplied, "a coupon is already applied to this cart")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_id":     cart.ID.String(),
		"coupon_code": coupon.Code,
	}), "coupon applied to cart")
	return s.view(ctx, cart.ID)
}

func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DetachCoupon(ctx, cart.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach coupon")
	}
	return s.view(ctx, cart.ID)
}

func (s *service) loadPurchasableVariant(ctx context.Context, repo Repository, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := repo.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonVariantNotFound, "product variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	if variant.Product == nil || !variant.Product.Available {
		return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonProductUnavailable, "product is not available")
	}
	return variant, nil
}

func (s *service) ensureStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, quantity int) error {
	available, err := s.inventory.WithTx(tx).Available(ctx, variantID)
	if err != nil {
		return err
	}
	if quantity > available {
		return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  quantity,
				"available":  available,
			})
	}
	return nil
}
