package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/shopcore-backend/pkg/db"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

// Repository persists carts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// GetOrCreate returns the user's cart, creating an empty active one if none exists.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// LoadForPricing reloads a cart with items, variants, products and coupon.
	LoadForPricing(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	// LockForCheckout takes a row lock on the cart for the rest of the transaction.
	LockForCheckout(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)
	// ClearItems deletes every item and reports how many rows went.
	ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error)
	// AttachCoupon sets the coupon only while none is attached and reports whether it did.
	AttachCoupon(ctx context.Context, cartID, couponID uuid.UUID) (bool, error)
	// DetachCoupon clears the coupon; when expected is set, only if it is still that coupon.
	DetachCoupon(ctx context.Context, cartID uuid.UUID, expected *uuid.UUID) error
	SetStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.findByUser(ctx, userID)
	if err == nil {
		if cart.Status.NeedsReopen() {
			if err := r.SetStatus(ctx, cart.ID, enums.CartStatusActive); err != nil {
				return nil, err
			}
			cart.Status = enums.CartStatusActive
		}
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Cart{UserID: userID, Status: enums.CartStatusActive}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			// lost a creation race; the winner's row is the cart
			return r.findByUser(ctx, userID)
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) findByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) LoadForPricing(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC").Order("id ASC")
		}).
		Preload("Items.Variant.Product").
		Preload("Coupon").
		Where("id = ?", cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) LockForCheckout(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Variant").Create(item).Error
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

func (r *repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) AttachCoupon(ctx context.Context, cartID, couponID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND coupon_id IS NULL", cartID).
		Update("coupon_id", couponID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DetachCoupon(ctx context.Context, cartID uuid.UUID, expected *uuid.UUID) error {
	query := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID)
	if expected != nil {
		query = query.Where("coupon_id = ?", *expected)
	}
	return query.Update("coupon_id", nil).Error
}

func (r *repository) SetStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}
