package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// Repository persists coupons and their applicability links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	List(ctx context.Context) ([]models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementUsage bumps usage_count while it is still below usage_limit and
	// reports whether a row was updated.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
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

// NormalizeCode is the canonical stored form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *repository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.withLinks(ctx).
		Where("code = ? AND active = ?", NormalizeCode(code), true).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.withLinks(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) List(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.withLinks(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", id).Delete(&models.CouponVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("coupon_id = ?", id).Delete(&models.CouponCategory{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND usage_count = 0", id).Delete(&models.Coupon{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND usage_count < usage_limit", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) withLinks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Variants").Preload("Categories")
}
