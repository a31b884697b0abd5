package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// Repository reads and writes the discount catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// ActiveCandidates returns active discounts linked to any of the given
	// variants or categories, with their links preloaded. Validity windows are
	// left to the caller.
	ActiveCandidates(ctx context.Context, variantIDs, categoryIDs []uuid.UUID) ([]models.Discount, error)
	Create(ctx context.Context, discount *models.Discount) error
	List(ctx context.Context) ([]models.Discount, error)
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

func (r *repository) ActiveCandidates(ctx context.Context, variantIDs, categoryIDs []uuid.UUID) ([]models.Discount, error) {
	if len(variantIDs) == 0 && len(categoryIDs) == 0 {
		return nil, nil
	}

	byVariant := r.db.Model(&models.DiscountVariant{}).Select("discount_id").Where("variant_id IN ?", nonEmpty(variantIDs))
	byCategory := r.db.Model(&models.DiscountCategory{}).Select("discount_id").Where("category_id IN ?", nonEmpty(categoryIDs))

	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Categories").
		Where("active = ?", true).
		Where(r.db.Where("id IN (?)", byVariant).Or("id IN (?)", byCategory)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *repository) List(ctx context.Context) ([]models.Discount, error) {
	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Categories").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// nonEmpty keeps "IN ?" valid SQL when one side of the applicability union is empty.
func nonEmpty(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}
