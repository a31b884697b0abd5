package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

// Target identifies a variant together with its parent category.
type Target struct {
	VariantID  uuid.UUID
	CategoryID uuid.UUID
}

// TargetOf builds a Target from a variant with its product loaded.
func TargetOf(variant models.ProductVariant) Target {
	categoryID, _ := variant.CategoryID()
	return Target{VariantID: variant.ID, CategoryID: categoryID}
}

// Resolver picks the best automatic discount for catalog variants.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver builds a resolver; now defaults to time.Now.
func NewResolver(repo Repository, now func() time.Time) (*Resolver, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "discount repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{repo: repo, now: now}, nil
}

// WithTx returns a resolver that reads the catalog through tx.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	if tx == nil {
		return r
	}
	return &Resolver{repo: r.repo.WithTx(tx), now: r.now}
}

// ResolveBest returns the highest active, in-window percentage for target.
func (r *Resolver) ResolveBest(ctx context.Context, target Target) (decimal.Decimal, bool, error) {
	best, err := r.ResolveBestFor(ctx, []Target{target})
	if err != nil {
		return decimal.Zero, false, err
	}
	pct, ok := best[target.VariantID]
	return pct, ok, nil
}

// ResolveBestFor resolves many targets with a single catalog query. Variants
// with no applicable discount are absent from the result.
func (r *Resolver) ResolveBestFor(ctx context.Context, targets []Target) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal, len(targets))
	if len(targets) == 0 {
		return result, nil
	}

	variantIDs := make([]uuid.UUID, 0, len(targets))
	categoryIDs := make([]uuid.UUID, 0, len(targets))
	for _, target := range targets {
		variantIDs = append(variantIDs, target.VariantID)
		if target.CategoryID != uuid.Nil {
			categoryIDs = append(categoryIDs, target.CategoryID)
		}
	}

	candidates, err := r.repo.ActiveCandidates(ctx, variantIDs, categoryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}

	now := r.now()
	for _, target := range targets {
		if pct, ok := SelectBest(candidates, target, now); ok {
			result[target.VariantID] = pct
		}
	}
	return result, nil
}

// SelectBest filters candidates to those active, in window and applicable to
// target, and returns the maximum percentage.
func SelectBest(candidates []models.Discount, target Target, now time.Time) (decimal.Decimal, bool) {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, candidate := range candidates {
		if !IsActiveAt(candidate, now) || !AppliesTo(candidate, target) {
			continue
		}
		if !found || candidate.Percentage.GreaterThan(best) {
			best = candidate.Percentage
			found = true
		}
	}
	return best, found
}

// IsActiveAt reports active && valid_from <= now <= valid_to.
func IsActiveAt(d models.Discount, now time.Time) bool {
	return d.Active && !now.Before(d.ValidFrom) && !now.After(d.ValidTo)
}

// AppliesTo uses union semantics: the variant is linked or its category is.
func AppliesTo(d models.Discount, target Target) bool {
	for _, link := range d.Variants {
		if link.VariantID == target.VariantID {
			return true
		}
	}
	if target.CategoryID == uuid.Nil {
		return false
	}
	for _, link := range d.Categories {
		if link.CategoryID == target.CategoryID {
			return true
		}
	}
	return false
}
