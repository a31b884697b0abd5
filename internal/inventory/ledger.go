package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

// Ledger owns inventory quantities. Every decrement is a guarded single-statement
// update, so concurrent checkouts on the same variant can never push stock below zero.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Available(ctx context.Context, variantID uuid.UUID) (int, error)
	Decrement(ctx context.Context, variantID uuid.UUID, qty int) error
	Increment(ctx context.Context, variantID uuid.UUID, qty int) error
}

type ledger struct {
	db *gorm.DB
}

// NewLedger builds a ledger backed by the inventories table.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{db: tx}
}

// Available returns the on-hand quantity; a variant without a row has none.
func (l *ledger) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	var row models.Inventory
	err := l.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return row.Quantity, nil
}

func (l *ledger) Decrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "quantity must be positive")
	}

	res := l.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ? AND quantity >= ?", variantID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
			})
	}
	return nil
}

func (l *ledger) Increment(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}

	res := l.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ?", variantID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment inventory")
	}
	if res.RowsAffected == 0 {
		row := models.Inventory{VariantID: variantID, Quantity: qty}
		if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore inventory")
		}
	}
	return nil
}
