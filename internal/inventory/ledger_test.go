package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

func TestDecrementGuardsStock(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	variant := dbtest.SeedVariant(t, db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	l := NewLedger(db)
	ctx := context.Background()

	if err := l.Decrement(ctx, variant.ID, 3); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	err := l.Decrement(ctx, variant.ID, 3)
	if err == nil {
		t.Fatalf("expected insufficient stock")
	}
	if pkgerrors.ReasonOf(err) != pkgerrors.ReasonInsufficientStock {
		t.Fatalf("unexpected reason %s", pkgerrors.ReasonOf(err))
	}
	if got := dbtest.Stock(t, db, variant.ID); got != 2 {
		t.Fatalf("expected stock 2 after rejected decrement, got %d", got)
	}
}

func TestDecrementExactStockReachesZero(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	variant := dbtest.SeedVariant(t, db, dbtest.VariantSpec{Price: 10, Stock: 4})
	l := NewLedger(db)

	if err := l.Decrement(context.Background(), variant.ID, 4); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := dbtest.Stock(t, db, variant.ID); got != 0 {
		t.Fatalf("expected zero stock, got %d", got)
	}
}

func TestDecrementRejectsNonPositive(t *testing.T) {
	t.Parallel()

	l := NewLedger(dbtest.Open(t))
	err := l.Decrement(context.Background(), uuid.New(), 0)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecrementUnknownVariantIsInsufficient(t *testing.T) {
	t.Parallel()

	l := NewLedger(dbtest.Open(t))
	err := l.Decrement(context.Background(), uuid.New(), 1)
	if pkgerrors.ReasonOf(err) != pkgerrors.ReasonInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestIncrementRestoresAndRollsBackWithTx(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	variant := dbtest.SeedVariant(t, db, dbtest.VariantSpec{Price: 10, Stock: 1})
	l := NewLedger(db)
	ctx := context.Background()

	if err := l.Increment(ctx, variant.ID, 4); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got, _ := l.Available(ctx, variant.ID); got != 5 {
		t.Fatalf("expected 5 available, got %d", got)
	}

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := l.WithTx(tx).Decrement(ctx, variant.ID, 5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := dbtest.Stock(t, db, variant.ID); got != 5 {
		t.Fatalf("expected rollback to keep stock 5, got %d", got)
	}
}

func TestAvailableMissingRowIsZero(t *testing.T) {
	t.Parallel()

	got, err := NewLedger(dbtest.Open(t)).Available(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
