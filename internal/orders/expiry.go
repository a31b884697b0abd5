package orders

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
)

const defaultExpiryBatch = 100

// Expirer cancels pending orders whose payment was never completed.
type Expirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

func NewExpirer(params ServiceParams) (Expirer, error) {
	svc, err := NewService(params)
	if err != nil {
		return nil, err
	}
	return svc.(*service), nil
}

// ExpirePending cancels up to limit pending orders created before cutoff,
// returning their stock and failing their payment. Orders paid concurrently
// are skipped.
func (s *service) ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultExpiryBatch
	}
	stale, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}

	expired := 0
	var errs error
	for i := range stale {
		order := stale[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.restock(ctx, tx, &order, []enums.OrderStatus{enums.OrderStatusPending}, enums.EventOrderCancelled, nil); err != nil {
				return err
			}
			if _, err := s.repo.WithTx(tx).TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusFailed); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
			}
			return nil
		})
		if err != nil {
			if pkgerrors.CodeOf(err) == pkgerrors.CodeStateConflict {
				continue
			}
			errs = multierr.Append(errs, err)
			continue
		}
		expired++
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "pending order expired")
	}
	return expired, errs
}
