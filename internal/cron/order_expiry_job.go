package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

const defaultPendingOrderTTL = time.Hour

type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    orders.Expirer
	TTL       time.Duration
	BatchSize int
}

// NewOrderExpiryJob cancels orders whose shopper never came back from the
// gateway, returning their stock to the catalog.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Orders == nil {
		return nil, errors.New("order expirer required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &orderExpiryJob{
		logg:      params.Logger,
		orders:    params.Orders,
		ttl:       ttl,
		batchSize: params.BatchSize,
		now:       time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg      *logger.Logger
	orders    orders.Expirer
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpirePending(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("expire pending orders (%d expired): %w", expired, err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"cutoff":  cutoff,
			"expired": expired,
		}), "pending orders expired")
	}
	return nil
}
