package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeExpirer struct {
	cutoff  time.Time
	limit   int
	expired int
	err     error
}

func (f *fakeExpirer) ExpirePending(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.expired, f.err
}

func TestOrderExpiryJobPassesCutoffAndBatch(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{expired: 3}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:    testLogger(),
		Orders:    expirer,
		TTL:       30 * time.Minute,
		BatchSize: 25,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	job.(*orderExpiryJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-30 * time.Minute); !expirer.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoff)
	}
	if expirer.limit != 25 {
		t.Fatalf("expected batch 25, got %d", expirer.limit)
	}
}

func TestOrderExpiryJobWrapsFailure(t *testing.T) {
	boom := errors.New("boom")
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{Orders: &fakeExpirer{err: boom}})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
