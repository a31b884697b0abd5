package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

const defaultInterval = 5 * time.Minute

type jobRecorder interface {
	ObserveJob(job string, duration time.Duration, err error)
}

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  jobRecorder
	Interval time.Duration
}

// Service runs every job once per interval while holding the lock.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  jobRecorder
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "maintenance lock unavailable", err)
		return
	}
	if !held {
		s.logg.Debug(ctx, "maintenance cycle owned by another worker")
		return
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "release maintenance lock", err)
		}
	}()

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, job)
	}
}

// runJob isolates failures so one broken job does not starve the others.
func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "maintenance.job"})
	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJob(job.Name(), elapsed, err)
	}

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "maintenance job failed", err)
		return
	}
	s.logg.Info(jobCtx, "maintenance job completed")
}
