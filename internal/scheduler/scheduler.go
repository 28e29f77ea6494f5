// Package scheduler repeats a collection job at a fixed interval. With a
// zero interval the job runs exactly once.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs a Job immediately and then on every tick.
type Scheduler struct {
	every  time.Duration
	logger *zap.Logger

	// ticks is overridden in tests.
	ticks func(d time.Duration) (<-chan time.Time, func())
}

// New creates a Scheduler. every <= 0 means run once.
func New(every time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		every:  every,
		logger: logger,
		ticks: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start runs job according to the schedule. In run-once mode the job's
// error is returned. In repeating mode errors are logged, each run is
// bounded by the interval, and Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, job Job) error {
	if s.every <= 0 {
		return job(ctx)
	}

	tick, stop := s.ticks(s.every)
	defer stop()

	s.logger.Info("Scheduler started", zap.Duration("every", s.every))

	s.run(ctx, job)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-tick:
			s.run(ctx, job)
		}
	}
}

// run executes one job with a deadline of one interval.
func (s *Scheduler) run(ctx context.Context, job Job) {
	runCtx, cancel := context.WithTimeout(ctx, s.every)
	defer cancel()

	start := time.Now()
	if err := job(runCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Scheduled run failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled run finished", zap.Duration("elapsed", time.Since(start)))
}
