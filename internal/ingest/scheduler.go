package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CycleRunner is what the Scheduler drives once per interval.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleStats, error)
}

// Scheduler drives a CycleRunner on a fixed interval, indefinitely.
// Cycles never overlap: the next tick only fires a cycle after the
// previous one has returned. A failed or panicked cycle is logged and
// the scheduler keeps going.
type Scheduler struct {
	interval time.Duration
	runner   CycleRunner
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler that runs runner every interval.
func NewScheduler(interval time.Duration, runner CycleRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{interval: interval, runner: runner, logger: logger}
}

// Run executes one cycle immediately, then one per interval until ctx
// is cancelled. Cancellation between cycles returns nil; a cycle
// in flight completes its current unit first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval.String())

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce runs a single cycle, containing any error or panic so the
// next interval fires regardless of this cycle's outcome.
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panicked", "panic", r)
		}
	}()

	start := time.Now()
	stats, err := s.runner.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Info("cycle interrupted by shutdown")
			return
		}
		s.logger.Error("cycle failed", "error", err)
		return
	}

	s.logger.Info("cycle complete",
		"units", stats.Units,
		"unavailable", stats.Unavailable,
		"new_rows", stats.NewVisits,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
}
