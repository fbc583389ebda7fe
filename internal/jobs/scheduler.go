package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/redmonkez12/storefront-api/internal/logging"
)

const sweepTimeout = 30 * time.Second

// ResetSweeper clears pending password resets whose expiry has passed.
type ResetSweeper interface {
	SweepExpiredResets(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance in the API process.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  ResetSweeper
	schedule string
	logger   *logging.Logger
}

// NewScheduler takes a standard cron spec or a descriptor such as
// "@every 15m". An empty schedule disables the sweep.
func NewScheduler(sweeper ResetSweeper, schedule string, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("reset sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepResets); err != nil {
		return fmt.Errorf("invalid reset sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "reset_sweep", s.schedule)
	return nil
}

// Stop prevents new runs and waits for a running sweep until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) sweepResets() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cleared, err := s.sweeper.SweepExpiredResets(ctx)
	if err != nil {
		s.logger.Error("reset sweep failed", "error", err)
		return
	}
	if cleared > 0 {
		s.logger.Info("cleared expired password resets", "count", cleared)
	}
}
