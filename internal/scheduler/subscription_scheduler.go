package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const expiryRunTimeout = 2 * time.Minute

// Expirer flips overdue subscriptions to expired
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionScheduler runs the expiry sweep on a cron schedule
type SubscriptionScheduler struct {
	cron    *cron.Cron
	expirer Expirer
	logger  *slog.Logger
	now     func() time.Time
}

// NewSubscriptionScheduler registers the sweep under spec (standard 5-field
// cron syntax). Overlapping runs are skipped.
func NewSubscriptionScheduler(spec string, expirer Expirer, logger *slog.Logger) (*SubscriptionScheduler, error) {
	s := &SubscriptionScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		expirer: expirer,
		logger:  logger.With("component", "subscription_scheduler"),
		now:     func() time.Time { return time.Now().UTC() },
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *SubscriptionScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Subscription scheduler started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end
func (s *SubscriptionScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Subscription scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Subscription scheduler stop timed out")
	}
}

// RunOnce performs a single sweep
func (s *SubscriptionScheduler) RunOnce(ctx context.Context) (int64, error) {
	return s.expirer.ExpireOverdue(ctx, s.now())
}

func (s *SubscriptionScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), expiryRunTimeout)
	defer cancel()

	count, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("Subscription expiry sweep failed", "error", err)
		return
	}
	s.logger.Info("Subscription expiry sweep finished", "expired", count)
}
