// Package scheduler starts due campaigns on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DueRunner pauses abandoned sends and dispatches campaigns scheduled at or before now.
type DueRunner interface {
	Reconcile(ctx context.Context) (int, error)
	RunDueCampaigns(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	runner DueRunner
	logger *zap.Logger
	now    func() time.Time
}

// New registers the due-campaign job on spec, e.g. "@every 30s" or "*/5 * * * *".
// A run still in progress when the next tick fires is not overlapped.
func New(spec string, runner DueRunner, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{runner: runner, logger: logger, now: time.Now}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := s.cron.AddFunc(spec, s.Tick); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}
	return s, nil
}

// Tick pauses campaigns whose sender died and then runs one pass over due campaigns.
func (s *Scheduler) Tick() {
	ctx := context.Background()
	if paused, err := s.runner.Reconcile(ctx); err != nil {
		s.logger.Error("Reconcile pass failed", zap.Error(err))
	} else if paused > 0 {
		s.logger.Warn("Abandoned campaigns paused", zap.Int("count", paused))
	}

	n, err := s.runner.RunDueCampaigns(ctx, s.now())
	if err != nil {
		s.logger.Error("Scheduled campaign pass failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Scheduled campaigns dispatched", zap.Int("count", n))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop prevents new runs and waits for a running one to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before the running pass finished")
	}
}
