package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
	"github.com/robfig/cron/v3"
)

type syncRunner interface {
	RunIfIdle(ctx context.Context, trigger syncrun.Trigger) (usecase.SyncReport, error)
}

// Scheduler fires a sync pass every interval. A tick that lands while a pass
// is still running is dropped.
type Scheduler struct {
	cron     *cron.Cron
	runner   syncRunner
	interval time.Duration
	timeout  time.Duration
	logger   *logging.Logger
}

func NewScheduler(runner syncRunner, interval, timeout time.Duration, logger *logging.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be > 0")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.tick); err != nil {
		return nil, fmt.Errorf("register sync schedule: %w", err)
	}

	return s, nil
}

// Start begins ticking. With runNow the first pass starts immediately
// instead of one interval from now.
func (s *Scheduler) Start(runNow bool) {
	if runNow {
		go s.tick()
	}
	s.cron.Start()
	s.logger.Info("sync scheduler started", "interval", s.interval.String())
}

// Stop halts the schedule and waits for an in-flight tick until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("sync scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out", "error", ctx.Err())
	}
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.runner.RunIfIdle(ctx, syncrun.TriggerScheduled)
	switch {
	case errors.Is(err, usecase.ErrSyncInProgress):
		s.logger.Info("scheduled sync skipped, pass in flight")
	case err != nil:
		s.logger.Error("scheduled sync failed", "run_id", report.RunID, "error", err)
	default:
		s.logger.Info("scheduled sync finished",
			"run_id", report.RunID,
			"status", report.Status,
			"matches_processed", report.MatchesProcessed,
			"matches_failed", report.MatchesFailed,
		)
	}
}
