// Package scheduler triggers the batch depreciation run on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bibbank/finance-service/internal/application/dto"
)

// DepreciationRunner runs depreciation for every tenant with active assets.
type DepreciationRunner interface {
	RunAll(ctx context.Context, asOf time.Time) ([]dto.DepreciationRunResponse, error)
}

// DepreciationScheduler runs a DepreciationRunner on a standard five-field
// cron expression. A tick that fires while the previous run is still busy
// is skipped.
type DepreciationScheduler struct {
	cron   *cron.Cron
	runner DepreciationRunner
	logger *slog.Logger
	now    func() time.Time
	runCtx context.Context
}

// NewDepreciationScheduler parses spec and returns an idle scheduler.
func NewDepreciationScheduler(spec string, runner DepreciationRunner, logger *slog.Logger) (*DepreciationScheduler, error) {
	s := &DepreciationScheduler{
		runner: runner,
		logger: logger.With("job", "depreciation"),
		now:    func() time.Time { return time.Now().UTC() },
		runCtx: context.Background(),
	}
	log := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := s.cron.AddFunc(spec, func() { _ = s.RunOnce(s.runCtx) }); err != nil {
		return nil, fmt.Errorf("depreciation schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled, then waits for a run in
// progress to finish.
func (s *DepreciationScheduler) Start(ctx context.Context) error {
	s.runCtx = ctx
	s.logger.Info("depreciation scheduler started")
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("depreciation scheduler stopped")
	return nil
}

// RunOnce depreciates every tenant as of today.
func (s *DepreciationScheduler) RunOnce(ctx context.Context) error {
	y, m, d := s.now().Date()
	asOf := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	runs, err := s.runner.RunAll(ctx, asOf)
	assets, periods, failures := 0, 0, 0
	for _, r := range runs {
		assets += r.Assets
		periods += r.PeriodsApplied
		failures += len(r.Failures)
	}
	attrs := []any{
		"as_of", asOf.Format(time.DateOnly),
		"tenants", len(runs),
		"assets", assets,
		"periods", periods,
		"failures", failures,
	}
	if err != nil {
		s.logger.Error("depreciation run failed", append(attrs, "error", err)...)
		return err
	}
	s.logger.Info("depreciation run finished", attrs...)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
