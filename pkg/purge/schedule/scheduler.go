package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"coursys/courselib/pkg/purge"
)

// SweepFunc performs one committing purge sweep.
type SweepFunc func(ctx context.Context) (*purge.Report, error)

// Scheduler runs purge sweeps on a cron schedule. A sweep that is still
// running when the next one is due causes that next one to be skipped.
type Scheduler struct {
	sweep   SweepFunc
	spec    string
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// New creates a scheduler running sweep on the cron expression spec.
func New(spec string, sweep SweepFunc) *Scheduler {
	logger := slog.Default().With("component", "purge.scheduler")
	return &Scheduler{
		sweep:  sweep,
		spec:   spec,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Validate checks a standard five-field cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Start begins scheduled sweeps. It stops automatically when ctx is done.
//
// Common cron expressions:
//   - "30 2 * * *"  - Daily at 2:30 AM
//   - "0 */6 * * *" - Every 6 hours
//   - "0 3 * * 0"   - Weekly on Sunday at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if err := Validate(s.spec); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule purge: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("purge scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes a purge cycle.
func (s *Scheduler) runSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled purge panicked", "panic", fmt.Sprint(r))
		}
	}()

	s.logger.Info("starting scheduled purge")

	report, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled purge failed", "error", err)
		return
	}

	s.logger.Info("scheduled purge completed",
		"run_id", report.RunID,
		"deleted", report.TotalDeleted(),
		"failed_units", len(report.Failed()),
	)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info("purge scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
