package pipeline

// scheduler.go runs an invocation on a cron schedule.
//
// The invocation is reloaded on every tick so edits to the params file take
// effect without a restart. A tick that fires while the previous run is
// still active is skipped, and a panicking run is recovered and logged.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
)

// InvocationSource produces the invocation for one run.
type InvocationSource func() (*metadata.Invocation, error)

// FileSource reloads the invocation from path on every call.
func FileSource(path string) InvocationSource {
	return func() (*metadata.Invocation, error) {
		return metadata.LoadInvocationFile(path)
	}
}

// Scheduler triggers runs from a cron expression.
type Scheduler struct {
	spec   string
	runner Runner
	source InvocationSource
	cron   *cron.Cron
	job    cron.Job
	ctx    context.Context
}

// NewScheduler validates spec and builds a scheduler. Standard five-field
// expressions and descriptors such as @daily are accepted.
func NewScheduler(spec string, runner Runner, source InvocationSource) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger := cronLogger{slog.Default().With("component", "scheduler")}
	s := &Scheduler{
		spec:   spec,
		runner: runner,
		source: source,
		cron:   cron.New(cron.WithLogger(logger)),
		ctx:    context.Background(),
	}
	s.job = cron.NewChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	).Then(cron.FuncJob(s.runOnce))
	return s, nil
}

// Start schedules the job and returns immediately. Runs use ctx, so
// cancelling it aborts an active run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "schedule", s.spec)
	return nil
}

// Stop stops scheduling new runs. The returned context is done once any
// active run has finished.
func (s *Scheduler) Stop() context.Context {
	slog.Info("scheduler stopping")
	return s.cron.Stop()
}

// Trigger runs the job now, subject to the same skip rule as a tick.
func (s *Scheduler) Trigger() {
	s.job.Run()
}

func (s *Scheduler) runOnce() {
	inv, err := s.source()
	if err != nil {
		slog.Error("scheduled run skipped", "code", core.ErrorCode(err), "error", err)
		return
	}
	if _, err := s.runner.Run(s.ctx, inv); err != nil {
		slog.Error("scheduled run failed", "code", core.ErrorCode(err), "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
