package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"meetup_bot/internal/domain"
)

// Runner performs one check-and-publish cycle.
type Runner interface {
	Run(ctx context.Context, now time.Time, force bool) (*domain.RunStats, error)
}

type Config struct {
	// Spec is a cron expression or descriptor such as "@hourly".
	Spec       string
	Timeout    time.Duration
	RunOnStart bool
	Location   *time.Location
}

// Scheduler polls the runner on a cron schedule. A run still in progress
// when the next one is due causes that one to be skipped.
type Scheduler struct {
	runner Runner
	config Config
	logger *slog.Logger
}

func NewScheduler(runner Runner, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "@hourly"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		runner: runner,
		config: cfg,
		logger: logger.With("component", "scheduler"),
	}
}

// Start blocks until ctx is cancelled, then waits for a running job to
// finish.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.config.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := c.AddFunc(s.config.Spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("parse poll spec %q: %w", s.config.Spec, err)
	}

	s.logger.Info("scheduler started", "spec", s.config.Spec, "location", s.config.Location)

	if s.config.RunOnStart {
		s.run(ctx)
	}

	c.Start()
	s.logger.Debug("next run scheduled", "at", c.Entry(id).Next)

	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	stats, err := s.runner.Run(runCtx, time.Now(), false)
	if err != nil {
		s.logger.Error("run failed", "error", err)
		return
	}
	s.logger.Debug("run finished",
		"run_id", stats.RunID,
		"should_post", stats.ShouldPost,
		"delivered", stats.Delivered,
	)
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
