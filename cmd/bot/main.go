package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetup_bot/internal/app"
	"meetup_bot/internal/config"
	"meetup_bot/internal/logging"
	"meetup_bot/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single check and exit")
	force := flag.Bool("force", false, "publish regardless of the schedule (implies -once)")
	flag.Parse()

	logger := logging.New("info", "json")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	changed, err := a.Schedules.InitializeWeek(ctx, time.Now())
	if err != nil {
		logger.Error("failed to initialize schedule", "error", err)
		os.Exit(1)
	}
	logger.Info("schedule initialized", "changed", changed)

	if *once || *force {
		stats, err := a.Digest.Run(ctx, time.Now(), *force)
		if err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("run finished",
			"run_id", stats.RunID,
			"should_post", stats.ShouldPost,
			"reason", stats.Reason,
			"events", stats.Events,
			"delivered", stats.Delivered,
		)
		return
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           a.Metrics.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	sched := scheduler.NewScheduler(a.Digest, scheduler.Config{
		Spec:       cfg.Poll.Spec,
		Timeout:    cfg.Poll.Timeout,
		RunOnStart: cfg.Poll.RunOnStart,
		Location:   a.Location,
	}, logger)

	logger.Info("starting meetup bot",
		"poll", cfg.Poll.Spec,
		"timezone", cfg.Schedule.Timezone,
		"location", cfg.Events.Location,
		"channels", len(cfg.Delivery.Channels),
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	logger.Info("received shutdown signal")
}
