package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"meetup_bot/internal/config"
	"meetup_bot/internal/domain"
)

// Delivery binds a publisher to the channel it posts to.
type Delivery struct {
	Publisher Publisher
	ChannelID string
}

// DigestService runs one check-and-publish cycle.
type DigestService struct {
	checker    ScheduleChecker
	aggregator EventAggregator
	tokens     TokenSource
	deliveries []Delivery
	metrics    Metrics
	logger     *slog.Logger
	config     config.EventsConfig
	display    *time.Location
}

func NewDigestService(
	checker ScheduleChecker,
	aggregator EventAggregator,
	tokens TokenSource,
	deliveries []Delivery,
	metrics Metrics,
	logger *slog.Logger,
	cfg config.EventsConfig,
	display *time.Location,
) *DigestService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if display == nil {
		display = time.UTC
	}
	return &DigestService{
		checker:    checker,
		aggregator: aggregator,
		tokens:     tokens,
		deliveries: deliveries,
		metrics:    metrics,
		logger:     logger.With("component", "digest"),
		config:     cfg,
		display:    display,
	}
}

// Run checks the schedule and, when it allows or force is set, publishes the
// digest to every delivery. A failed delivery does not stop the others.
func (s *DigestService) Run(ctx context.Context, now time.Time, force bool) (*domain.RunStats, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	stats := &domain.RunStats{RunID: runID}

	defer func() {
		stats.Duration = time.Since(startTime)
		s.metrics.RunCompleted(stats.Duration)
	}()

	check, err := s.checker.Check(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("check schedule: %w", err)
	}
	stats.ShouldPost = check.Publish
	stats.Reason = check.Reason

	if !check.Publish && !force {
		logger.Info("skipping digest", "reason", check.Reason, "day", check.Day)
		return stats, nil
	}

	events, _, err := s.Events(ctx, now)
	if err != nil {
		return stats, err
	}
	stats.Events = len(events)

	if len(events) == 0 {
		logger.Info("no upcoming events")
		return stats, nil
	}

	message := FormatDigest(events, s.display)

	for _, d := range s.deliveries {
		name := d.Publisher.Name()
		if err := d.Publisher.Publish(ctx, message, d.ChannelID); err != nil {
			stats.DeliveryErrors++
			s.metrics.Delivered(name, resultError)
			logger.Error("delivery failed",
				"publisher", name,
				"channel", d.ChannelID,
				"error", err,
			)
			continue
		}
		stats.Delivered++
		s.metrics.Delivered(name, resultOK)
	}

	logger.Info("digest completed",
		"forced", force && !check.Publish,
		"events", stats.Events,
		"delivered", stats.Delivered,
		"delivery_errors", stats.DeliveryErrors,
	)

	return stats, nil
}

// Events aggregates upcoming events for the configured location and
// exclusions without touching the schedule.
func (s *DigestService) Events(ctx context.Context, now time.Time) ([]domain.Event, *domain.AggregateStats, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get token: %w", err)
	}

	events, stats, err := s.aggregator.Aggregate(ctx, token, s.config.Location, s.config.Exclusions, now)
	if err != nil {
		return nil, nil, err
	}
	return events, stats, nil
}
