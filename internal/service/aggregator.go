package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"meetup_bot/internal/domain"
)

// FederatedSource labels the pro-network query in logs and metrics.
const FederatedSource = "self"

const (
	resultOK          = "ok"
	resultUnavailable = "unavailable"
	resultMalformed   = "malformed"
	resultError       = "error"
)

// Aggregator merges the federated query with one fallback query per
// registered group.
type Aggregator struct {
	client     Fetcher
	normalizer Normalizer
	sources    []string
	metrics    Metrics
	logger     *slog.Logger
}

func NewAggregator(
	client Fetcher,
	normalizer Normalizer,
	sources []string,
	metrics Metrics,
	logger *slog.Logger,
) *Aggregator {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Aggregator{
		client:     client,
		normalizer: normalizer,
		sources:    sources,
		metrics:    metrics,
		logger:     logger.With("component", "aggregator"),
	}
}

// Aggregate returns the deduplicated events of every source sorted by start
// time. A failing source contributes nothing; only cancellation of ctx ends
// the run early.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	token, location string,
	exclusions []string,
	now time.Time,
) ([]domain.Event, *domain.AggregateStats, error) {
	startTime := time.Now()
	stats := &domain.AggregateStats{Sources: 1 + len(a.sources)}

	var all []domain.Event

	collect := func(source string, fetch func() (domain.RawPayload, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		events, err := a.fetchSource(fetch, location, exclusions, now)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.Failed++
			a.metrics.SourceFetched(source, resultFor(err))
			a.logger.Error("source failed", "source", source, "error", err)
			return nil
		}

		a.metrics.SourceFetched(source, resultOK)
		a.logger.Debug("source fetched", "source", source, "events", len(events))
		stats.Fetched += len(events)
		all = append(all, events...)
		return nil
	}

	err := collect(FederatedSource, func() (domain.RawPayload, error) {
		return a.client.FetchFederated(ctx, token)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate events: %w", err)
	}

	for _, id := range a.sources {
		err := collect(id, func() (domain.RawPayload, error) {
			return a.client.FetchBySource(ctx, token, id)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("aggregate events: %w", err)
		}
	}

	events := Dedup(all)
	stats.Duplicates = len(all) - len(events)
	SortEvents(events)

	for _, e := range events {
		if e.DateUnknown {
			stats.UnknownDates++
			a.logger.Warn("event has unknown date", "url", e.URL, "raw_date", e.RawDate)
		}
	}

	stats.Kept = len(events)
	stats.Duration = time.Since(startTime)
	a.metrics.EventsAggregated(stats.Kept)

	a.logger.Info("aggregation completed",
		"sources", stats.Sources,
		"failed", stats.Failed,
		"fetched", stats.Fetched,
		"duplicates", stats.Duplicates,
		"kept", stats.Kept,
		"duration", stats.Duration,
	)

	return events, stats, nil
}

func (a *Aggregator) fetchSource(
	fetch func() (domain.RawPayload, error),
	location string,
	exclusions []string,
	now time.Time,
) ([]domain.Event, error) {
	payload, err := fetch()
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	events, err := a.normalizer.Normalize(payload, location, exclusions, now)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return events, nil
}

// Dedup keeps the first event for each URL, preserving order. Distinct
// events sharing a URL collapse into one.
func Dedup(events []domain.Event) []domain.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		out = append(out, e)
	}
	return out
}

// SortEvents orders events by start time. The order of equal start times is
// kept, and unknown dates sort first.
func SortEvents(events []domain.Event) {
	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.OccursAt.Compare(b.OccursAt)
	})
}

func resultFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return resultUnavailable
	case errors.Is(err, domain.ErrMalformedPayload):
		return resultMalformed
	default:
		return resultError
	}
}

type nopMetrics struct{}

func (nopMetrics) SourceFetched(string, string)    {}
func (nopMetrics) EventsAggregated(int)            {}
func (nopMetrics) ScheduleDecision(string, string) {}
func (nopMetrics) Delivered(string, string)        {}
func (nopMetrics) RunCompleted(time.Duration)      {}
