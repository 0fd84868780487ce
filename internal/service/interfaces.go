package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"meetup_bot/internal/domain"
)

type Fetcher interface {
	FetchFederated(ctx context.Context, token string) (domain.RawPayload, error)
	FetchBySource(ctx context.Context, token, sourceID string) (domain.RawPayload, error)
}

type Normalizer interface {
	Normalize(payload domain.RawPayload, location string, exclusions []string, now time.Time) ([]domain.Event, error)
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type ScheduleStore interface {
	Get(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error)
	GetForUpdate(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error)
	List(ctx context.Context) ([]domain.ScheduleRecord, error)
	ListSnoozed(ctx context.Context) ([]domain.ScheduleRecord, error)
	Insert(ctx context.Context, rec *domain.ScheduleRecord) (bool, error)
	Update(ctx context.Context, rec *domain.ScheduleRecord) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ScheduleChecker interface {
	Check(ctx context.Context, now time.Time) (*domain.CheckResult, error)
}

type EventAggregator interface {
	Aggregate(ctx context.Context, token, location string, exclusions []string, now time.Time) ([]domain.Event, *domain.AggregateStats, error)
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, message, channelID string) error
	Close() error
}

type Metrics interface {
	SourceFetched(source, result string)
	EventsAggregated(n int)
	ScheduleDecision(day, decision string)
	Delivered(publisher, result string)
	RunCompleted(d time.Duration)
}
