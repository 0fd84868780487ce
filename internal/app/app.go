// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"meetup_bot/internal/config"
	"meetup_bot/internal/metrics"
	"meetup_bot/internal/publisher"
	"meetup_bot/internal/registry"
	"meetup_bot/internal/service"
	"meetup_bot/internal/source/meetup"
	"meetup_bot/internal/storage/postgres"
	"meetup_bot/internal/storage/sqlite"
)

type App struct {
	Config    *config.Config
	Metrics   *metrics.Collector
	Schedules *service.ScheduleService
	Digest    *service.DigestService
	Location  *time.Location

	closers []func() error
	logger  *slog.Logger
}

// New opens the schedule store and builds every service. Publishers are only
// created for targets that appear in the channel list.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Location, err = cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	a.Metrics, err = metrics.NewCollector()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	store, txManager, err := a.openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a.Schedules, err = service.NewScheduleService(store, txManager, a.Metrics, logger, cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("create schedule service: %w", err)
	}

	reg, err := registry.LoadCSV(cfg.Meetup.GroupsFile, cfg.Meetup.Umbrella)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	logger.Info("loaded groups", "count", reg.Len(), "file", cfg.Meetup.GroupsFile)

	var fetcher service.Fetcher = meetup.New(meetup.Config{
		Endpoint:     cfg.Meetup.Endpoint,
		ProNetworkID: cfg.Meetup.ProNetworkID,
		Timeout:      cfg.Meetup.Timeout,
	}, logger)
	if cfg.Meetup.CacheTTL > 0 {
		fetcher = meetup.NewCachingClient(fetcher, cfg.Meetup.CacheTTL)
	}

	aggregator := service.NewAggregator(
		fetcher,
		meetup.NewNormalizer(cfg.Events.Lookahead, logger),
		reg.IDs(),
		a.Metrics,
		logger,
	)

	deliveries, err := a.deliveries(cfg)
	if err != nil {
		return nil, err
	}

	a.Digest = service.NewDigestService(
		a.Schedules,
		aggregator,
		meetup.StaticToken(cfg.Meetup.Token),
		deliveries,
		a.Metrics,
		logger,
		cfg.Events,
		a.Location,
	)

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.DatabaseConfig) (service.ScheduleStore, service.TransactionManager, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, nil, err
		}
		a.logger.Info("connected to database", "driver", cfg.Driver, "host", cfg.Host, "dbname", cfg.DBName)
		return postgres.NewScheduleStore(db), postgres.NewTransactionManager(db), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqlite.CreateSchema(ctx, db); err != nil {
			return nil, nil, err
		}
		a.logger.Info("opened database", "driver", cfg.Driver, "path", cfg.Path)
		return sqlite.NewScheduleStore(db), sqlite.NewTransactionManager(db), nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func (a *App) deliveries(cfg *config.Config) ([]service.Delivery, error) {
	publishers := map[string]service.Publisher{}

	get := func(target string) (service.Publisher, error) {
		if p, ok := publishers[target]; ok {
			return p, nil
		}
		var (
			p   service.Publisher
			err error
		)
		switch target {
		case "slack":
			p = publisher.NewSlack(publisher.SlackConfig{Token: cfg.Delivery.Slack.Token}, a.logger)
		case "discord":
			p, err = publisher.NewDiscord(cfg.Delivery.Discord.Token, a.logger)
		case "rabbitmq":
			p, err = publisher.NewRabbitMQ(publisher.Config{
				URL:        cfg.RabbitMQ.URL,
				Exchange:   cfg.RabbitMQ.Exchange,
				RoutingKey: cfg.RabbitMQ.RoutingKey,
				QueueName:  cfg.RabbitMQ.QueueName,
			}, a.logger)
		default:
			err = fmt.Errorf("unknown target %q", target)
		}
		if err != nil {
			return nil, fmt.Errorf("create %s publisher: %w", target, err)
		}
		publishers[target] = p
		a.closers = append(a.closers, p.Close)
		return p, nil
	}

	deliveries := make([]service.Delivery, 0, len(cfg.Delivery.Channels))
	for _, ch := range cfg.Delivery.Channels {
		p, err := get(ch.Target)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, service.Delivery{Publisher: p, ChannelID: ch.ID})
		a.logger.Info("delivery configured", "channel", ch.Name, "target", ch.Target)
	}
	return deliveries, nil
}

// Close releases publishers and the database in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
