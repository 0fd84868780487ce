package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetup_bot/internal/config"
	"meetup_bot/internal/domain"
	"meetup_bot/internal/schedule"
)

// ScheduleService owns the weekly schedule records. Every change is a
// read-modify-write of one day inside one transaction.
type ScheduleService struct {
	store     ScheduleStore
	txManager TransactionManager
	metrics   Metrics
	logger    *slog.Logger
	config    config.ScheduleConfig
	location  *time.Location
	active    map[time.Weekday]bool
}

func NewScheduleService(
	store ScheduleStore,
	txManager TransactionManager,
	metrics Metrics,
	logger *slog.Logger,
	cfg config.ScheduleConfig,
) (*ScheduleService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	days, err := cfg.Days()
	if err != nil {
		return nil, err
	}
	if _, _, err := schedule.ParseClock(cfg.LocalTime); err != nil {
		return nil, err
	}
	if cfg.Window <= 0 {
		cfg.Window = schedule.DefaultWindow
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	active := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		active[d] = true
	}

	return &ScheduleService{
		store:     store,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger.With("component", "schedule"),
		config:    cfg,
		location:  loc,
		active:    active,
	}, nil
}

// Location is the display and calendar zone of the schedule.
func (s *ScheduleService) Location() *time.Location {
	return s.location
}

// InitializeWeek makes sure a record exists for every weekday and that
// enabled flags and timezone follow the configuration. It returns the number
// of days inserted or changed; running it twice changes nothing the second
// time.
func (s *ScheduleService) InitializeWeek(ctx context.Context, now time.Time) (int, error) {
	reference, err := schedule.ReferenceTime(s.config.LocalTime, s.location, now)
	if err != nil {
		return 0, fmt.Errorf("reference time: %w", err)
	}

	changed := 0
	for _, day := range schedule.Weekdays {
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			rec, err := s.store.GetForUpdate(txCtx, day)
			if errors.Is(err, domain.ErrScheduleNotFound) {
				inserted, err := s.store.Insert(txCtx, &domain.ScheduleRecord{
					Day:          day,
					ScheduleTime: reference,
					Timezone:     s.config.Timezone,
					Enabled:      s.active[day],
					LastChanged:  now.UTC(),
				})
				if err != nil {
					return fmt.Errorf("insert schedule: %w", err)
				}
				if inserted {
					changed++
					s.logger.Info("schedule created", "day", day, "schedule_time", reference, "enabled", s.active[day])
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("get schedule: %w", err)
			}

			updated, dirty := s.reconcile(*rec, reference)
			if !dirty {
				return nil
			}
			updated.LastChanged = now.UTC()
			if err := s.store.Update(txCtx, &updated); err != nil {
				return fmt.Errorf("update schedule: %w", err)
			}
			changed++
			s.logger.Info("schedule corrected",
				"day", day,
				"enabled", updated.Enabled,
				"timezone", updated.Timezone,
				"schedule_time", updated.ScheduleTime,
			)
			return nil
		})
		if err != nil {
			return changed, fmt.Errorf("initialize %s: %w", day, err)
		}
	}

	return changed, nil
}

// reconcile aligns rec with the configured active days and timezone. When
// the timezone changes, a snoozed record keeps its temporary time and gets a
// new restorable one instead.
func (s *ScheduleService) reconcile(rec domain.ScheduleRecord, reference string) (domain.ScheduleRecord, bool) {
	out := rec.Clone()
	dirty := false

	if want := s.active[rec.Day]; out.Enabled != want {
		out.Enabled = want
		dirty = true
	}
	if out.Timezone != s.config.Timezone {
		out.Timezone = s.config.Timezone
		if out.Snoozed() {
			ref := reference
			out.OriginalScheduleTime = &ref
		} else {
			out.ScheduleTime = reference
		}
		dirty = true
	}

	return out, dirty
}

func (s *ScheduleService) Get(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error) {
	rec, err := s.store.Get(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return rec, nil
}

// List reverts expired snoozes, then returns every record in weekday order.
func (s *ScheduleService) List(ctx context.Context, now time.Time) ([]domain.ScheduleRecord, error) {
	if _, err := s.RevertExpired(ctx, now); err != nil {
		return nil, err
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return records, nil
}

// Snooze suppresses publishing on day according to mode. An unknown mode is
// rejected before the store is touched.
func (s *ScheduleService) Snooze(ctx context.Context, day time.Weekday, mode string, now time.Time) (*domain.ScheduleRecord, error) {
	m, err := schedule.ParseMode(mode)
	if err != nil {
		return nil, err
	}

	var result domain.ScheduleRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rec, err := s.store.GetForUpdate(txCtx, day)
		if err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}

		snoozed, err := schedule.Snooze(*rec, m, now, s.location)
		if err != nil {
			return err
		}

		if err := s.store.Update(txCtx, &snoozed); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		result = snoozed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snooze %s: %w", day, err)
	}

	s.logger.Info("schedule snoozed",
		"day", day,
		"mode", m,
		"until", result.SnoozeUntil,
		"schedule_time", result.ScheduleTime,
	)

	return &result, nil
}

// RevertExpired restores every record whose snooze has ended and returns the
// reverted days.
func (s *ScheduleService) RevertExpired(ctx context.Context, now time.Time) ([]time.Weekday, error) {
	snoozed, err := s.store.ListSnoozed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snoozed: %w", err)
	}

	var reverted []time.Weekday
	for _, candidate := range snoozed {
		if _, expired := schedule.Revert(candidate, now); !expired {
			continue
		}

		day := candidate.Day
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			rec, err := s.store.GetForUpdate(txCtx, day)
			if err != nil {
				return fmt.Errorf("get schedule: %w", err)
			}
			restored, changed := schedule.Revert(*rec, now)
			if !changed {
				return nil
			}
			if err := s.store.Update(txCtx, &restored); err != nil {
				return fmt.Errorf("update schedule: %w", err)
			}
			reverted = append(reverted, day)
			return nil
		})
		if err != nil {
			return reverted, fmt.Errorf("revert %s: %w", day, err)
		}
		s.logger.Info("snooze expired", "day", day)
	}

	return reverted, nil
}

// Check reverts expired snoozes and decides whether the digest should be
// published at now, using today's record in the schedule zone. A missing
// record means no.
func (s *ScheduleService) Check(ctx context.Context, now time.Time) (*domain.CheckResult, error) {
	return s.CheckDay(ctx, now.In(s.location).Weekday(), now)
}

// CheckDay is Check against the record of day instead of today.
func (s *ScheduleService) CheckDay(ctx context.Context, day time.Weekday, now time.Time) (*domain.CheckResult, error) {
	if _, err := s.RevertExpired(ctx, now); err != nil {
		return nil, err
	}

	rec, err := s.store.Get(ctx, day)
	switch {
	case errors.Is(err, domain.ErrScheduleNotFound):
		rec = nil
	case err != nil:
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	decision := schedule.ShouldPublish(rec, now, s.config.Window)

	label := "skip"
	if decision.Publish {
		label = "publish"
	}
	s.metrics.ScheduleDecision(day.String(), label)

	s.logger.Info("schedule checked",
		"day", day,
		"publish", decision.Publish,
		"reason", decision.Reason,
		"diff_minutes", decision.DiffMinutes,
	)

	return &domain.CheckResult{
		Day:         day,
		Publish:     decision.Publish,
		Reason:      decision.Reason,
		DiffMinutes: decision.DiffMinutes,
		ScheduledAt: decision.ScheduledAt,
		Now:         now,
		Timezone:    s.location.String(),
		Record:      rec,
	}, nil
}
