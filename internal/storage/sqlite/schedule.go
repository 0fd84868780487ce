package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"meetup_bot/internal/domain"
)

type ScheduleStore struct {
	db *bun.DB
}

func NewScheduleStore(db *bun.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func (s *ScheduleStore) Get(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error) {
	var m Schedule
	err := executor(ctx, s.db).NewSelect().
		Model(&m).
		Where("day = ?", int(day)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, day)
	}
	if err != nil {
		return nil, fmt.Errorf("select schedule: %w", err)
	}
	rec := m.toDomain()
	return &rec, nil
}

// GetForUpdate is Get: a SQLite write transaction already holds the
// database lock.
func (s *ScheduleStore) GetForUpdate(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error) {
	return s.Get(ctx, day)
}

func (s *ScheduleStore) List(ctx context.Context) ([]domain.ScheduleRecord, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (s *ScheduleStore) ListSnoozed(ctx context.Context) ([]domain.ScheduleRecord, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("snooze_until IS NOT NULL")
	})
}

func (s *ScheduleStore) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.ScheduleRecord, error) {
	var models []Schedule
	q := executor(ctx, s.db).NewSelect().Model(&models).Order("day ASC")
	if err := filter(q).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select schedules: %w", err)
	}
	records := make([]domain.ScheduleRecord, 0, len(models))
	for i := range models {
		records = append(records, models[i].toDomain())
	}
	return records, nil
}

// Insert adds rec unless its day already exists and reports whether a row
// was written.
func (s *ScheduleStore) Insert(ctx context.Context, rec *domain.ScheduleRecord) (bool, error) {
	m := fromDomain(rec)
	m.ID = 0

	res, err := executor(ctx, s.db).NewInsert().
		Model(m).
		On("CONFLICT (day) DO NOTHING").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	rec.ID = m.ID
	return true, nil
}

func (s *ScheduleStore) Update(ctx context.Context, rec *domain.ScheduleRecord) error {
	res, err := executor(ctx, s.db).NewUpdate().
		Model(fromDomain(rec)).
		Column("schedule_time", "timezone", "enabled", "snooze_until", "original_schedule_time", "last_changed").
		Where("day = ?", int(rec.Day)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, rec.Day)
	}
	return nil
}
