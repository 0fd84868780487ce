package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"meetup_bot/internal/domain"
)

const scheduleColumns = `id, day, schedule_time, timezone, enabled, snooze_until, original_schedule_time, last_changed`

type scheduleRow struct {
	ID                   int64          `db:"id"`
	Day                  int            `db:"day"`
	ScheduleTime         string         `db:"schedule_time"`
	Timezone             string         `db:"timezone"`
	Enabled              bool           `db:"enabled"`
	SnoozeUntil          sql.NullTime   `db:"snooze_until"`
	OriginalScheduleTime sql.NullString `db:"original_schedule_time"`
	LastChanged          time.Time      `db:"last_changed"`
}

func (r scheduleRow) toDomain() domain.ScheduleRecord {
	rec := domain.ScheduleRecord{
		ID:           r.ID,
		Day:          time.Weekday(r.Day),
		ScheduleTime: r.ScheduleTime,
		Timezone:     r.Timezone,
		Enabled:      r.Enabled,
		LastChanged:  r.LastChanged.UTC(),
	}
	if r.SnoozeUntil.Valid {
		t := r.SnoozeUntil.Time.UTC()
		rec.SnoozeUntil = &t
	}
	if r.OriginalScheduleTime.Valid {
		s := r.OriginalScheduleTime.String
		rec.OriginalScheduleTime = &s
	}
	return rec
}

type ScheduleStore struct {
	db *sqlx.DB
}

func NewScheduleStore(db *sqlx.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func (s *ScheduleStore) Get(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE day = $1`
	return s.get(ctx, query, day)
}

// GetForUpdate locks the row until the surrounding transaction ends. Outside
// a transaction it behaves like Get.
func (s *ScheduleStore) GetForUpdate(ctx context.Context, day time.Weekday) (*domain.ScheduleRecord, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE day = $1 FOR UPDATE`
	return s.get(ctx, query, day)
}

func (s *ScheduleStore) get(ctx context.Context, query string, day time.Weekday) (*domain.ScheduleRecord, error) {
	var row scheduleRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, int(day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, day)
	}
	if err != nil {
		return nil, fmt.Errorf("select schedule: %w", err)
	}
	rec := row.toDomain()
	return &rec, nil
}

func (s *ScheduleStore) List(ctx context.Context) ([]domain.ScheduleRecord, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY day`
	return s.list(ctx, query)
}

func (s *ScheduleStore) ListSnoozed(ctx context.Context) ([]domain.ScheduleRecord, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE snooze_until IS NOT NULL ORDER BY day`
	return s.list(ctx, query)
}

func (s *ScheduleStore) list(ctx context.Context, query string) ([]domain.ScheduleRecord, error) {
	var rows []scheduleRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, fmt.Errorf("select schedules: %w", err)
	}
	records := make([]domain.ScheduleRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toDomain())
	}
	return records, nil
}

// Insert adds rec unless its day already exists. It reports whether a row
// was written and sets rec.ID when it was.
func (s *ScheduleStore) Insert(ctx context.Context, rec *domain.ScheduleRecord) (bool, error) {
	query := `
		INSERT INTO schedules (day, schedule_time, timezone, enabled, snooze_until, original_schedule_time, last_changed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (day) DO NOTHING
		RETURNING id`

	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, query,
		int(rec.Day),
		rec.ScheduleTime,
		rec.Timezone,
		rec.Enabled,
		rec.SnoozeUntil,
		rec.OriginalScheduleTime,
		rec.LastChanged,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert schedule: %w", err)
	}
	rec.ID = id
	return true, nil
}

func (s *ScheduleStore) Update(ctx context.Context, rec *domain.ScheduleRecord) error {
	query := `
		UPDATE schedules SET
			schedule_time = $2,
			timezone = $3,
			enabled = $4,
			snooze_until = $5,
			original_schedule_time = $6,
			last_changed = $7
		WHERE day = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		int(rec.Day),
		rec.ScheduleTime,
		rec.Timezone,
		rec.Enabled,
		rec.SnoozeUntil,
		rec.OriginalScheduleTime,
		rec.LastChanged,
	)
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
