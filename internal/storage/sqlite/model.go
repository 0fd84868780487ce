package sqlite

import (
	"time"

	"github.com/uptrace/bun"

	"meetup_bot/internal/domain"
)

type Schedule struct {
	bun.BaseModel `bun:"table:schedules"`

	ID                   int64      `bun:"id,pk,autoincrement"`
	Day                  int        `bun:"day,notnull,unique"`
	ScheduleTime         string     `bun:"schedule_time,notnull"`
	Timezone             string     `bun:"timezone,notnull"`
	Enabled              bool       `bun:"enabled,notnull"`
	SnoozeUntil          *time.Time `bun:"snooze_until"`
	OriginalScheduleTime *string    `bun:"original_schedule_time"`
	LastChanged          time.Time  `bun:"last_changed,notnull"`
}

func fromDomain(rec *domain.ScheduleRecord) *Schedule {
	m := &Schedule{
		ID:                   rec.ID,
		Day:                  int(rec.Day),
		ScheduleTime:         rec.ScheduleTime,
		Timezone:             rec.Timezone,
		Enabled:              rec.Enabled,
		OriginalScheduleTime: rec.OriginalScheduleTime,
		LastChanged:          rec.LastChanged.UTC(),
	}
	if rec.SnoozeUntil != nil {
		t := rec.SnoozeUntil.UTC()
		m.SnoozeUntil = &t
	}
	return m
}

func (m *Schedule) toDomain() domain.ScheduleRecord {
	rec := domain.ScheduleRecord{
		ID:           m.ID,
		Day:          time.Weekday(m.Day),
		ScheduleTime: m.ScheduleTime,
		Timezone:     m.Timezone,
		Enabled:      m.Enabled,
		LastChanged:  m.LastChanged.UTC(),
	}
	if m.SnoozeUntil != nil {
		t := m.SnoozeUntil.UTC()
		rec.SnoozeUntil = &t
	}
	if m.OriginalScheduleTime != nil {
		s := *m.OriginalScheduleTime
		rec.OriginalScheduleTime = &s
	}
	return rec
}
