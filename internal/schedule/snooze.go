package schedule

import (
	"fmt"
	"time"

	"meetup_bot/internal/domain"
)

type Mode string

const (
	ModeFiveMinutes   Mode = "5_minutes"
	ModeNextScheduled Mode = "next_scheduled"
	ModeRestOfWeek    Mode = "rest_of_week"
)

// Modes lists every accepted snooze mode.
var Modes = []Mode{ModeFiveMinutes, ModeNextScheduled, ModeRestOfWeek}

// ParseMode validates a snooze mode literal.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidDuration, s)
}

// Snooze returns a copy of rec suppressed according to mode. local is the
// zone whose calendar defines "rest of week". Re-snoozing keeps the first
// restorable schedule time.
func Snooze(rec domain.ScheduleRecord, mode Mode, now time.Time, local *time.Location) (domain.ScheduleRecord, error) {
	out := rec.Clone()
	now = now.UTC()

	var until time.Time
	newTime := rec.ScheduleTime

	switch mode {
	case ModeFiveMinutes:
		until = now.Add(5 * time.Minute)
		newTime = until.Format(TimeLayout)
	case ModeNextScheduled:
		next, err := occurrence(rec.ScheduleTime, now)
		if err != nil {
			return rec, err
		}
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		until = next
	case ModeRestOfWeek:
		d := now.In(local)
		days := (7 - int(d.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		until = time.Date(d.Year(), d.Month(), d.Day()+days, 0, 0, 0, 0, local).UTC()
	default:
		return rec, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, mode)
	}

	if out.OriginalScheduleTime == nil {
		original := rec.ScheduleTime
		out.OriginalScheduleTime = &original
	}
	out.SnoozeUntil = &until
	out.ScheduleTime = newTime
	return out, nil
}

// Revert restores an expired snooze. The second result reports whether rec
// changed.
func Revert(rec domain.ScheduleRecord, now time.Time) (domain.ScheduleRecord, bool) {
	if rec.SnoozeUntil == nil || now.UTC().Before(rec.SnoozeUntil.UTC()) {
		return rec, false
	}
	out := rec.Clone()
	if out.OriginalScheduleTime != nil {
		out.ScheduleTime = *out.OriginalScheduleTime
	}
	out.SnoozeUntil = nil
	out.OriginalScheduleTime = nil
	return out, true
}
