package schedule

import (
	"math"
	"time"

	"meetup_bot/internal/domain"
)

// DefaultWindow pairs with an hourly poll. The publish window is the
// half-open interval (scheduled-window, scheduled+window], so a window of half
// the poll interval admits exactly one poll per scheduled time.
const DefaultWindow = 30 * time.Minute

const (
	ReasonNoSchedule = "no schedule for today"
	ReasonDisabled   = "day disabled"
	ReasonSnoozed    = "snoozed"
	ReasonOutside    = "outside publish window"
	ReasonInWindow   = "within publish window"
)

type Decision struct {
	Publish     bool
	DiffMinutes int
	ScheduledAt time.Time
	Reason      string
}

// ShouldPublish decides whether rec allows publishing at now. The scheduled
// instant is the UTC occurrence of rec.ScheduleTime nearest to now, so
// schedule times that cross midnight UTC behave like any other.
func ShouldPublish(rec *domain.ScheduleRecord, now time.Time, window time.Duration) Decision {
	if rec == nil {
		return Decision{Reason: ReasonNoSchedule}
	}
	if !rec.Enabled {
		return Decision{Reason: ReasonDisabled}
	}

	scheduled, err := nearestOccurrence(rec.ScheduleTime, now)
	if err != nil {
		return Decision{Reason: err.Error()}
	}

	offset := now.Sub(scheduled)
	minutes := int(math.Ceil(absDuration(offset).Minutes()))

	d := Decision{DiffMinutes: minutes, ScheduledAt: scheduled}
	switch {
	case rec.SnoozeUntil != nil && now.Before(*rec.SnoozeUntil):
		d.Reason = ReasonSnoozed
	case offset > -window && offset <= window:
		d.Publish = true
		d.Reason = ReasonInWindow
	default:
		d.Reason = ReasonOutside
	}
	return d
}

func nearestOccurrence(reference string, now time.Time) (time.Time, error) {
	today, err := occurrence(reference, now)
	if err != nil {
		return time.Time{}, err
	}
	best := today
	for _, offset := range []int{-1, 1} {
		c := today.AddDate(0, 0, offset)
		if absDuration(now.Sub(c)) < absDuration(now.Sub(best)) {
			best = c
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
