package domain

import "time"

type ScheduleState string

const (
	StateActive   ScheduleState = "active"
	StateSnoozed  ScheduleState = "snoozed"
	StateDisabled ScheduleState = "disabled"
)

// ScheduleRecord is the publish schedule of one weekday. ScheduleTime is an
// "HH:MM" time of day in UTC. SnoozeUntil and OriginalScheduleTime are either
// both set or both nil.
type ScheduleRecord struct {
	ID                   int64
	Day                  time.Weekday
	ScheduleTime         string
	Timezone             string
	Enabled              bool
	SnoozeUntil          *time.Time
	OriginalScheduleTime *string
	LastChanged          time.Time // moves only when Enabled or Timezone change
}

func (r *ScheduleRecord) Snoozed() bool {
	return r.SnoozeUntil != nil
}

// State reports the record state at now. An expired snooze that has not been
// reverted yet still counts as active.
func (r *ScheduleRecord) State(now time.Time) ScheduleState {
	switch {
	case !r.Enabled:
		return StateDisabled
	case r.SnoozeUntil != nil && now.Before(*r.SnoozeUntil):
		return StateSnoozed
	default:
		return StateActive
	}
}

// Clone returns a deep copy so pointer fields can be mutated independently.
func (r ScheduleRecord) Clone() ScheduleRecord {
	c := r
	if r.SnoozeUntil != nil {
		t := *r.SnoozeUntil
		c.SnoozeUntil = &t
	}
	if r.OriginalScheduleTime != nil {
		s := *r.OriginalScheduleTime
		c.OriginalScheduleTime = &s
	}
	return c
}

// CheckResult is the outcome of a schedule check.
type CheckResult struct {
	Day         time.Weekday
	Publish     bool
	Reason      string
	DiffMinutes int
	ScheduledAt time.Time
	Now         time.Time
	Timezone    string
	Record      *ScheduleRecord
}
