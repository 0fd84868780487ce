// Package schedule holds the weekday publish schedule rules: snooze modes,
// snooze reversion and the publish decision. Everything here is pure; the
// caller supplies the current instant and persists the results.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the stored time-of-day format.
const TimeLayout = "15:04"

// Weekdays lists the days in record order, Sunday first.
var Weekdays = []time.Weekday{
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
}

// ParseWeekday accepts English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	for _, d := range Weekdays {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ReferenceTime converts a local "HH:MM" in loc to the stored UTC "HH:MM",
// using the offset that applies on now's local date.
func ReferenceTime(local string, loc *time.Location, now time.Time) (string, error) {
	h, m, err := ParseClock(local)
	if err != nil {
		return "", err
	}
	d := now.In(loc)
	at := time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc)
	return at.UTC().Format(TimeLayout), nil
}

// LocalTime converts a stored UTC "HH:MM" back to loc on now's date.
func LocalTime(reference string, loc *time.Location, now time.Time) (string, error) {
	at, err := occurrence(reference, now.UTC())
	if err != nil {
		return "", err
	}
	return at.In(loc).Format(TimeLayout), nil
}

// occurrence returns reference (UTC "HH:MM") on the UTC date of day.
func occurrence(reference string, day time.Time) (time.Time, error) {
	h, m, err := ParseClock(reference)
	if err != nil {
		return time.Time{}, err
	}
	d := day.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC), nil
}
