// Package export writes aggregated events as JSON or iCalendar.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"meetup_bot/internal/domain"
)

const productID = "-//meetup_bot//events//EN"

// WriteJSON writes events as an indented JSON array.
func WriteJSON(w io.Writer, events []domain.Event) error {
	if events == nil {
		events = []domain.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// WriteICS writes events with a known start time as a VCALENDAR named name.
// Event UIDs are derived from the event URL, so re-exports update rather
// than duplicate calendar entries.
func WriteICS(w io.Writer, events []domain.Event, name string, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		if e.DateUnknown {
			continue
		}
		ev := cal.AddEvent(uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.URL)).String())
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.OccursAt.UTC())
		ev.SetSummary(e.SourceName + ": " + e.Title)
		ev.SetDescription(e.Description)
		ev.SetLocation(e.City)
		ev.SetURL(e.URL)
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}
