package domain

import "time"

// UnknownDate is the sentinel OccursAt for events whose start time could not
// be parsed. It sorts before every real event.
var UnknownDate = time.Unix(0, 0).UTC()

type Event struct {
	SourceName  string    `json:"name"`
	OccursAt    time.Time `json:"date"`
	DateUnknown bool      `json:"date_unknown,omitempty"`
	RawDate     string    `json:"raw_date,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	URL         string    `json:"eventUrl"`
}

// RawPayload is an undecoded GraphQL response body.
type RawPayload []byte
