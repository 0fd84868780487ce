package service

import (
	"fmt"
	"strings"
	"time"

	"meetup_bot/internal/domain"
)

const (
	digestDateLayout = "Mon 1/2 3:04 pm"
	unknownDateLabel = "TBD"
)

// FormatEvent renders one digest line in Slack mrkdwn.
func FormatEvent(e domain.Event, loc *time.Location) string {
	date := unknownDateLabel
	if !e.DateUnknown {
		date = e.OccursAt.In(loc).Format(digestDateLayout)
	}
	return fmt.Sprintf("• %s *%s* <%s|%s>", date, e.SourceName, e.URL, e.Title)
}

// FormatDigest renders events one per line in the given order.
func FormatDigest(events []domain.Event, loc *time.Location) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, FormatEvent(e, loc))
	}
	return strings.Join(lines, "\n")
}
