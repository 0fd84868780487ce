package meetup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"meetup_bot/internal/domain"
)

// DefaultLookahead is how far ahead events are kept.
const DefaultLookahead = 7 * 24 * time.Hour

// Shape identifies which query produced a payload.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeFederated
	ShapeGroup
	ShapeEmptyGroup
)

func (s Shape) String() string {
	switch s {
	case ShapeFederated:
		return "federated"
	case ShapeGroup:
		return "group"
	case ShapeEmptyGroup:
		return "empty_group"
	default:
		return "unknown"
	}
}

// DetectShape inspects the payload without decoding it. A null
// groupByUrlname means the group does not exist or is private.
func DetectShape(payload domain.RawPayload) Shape {
	if !gjson.ValidBytes(payload) {
		return ShapeUnknown
	}
	if gjson.GetBytes(payload, "data.self").IsObject() {
		return ShapeFederated
	}
	group := gjson.GetBytes(payload, "data.groupByUrlname")
	switch {
	case group.IsObject():
		return ShapeGroup
	case group.Exists() && group.Type == gjson.Null:
		return ShapeEmptyGroup
	}
	return ShapeUnknown
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseEventTime parses Meetup dateTime values, which omit seconds.
func ParseEventTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return domain.UnknownDate, false
}

// Normalizer maps payloads of either shape to filtered events.
type Normalizer struct {
	lookahead time.Duration
	logger    *slog.Logger
}

func NewNormalizer(lookahead time.Duration, logger *slog.Logger) *Normalizer {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Normalizer{
		lookahead: lookahead,
		logger:    logger.With("component", "normalizer"),
	}
}

// Normalize returns the events of payload located in location, not matching
// any exclusion term and starting between now and now+lookahead. Events with
// unparseable dates are kept with the UnknownDate sentinel. Output order is
// unspecified.
func (n *Normalizer) Normalize(payload domain.RawPayload, location string, exclusions []string, now time.Time) ([]domain.Event, error) {
	shape := DetectShape(payload)

	switch shape {
	case ShapeEmptyGroup:
		n.logger.Warn("skipping group due to empty response")
		return []domain.Event{}, nil
	case ShapeUnknown:
		return nil, malformed(payload)
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrMalformedPayload, err)
	}

	var (
		conn         *EventConnection
		fallbackName string
		fallbackCity string
	)
	if shape == ShapeFederated {
		conn = resp.Data.Self.UpcomingEvents
	} else {
		g := resp.Data.GroupByURLName
		conn = g.UpcomingEvents
		fallbackName = g.Name
		fallbackCity = g.City
		if g.City != location {
			n.logger.Debug("group outside location", "group", g.URLName, "city", g.City, "location", location)
		}
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s payload without upcomingEvents", domain.ErrMalformedPayload, shape)
	}

	cutoff := now.Add(n.lookahead)
	events := make([]domain.Event, 0, len(conn.Edges))

	for _, edge := range conn.Edges {
		if edge.Node == nil {
			continue
		}
		ev := n.toEvent(edge.Node, fallbackName, fallbackCity)

		if ev.City != location {
			n.logger.Debug("skipping event outside location",
				"url", ev.URL,
				"city", ev.City,
				"location", location,
			)
			continue
		}
		if term, ok := excluded(ev, exclusions); ok {
			n.logger.Debug("skipping excluded event", "url", ev.URL, "term", term)
			continue
		}
		if !ev.DateUnknown && (ev.OccursAt.After(cutoff) || ev.OccursAt.Before(now)) {
			continue
		}

		events = append(events, ev)
	}

	return events, nil
}

func (n *Normalizer) toEvent(node *EventNode, fallbackName, fallbackCity string) domain.Event {
	name := node.Group.Name
	if name == "" {
		name = fallbackName
	}
	city := node.Group.City
	if city == "" {
		city = fallbackCity
	}

	occursAt, ok := ParseEventTime(node.DateTime)
	if !ok {
		n.logger.Warn("failed to parse event date",
			"url", node.EventURL,
			"date", node.DateTime,
		)
	}

	return domain.Event{
		SourceName:  name,
		OccursAt:    occursAt,
		DateUnknown: !ok,
		RawDate:     node.DateTime,
		Title:       node.Title,
		Description: node.Description,
		City:        city,
		URL:         node.EventURL,
	}
}

// excluded matches terms as case-sensitive substrings of the group name or
// the title. Empty terms never match.
func excluded(ev domain.Event, terms []string) (string, bool) {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(ev.SourceName, term) || strings.Contains(ev.Title, term) {
			return term, true
		}
	}
	return "", false
}

func malformed(payload domain.RawPayload) error {
	if msgs := gjson.GetBytes(payload, "errors.#.message"); msgs.IsArray() && len(msgs.Array()) > 0 {
		parts := make([]string, 0, len(msgs.Array()))
		for _, m := range msgs.Array() {
			parts = append(parts, m.String())
		}
		return fmt.Errorf("%w: %s", domain.ErrMalformedPayload, strings.Join(parts, "; "))
	}
	return fmt.Errorf("%w: unrecognized response shape", domain.ErrMalformedPayload)
}
