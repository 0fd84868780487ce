package meetup

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"meetup_bot/internal/domain"
)

const okc = "Oklahoma City"

type NormalizerTestSuite struct {
	suite.Suite
	normalizer *Normalizer
	now        time.Time
}

func (s *NormalizerTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.normalizer = NewNormalizer(DefaultLookahead, logger)

	loc, err := time.LoadLocation("America/Chicago")
	s.Require().NoError(err)
	s.now = time.Date(2025, 1, 6, 12, 0, 0, 0, loc)
}

func TestNormalizerTestSuite(t *testing.T) {
	suite.Run(t, new(NormalizerTestSuite))
}

func (s *NormalizerTestSuite) fixture(name string) domain.RawPayload {
	data, err := os.ReadFile(filepath.Join("testdata", name))
	s.Require().NoError(err)
	return data
}

func (s *NormalizerTestSuite) urls(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.URL)
	}
	return out
}

func (s *NormalizerTestSuite) TestDetectShape() {
	s.Equal(ShapeFederated, DetectShape(s.fixture("federated.json")))
	s.Equal(ShapeGroup, DetectShape(s.fixture("group.json")))
	s.Equal(ShapeEmptyGroup, DetectShape(s.fixture("group_null.json")))
	s.Equal(ShapeUnknown, DetectShape(s.fixture("errors.json")))
	s.Equal(ShapeUnknown, DetectShape(domain.RawPayload(`{"data":{}}`)))
	s.Equal(ShapeUnknown, DetectShape(domain.RawPayload(`not json`)))
}

func (s *NormalizerTestSuite) TestNormalize_Federated() {
	events, err := s.normalizer.Normalize(s.fixture("federated.json"), okc, []string{"36°N", "Bitcoin"}, s.now)
	s.Require().NoError(err)

	s.ElementsMatch([]string{
		"https://www.meetup.com/okcpython/events/1/",
		"https://www.meetup.com/okcjs/events/6/",
	}, s.urls(events))

	for _, e := range events {
		s.Equal(okc, e.City)
		s.NotContains(e.SourceName, "36°N")
		s.NotContains(e.Title, "Bitcoin")
		if !e.DateUnknown {
			s.False(e.OccursAt.After(s.now.Add(DefaultLookahead)))
		}
	}
}

func (s *NormalizerTestSuite) TestNormalize_FederatedFields() {
	events, err := s.normalizer.Normalize(s.fixture("federated.json"), okc, nil, s.now)
	s.Require().NoError(err)

	var python domain.Event
	for _, e := range events {
		if e.URL == "https://www.meetup.com/okcpython/events/1/" {
			python = e
		}
	}
	s.Equal("OKC Python", python.SourceName)
	s.Equal("Monthly Meetup", python.Title)
	s.Equal("desc e1", python.Description)
	s.True(python.OccursAt.Equal(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)))
	s.False(python.DateUnknown)
}

func (s *NormalizerTestSuite) TestNormalize_UnparseableDateKeptAsSentinel() {
	events, err := s.normalizer.Normalize(s.fixture("federated.json"), okc, nil, s.now)
	s.Require().NoError(err)

	var found bool
	for _, e := range events {
		if e.URL == "https://www.meetup.com/okcjs/events/6/" {
			found = true
			s.True(e.DateUnknown)
			s.Equal(domain.UnknownDate, e.OccursAt)
			s.Equal("1-07-21 18:00:00", e.RawDate)
		}
	}
	s.True(found)
}

func (s *NormalizerTestSuite) TestNormalize_Group() {
	events, err := s.normalizer.Normalize(s.fixture("group.json"), okc, nil, s.now)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("OKC FP", events[0].SourceName)
	s.Equal("https://www.meetup.com/okc-fp/events/10/", events[0].URL)
}

func (s *NormalizerTestSuite) TestNormalize_GroupOtherCity() {
	events, err := s.normalizer.Normalize(s.fixture("group.json"), "Tulsa", nil, s.now)
	s.NoError(err)
	s.Empty(events)
}

func (s *NormalizerTestSuite) TestNormalize_EmptyGroup() {
	events, err := s.normalizer.Normalize(s.fixture("group_null.json"), okc, nil, s.now)
	s.NoError(err)
	s.NotNil(events)
	s.Empty(events)
}

func (s *NormalizerTestSuite) TestNormalize_Malformed() {
	_, err := s.normalizer.Normalize(s.fixture("errors.json"), okc, nil, s.now)
	s.ErrorIs(err, domain.ErrMalformedPayload)
	s.ErrorContains(err, "Unauthorized")

	_, err = s.normalizer.Normalize(domain.RawPayload(`{"data":{"self":{"id":"1"}}}`), okc, nil, s.now)
	s.ErrorIs(err, domain.ErrMalformedPayload)

	_, err = s.normalizer.Normalize(domain.RawPayload(`{"data":{"self":{"upcomingEvents":{"edges":"nope"}}}}`), okc, nil, s.now)
	s.ErrorIs(err, domain.ErrMalformedPayload)
}

func (s *NormalizerTestSuite) TestNormalize_EmptyExclusionTermIgnored() {
	events, err := s.normalizer.Normalize(s.fixture("group.json"), okc, []string{""}, s.now)
	s.NoError(err)
	s.Len(events, 1)
}

func (s *NormalizerTestSuite) TestNormalize_ExclusionIsCaseSensitive() {
	events, err := s.normalizer.Normalize(s.fixture("group.json"), okc, []string{"haskell"}, s.now)
	s.NoError(err)
	s.Len(events, 1)

	events, err = s.normalizer.Normalize(s.fixture("group.json"), okc, []string{"Haskell"}, s.now)
	s.NoError(err)
	s.Empty(events)
}

func (s *NormalizerTestSuite) TestParseEventTime() {
	t, ok := ParseEventTime("2025-01-07T18:00-06:00")
	s.True(ok)
	s.True(t.Equal(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)))

	t, ok = ParseEventTime("2025-01-07T18:00:00Z")
	s.True(ok)
	s.True(t.Equal(time.Date(2025, 1, 7, 18, 0, 0, 0, time.UTC)))

	t, ok = ParseEventTime("")
	s.False(ok)
	s.Equal(domain.UnknownDate, t)
}
