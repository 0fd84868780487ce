package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"meetup_bot/internal/domain"
)

type ScheduleTestSuite struct {
	suite.Suite
	chicago *time.Location
	monday  domain.ScheduleRecord
}

func (s *ScheduleTestSuite) SetupTest() {
	loc, err := time.LoadLocation("America/Chicago")
	s.Require().NoError(err)
	s.chicago = loc

	s.monday = domain.ScheduleRecord{
		Day:          time.Monday,
		ScheduleTime: "10:00",
		Timezone:     "UTC",
		Enabled:      true,
	}
}

func TestScheduleTestSuite(t *testing.T) {
	suite.Run(t, new(ScheduleTestSuite))
}

func (s *ScheduleTestSuite) TestParseMode() {
	for _, m := range []string{"5_minutes", "next_scheduled", "rest_of_week"} {
		mode, err := ParseMode(m)
		s.NoError(err)
		s.Equal(m, string(mode))
	}

	_, err := ParseMode("bogus")
	s.ErrorIs(err, domain.ErrInvalidDuration)

	_, err = ParseMode("5_Minutes")
	s.ErrorIs(err, domain.ErrInvalidDuration)
}

func (s *ScheduleTestSuite) TestSnooze_FiveMinutes() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeFiveMinutes, now, time.UTC)
	s.Require().NoError(err)

	s.Require().NotNil(rec.SnoozeUntil)
	s.Require().NotNil(rec.OriginalScheduleTime)
	s.WithinRange(*rec.SnoozeUntil,
		time.Date(2025, 1, 6, 10, 4, 50, 0, time.UTC),
		time.Date(2025, 1, 6, 10, 5, 10, 0, time.UTC),
	)
	s.Equal("10:05", rec.ScheduleTime)
	s.Equal("10:00", *rec.OriginalScheduleTime)

	// input is untouched
	s.Nil(s.monday.SnoozeUntil)
	s.Equal("10:00", s.monday.ScheduleTime)
}

func (s *ScheduleTestSuite) TestSnooze_NextScheduled_BeforeToday() {
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeNextScheduled, now, time.UTC)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
	s.Equal("10:00", rec.ScheduleTime)
	s.Equal("10:00", *rec.OriginalScheduleTime)
}

func (s *ScheduleTestSuite) TestSnooze_NextScheduled_AfterToday() {
	now := time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeNextScheduled, now, time.UTC)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
	s.Equal("10:00", rec.ScheduleTime)
}

func (s *ScheduleTestSuite) TestSnooze_NextScheduled_UTCDateAheadOfLocal() {
	// 02:00 UTC is 20:00 the previous evening in Chicago; snoozed at 21:00 CST.
	rec := s.monday
	rec.ScheduleTime = "02:00"
	rec.Timezone = "America/Chicago"
	now := time.Date(2025, 1, 6, 21, 0, 0, 0, s.chicago)

	out, err := Snooze(rec, ModeNextScheduled, now, s.chicago)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 8, 2, 0, 0, 0, time.UTC), *out.SnoozeUntil)
	s.True(out.SnoozeUntil.After(now))

	_, reverted := Revert(out, now)
	s.False(reverted)
}

func (s *ScheduleTestSuite) TestSnooze_NextScheduled_AtScheduledInstantMovesToTomorrow() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeNextScheduled, now, time.UTC)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
}

func (s *ScheduleTestSuite) TestSnooze_RestOfWeek_Monday() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeRestOfWeek, now, time.UTC)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
	s.Equal(time.Sunday, rec.SnoozeUntil.Weekday())
	s.Equal("10:00", rec.ScheduleTime)
}

func (s *ScheduleTestSuite) TestSnooze_RestOfWeek_LocalMidnight() {
	// 04:00 CST on Monday
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeRestOfWeek, now, s.chicago)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 12, 6, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
	s.Equal(time.UTC, rec.SnoozeUntil.Location())
}

func (s *ScheduleTestSuite) TestSnooze_RestOfWeek_OnSundayTargetsNextSunday() {
	now := time.Date(2025, 1, 12, 15, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, ModeRestOfWeek, now, time.UTC)
	s.Require().NoError(err)

	s.Equal(time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), *rec.SnoozeUntil)
}

func (s *ScheduleTestSuite) TestSnooze_InvalidModeLeavesRecord() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	rec, err := Snooze(s.monday, Mode("bogus"), now, time.UTC)
	s.ErrorIs(err, domain.ErrInvalidDuration)
	s.Equal(s.monday, rec)
}

func (s *ScheduleTestSuite) TestSnooze_ResnoozeKeepsOriginal() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	first, err := Snooze(s.monday, ModeFiveMinutes, now, time.UTC)
	s.Require().NoError(err)
	s.Equal("10:05", first.ScheduleTime)

	second, err := Snooze(first, ModeFiveMinutes, now.Add(5*time.Minute), time.UTC)
	s.Require().NoError(err)

	s.Equal("10:10", second.ScheduleTime)
	s.Equal("10:00", *second.OriginalScheduleTime)
}

func (s *ScheduleTestSuite) TestRevert() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	snoozed, err := Snooze(s.monday, ModeFiveMinutes, now, time.UTC)
	s.Require().NoError(err)

	rec, changed := Revert(snoozed, now.Add(4*time.Minute))
	s.False(changed)
	s.NotNil(rec.SnoozeUntil)

	rec, changed = Revert(snoozed, *snoozed.SnoozeUntil)
	s.True(changed)
	s.Nil(rec.SnoozeUntil)
	s.Nil(rec.OriginalScheduleTime)
	s.Equal("10:00", rec.ScheduleTime)

	_, changed = Revert(s.monday, now)
	s.False(changed)
}

func (s *ScheduleTestSuite) TestShouldPublish() {
	rec := s.monday
	rec.ScheduleTime = "14:00"
	day := func(h, m, sec int) time.Time { return time.Date(2025, 1, 6, h, m, sec, 0, time.UTC) }

	tests := []struct {
		name    string
		now     time.Time
		publish bool
		diff    int
	}{
		{"exact", day(14, 0, 0), true, 0},
		{"before", day(13, 31, 0), true, 29},
		{"opening edge excluded", day(13, 30, 0), false, 30},
		{"rounds up", day(14, 0, 30), true, 1},
		{"closing edge included", day(14, 30, 0), true, 30},
		{"just outside", day(14, 30, 1), false, 31},
		{"hour before", day(13, 0, 0), false, 60},
		{"far away", day(18, 0, 0), false, 240},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			d := ShouldPublish(&rec, tt.now, DefaultWindow)
			s.Equal(tt.publish, d.Publish)
			s.Equal(tt.diff, d.DiffMinutes)
		})
	}
}

func (s *ScheduleTestSuite) TestShouldPublish_AcrossMidnight() {
	rec := s.monday
	rec.ScheduleTime = "00:10"

	d := ShouldPublish(&rec, time.Date(2025, 1, 6, 23, 50, 0, 0, time.UTC), DefaultWindow)
	s.True(d.Publish)
	s.Equal(20, d.DiffMinutes)
	s.Equal(time.Date(2025, 1, 7, 0, 10, 0, 0, time.UTC), d.ScheduledAt)
}

func (s *ScheduleTestSuite) TestShouldPublish_OneHourlyPollPerDay() {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	for _, at := range []string{"15:00", "14:30", "00:00", "23:59", "09:17"} {
		s.Run(at, func() {
			rec := s.monday
			rec.ScheduleTime = at

			var hits []string
			for h := 0; h < 24; h++ {
				poll := start.Add(time.Duration(h) * time.Hour)
				if ShouldPublish(&rec, poll, DefaultWindow).Publish {
					hits = append(hits, poll.Format(TimeLayout))
				}
			}
			s.Len(hits, 1, "publishing polls: %v", hits)
		})
	}
}

func (s *ScheduleTestSuite) TestShouldPublish_DisabledSnoozedMissing() {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	disabled := s.monday
	disabled.Enabled = false
	s.False(ShouldPublish(&disabled, now, DefaultWindow).Publish)
	s.Equal(ReasonDisabled, ShouldPublish(&disabled, now, DefaultWindow).Reason)

	s.False(ShouldPublish(nil, now, DefaultWindow).Publish)

	snoozed, err := Snooze(s.monday, ModeNextScheduled, now.Add(-time.Hour), time.UTC)
	s.Require().NoError(err)
	d := ShouldPublish(&snoozed, now.Add(-30*time.Minute), DefaultWindow)
	s.False(d.Publish)
	s.Equal(ReasonSnoozed, d.Reason)
}

func (s *ScheduleTestSuite) TestReferenceTime() {
	winter := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2025, 7, 7, 12, 0, 0, 0, time.UTC)

	ref, err := ReferenceTime("09:00", s.chicago, winter)
	s.NoError(err)
	s.Equal("15:00", ref)

	ref, err = ReferenceTime("09:00", s.chicago, summer)
	s.NoError(err)
	s.Equal("14:00", ref)

	local, err := LocalTime("15:00", s.chicago, winter)
	s.NoError(err)
	s.Equal("09:00", local)

	_, err = ReferenceTime("9am", s.chicago, winter)
	s.Error(err)
}

func (s *ScheduleTestSuite) TestParseWeekday() {
	d, err := ParseWeekday("monday")
	s.NoError(err)
	s.Equal(time.Monday, d)

	_, err = ParseWeekday("Funday")
	s.Error(err)
}
