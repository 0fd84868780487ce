package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun"

	"meetup_bot/internal/config"
	"meetup_bot/internal/domain"
	"meetup_bot/internal/service"
)

type SQLiteStoreSuite struct {
	suite.Suite
	ctx       context.Context
	db        *bun.DB
	store     *ScheduleStore
	txManager *TransactionManager
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := Open(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(CreateSchema(s.ctx, db))
	s.Require().NoError(CreateSchema(s.ctx, db), "schema creation is idempotent")

	s.db = db
	s.store = NewScheduleStore(db)
	s.txManager = NewTransactionManager(db)
}

func (s *SQLiteStoreSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) newRecord(day time.Weekday) *domain.ScheduleRecord {
	return &domain.ScheduleRecord{
		Day:          day,
		ScheduleTime: "15:00",
		Timezone:     "America/Chicago",
		Enabled:      true,
		LastChanged:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *SQLiteStoreSuite) TestInsert_IdempotentOnDay() {
	rec := s.newRecord(time.Monday)

	inserted, err := s.store.Insert(s.ctx, rec)
	s.Require().NoError(err)
	s.True(inserted)
	s.Greater(rec.ID, int64(0))

	again := s.newRecord(time.Monday)
	again.ScheduleTime = "10:00"
	inserted, err = s.store.Insert(s.ctx, again)
	s.Require().NoError(err)
	s.False(inserted)

	got, err := s.store.Get(s.ctx, time.Monday)
	s.Require().NoError(err)
	s.Equal("15:00", got.ScheduleTime)
	s.True(got.LastChanged.Equal(rec.LastChanged))
}

func (s *SQLiteStoreSuite) TestGet_NotFound() {
	_, err := s.store.Get(s.ctx, time.Sunday)
	s.ErrorIs(err, domain.ErrScheduleNotFound)

	err = s.store.Update(s.ctx, s.newRecord(time.Sunday))
	s.ErrorIs(err, domain.ErrScheduleNotFound)
}

func (s *SQLiteStoreSuite) TestUpdate_SnoozeRoundTrip() {
	rec := s.newRecord(time.Tuesday)
	_, err := s.store.Insert(s.ctx, rec)
	s.Require().NoError(err)

	until := time.Date(2025, 1, 7, 15, 5, 0, 0, time.UTC)
	original := "15:00"
	rec.ScheduleTime = "15:05"
	rec.SnoozeUntil = &until
	rec.OriginalScheduleTime = &original
	s.Require().NoError(s.store.Update(s.ctx, rec))

	snoozed, err := s.store.ListSnoozed(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(snoozed, 1)
	s.Require().NotNil(snoozed[0].SnoozeUntil)
	s.True(until.Equal(*snoozed[0].SnoozeUntil))
	s.Equal("15:00", *snoozed[0].OriginalScheduleTime)
	s.Equal("15:05", snoozed[0].ScheduleTime)

	rec.SnoozeUntil = nil
	rec.OriginalScheduleTime = nil
	rec.ScheduleTime = original
	s.Require().NoError(s.store.Update(s.ctx, rec))

	snoozed, err = s.store.ListSnoozed(s.ctx)
	s.Require().NoError(err)
	s.Empty(snoozed)
}

func (s *SQLiteStoreSuite) TestList_Ordered() {
	for _, day := range []time.Weekday{time.Saturday, time.Sunday, time.Wednesday} {
		_, err := s.store.Insert(s.ctx, s.newRecord(day))
		s.Require().NoError(err)
	}

	records, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal([]time.Weekday{time.Sunday, time.Wednesday, time.Saturday},
		[]time.Weekday{records[0].Day, records[1].Day, records[2].Day})
}

func (s *SQLiteStoreSuite) TestTransaction_Rollback() {
	errBoom := errors.New("boom")

	err := s.txManager.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.Insert(ctx, s.newRecord(time.Friday)); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	_, err = s.store.Get(s.ctx, time.Friday)
	s.ErrorIs(err, domain.ErrScheduleNotFound)
}

func (s *SQLiteStoreSuite) newService() *service.ScheduleService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc, err := service.NewScheduleService(s.store, s.txManager, nil, logger, config.ScheduleConfig{
		Timezone:   "America/Chicago",
		LocalTime:  "09:00",
		ActiveDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Window:     30 * time.Minute,
	})
	s.Require().NoError(err)
	return svc
}

func (s *SQLiteStoreSuite) TestScheduleService_Lifecycle() {
	svc := s.newService()
	monday := time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)

	changed, err := svc.InitializeWeek(s.ctx, monday)
	s.Require().NoError(err)
	s.Equal(7, changed)

	before, err := svc.Get(s.ctx, time.Monday)
	s.Require().NoError(err)

	changed, err = svc.InitializeWeek(s.ctx, monday.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(0, changed)

	after, err := svc.Get(s.ctx, time.Monday)
	s.Require().NoError(err)
	s.True(before.LastChanged.Equal(after.LastChanged))

	check, err := svc.Check(s.ctx, monday)
	s.Require().NoError(err)
	s.True(check.Publish)

	_, err = svc.Snooze(s.ctx, time.Monday, "bogus", monday)
	s.ErrorIs(err, domain.ErrInvalidDuration)
	unchanged, err := svc.Get(s.ctx, time.Monday)
	s.Require().NoError(err)
	s.Equal(after, unchanged)

	snoozed, err := svc.Snooze(s.ctx, time.Monday, "5_minutes", monday)
	s.Require().NoError(err)
	s.Equal("15:05", snoozed.ScheduleTime)
	s.True(after.LastChanged.Equal(snoozed.LastChanged))

	check, err = svc.Check(s.ctx, monday.Add(time.Minute))
	s.Require().NoError(err)
	s.False(check.Publish)

	check, err = svc.Check(s.ctx, monday.Add(6*time.Minute))
	s.Require().NoError(err)
	s.True(check.Publish)

	restored, err := svc.Get(s.ctx, time.Monday)
	s.Require().NoError(err)
	s.Equal("15:00", restored.ScheduleTime)
	s.Nil(restored.SnoozeUntil)
	s.Nil(restored.OriginalScheduleTime)

	records, err := svc.List(s.ctx, monday)
	s.Require().NoError(err)
	s.Len(records, 7)
	s.False(records[0].Enabled)
	s.True(records[1].Enabled)
}
