package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestlog-reconcile/internal/domain"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestSleepStoreQuery_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	start := from.Add(19 * time.Hour)
	end := start.Add(90 * time.Minute)

	rows := sqlmock.NewRows([]string{"start_time", "end_time"}).
		AddRow(start, end)

	mock.ExpectQuery(`SELECT start_time, end_time`).
		WithArgs(childID, from, to).
		WillReturnRows(rows)

	store := NewPostgresSleepStore(db)
	records, err := store.Query(ctx, childID, from, to)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindSleep, records[0].Kind)
	assert.Equal(t, start, records[0].StartTime)
	require.NotNil(t, records[0].EndTime)
	assert.Equal(t, end, *records[0].EndTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepStoreQuery_MissingChildID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresSleepStore(db)
	records, err := store.Query(context.Background(), "", time.Now(), time.Now())

	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "child_id is required")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepStoreAppend_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	start := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	mock.ExpectExec(`INSERT INTO sleep_records`).
		WithArgs(sqlmock.AnyArg(), childID, start, end, "nap").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgresSleepStore(db)
	id, err := store.Append(ctx, domain.SleepRecord{
		ChildID:   childID,
		StartTime: start,
		EndTime:   end,
		Details:   "nap",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepStoreAppend_DBError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	childID := uuid.New().String()
	start := time.Now()

	mock.ExpectExec(`INSERT INTO sleep_records`).
		WithArgs(sqlmock.AnyArg(), childID, start, start.Add(time.Hour), "").
		WillReturnError(fmt.Errorf("connection reset"))

	store := NewPostgresSleepStore(db)
	id, err := store.Append(context.Background(), domain.SleepRecord{
		ChildID:   childID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})

	assert.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "failed to append sleep record")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedStoreQuery_QuantityText(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"start_time", "feed_type", "amount", "amount_unit", "duration_minutes"}).
		AddRow(from.Add(9*time.Hour), "bottle", 4.0, "ounce", 0.0).
		AddRow(from.Add(13*time.Hour), "nursing", 0.0, "", 15.0)

	mock.ExpectQuery(`SELECT start_time, feed_type`).
		WithArgs(childID, from, to).
		WillReturnRows(rows)

	store := NewPostgresFeedStore(db)
	records, err := store.Query(ctx, childID, from, to)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.KindFeed, records[0].Kind)
	assert.Equal(t, "4 oz", records[0].QuantityText)
	assert.Equal(t, "15 min", records[1].QuantityText)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedStoreAppend_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	start := time.Date(2025, 3, 1, 21, 15, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO feed_records`).
		WithArgs(sqlmock.AnyArg(), childID, start, "bottle", 4.0, "ounce", 0.0, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgresFeedStore(db)
	id, err := store.Append(ctx, domain.FeedRecord{
		ChildID:    childID,
		StartTime:  start,
		FeedType:   domain.FeedBottle,
		Amount:     4,
		AmountUnit: domain.UnitOunce,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaperStoreQuery_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	start := from.Add(22 * time.Hour)

	rows := sqlmock.NewRows([]string{"start_time"}).AddRow(start)

	mock.ExpectQuery(`SELECT start_time`).
		WithArgs(childID, from, to).
		WillReturnRows(rows)

	store := NewPostgresDiaperStore(db)
	records, err := store.Query(ctx, childID, from, to)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindDiaper, records[0].Kind)
	assert.Equal(t, start, records[0].StartTime)
	assert.Nil(t, records[0].EndTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaperStoreAppend_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	start := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO diaper_records`).
		WithArgs(sqlmock.AnyArg(), childID, start, "wet", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgresDiaperStore(db)
	id, err := store.Append(ctx, domain.DiaperRecord{
		ChildID:    childID,
		StartTime:  start,
		DiaperType: domain.DiaperWet,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityStoreQuery_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	start := from.Add(10 * time.Hour)

	rows := sqlmock.NewRows([]string{"start_time", "quantity_text"}).
		AddRow(start, "20 min")

	mock.ExpectQuery(`SELECT start_time, COALESCE`).
		WithArgs(childID, from, to).
		WillReturnRows(rows)

	store := NewPostgresActivityStore(db)
	records, err := store.Query(ctx, childID, from, to)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindActivity, records[0].Kind)
	assert.Equal(t, "20 min", records[0].QuantityText)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityStoreAppend_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	ctx := context.Background()
	childID := uuid.New().String()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO activity_records`).
		WithArgs(sqlmock.AnyArg(), childID, start, "tummy time", "20 min").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgresActivityStore(db)
	id, err := store.Append(ctx, domain.ActivityRecord{
		ChildID:      childID,
		StartTime:    start,
		Details:      "tummy time",
		QuantityText: "20 min",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}
