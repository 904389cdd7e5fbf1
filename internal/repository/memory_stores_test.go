package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestlog-reconcile/internal/domain"
)

func TestMemorySleepStore_QueryWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySleepStore()
	childID := uuid.New().String()
	otherChild := uuid.New().String()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	append := func(child string, start time.Time) {
		_, err := store.Append(ctx, domain.SleepRecord{
			ChildID:   child,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		})
		require.NoError(t, err)
	}

	append(childID, from.Add(20*time.Hour)) // inside, appended out of order
	append(childID, from)                   // window start is inclusive
	append(childID, to)                     // window end is exclusive
	append(childID, from.Add(-time.Minute)) // before window
	append(otherChild, from.Add(time.Hour)) // other child

	records, err := store.Query(ctx, childID, from, to)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, from, records[0].StartTime)
	assert.Equal(t, from.Add(20*time.Hour), records[1].StartTime)
	require.NotNil(t, records[0].EndTime)
}

func TestMemoryFeedStore_QuantityText(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFeedStore()
	childID := uuid.New().String()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Append(ctx, domain.FeedRecord{
		ChildID:    childID,
		StartTime:  start,
		FeedType:   domain.FeedBottle,
		Amount:     4,
		AmountUnit: domain.UnitOunce,
	})
	require.NoError(t, err)

	_, err = store.Append(ctx, domain.FeedRecord{
		ChildID:         childID,
		StartTime:       start.Add(3 * time.Hour),
		FeedType:        domain.FeedNursing,
		DurationMinutes: 15,
	})
	require.NoError(t, err)

	records, err := store.Query(ctx, childID, start.Add(-time.Hour), start.Add(12*time.Hour))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "4 oz", records[0].QuantityText)
	assert.Equal(t, "15 min", records[1].QuantityText)
}

func TestMemoryStores_RequireChildID(t *testing.T) {
	ctx := context.Background()

	_, err := NewMemoryDiaperStore().Query(ctx, "", time.Now(), time.Now())
	assert.Error(t, err)

	_, err = NewMemoryActivityStore().Append(ctx, domain.ActivityRecord{StartTime: time.Now()})
	assert.Error(t, err)
}

func TestMemoryPendingReports_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPendingReportsRepo()
	childID := uuid.New().String()
	otherChild := uuid.New().String()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, child := range []string{childID, otherChild, childID} {
		err := repo.Insert(ctx, domain.PendingReport{
			ID:          uuid.New().String(),
			ChildID:     child,
			ContentType: "text/plain",
			SourceRef:   "blob",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.After(all[2].CreatedAt))

	filtered, err := repo.List(ctx, childID)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, report := range filtered {
		assert.Equal(t, childID, report.ChildID)
	}
}

func TestMemoryPendingReports_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPendingReportsRepo()
	id := uuid.New().String()

	err := repo.Insert(ctx, domain.PendingReport{
		ID:        id,
		ChildID:   uuid.New().String(),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	report, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, report)

	require.NoError(t, repo.Delete(ctx, id))

	report, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, report)

	// deleting twice is fine
	require.NoError(t, repo.Delete(ctx, id))
}
