package stream

import (
	"context"
	"testing"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nestlog-reconcile/internal/domain"
)

func TestReader_FetchAndAck(t *testing.T) {
	ctx := context.Background()
	publisher, client, _ := newTestPublisher(t)

	publisher.PublishCommitted(ctx, "child-1", []domain.CommitOutcome{
		{EventID: "evt-1", Kind: domain.KindSleep, Reference: "sleep-ref-1"},
		{EventID: "evt-2", Kind: domain.KindFeed, Reference: "feed-ref-1"},
		{EventID: "evt-3", Kind: domain.KindDiaper, Reference: "diaper-ref-1"},
	})

	reader, err := NewReader(ctx, client, "stats", "stats-1", zap.NewNop())
	require.NoError(t, err)

	// count caps one batch; the rest arrives on the next call
	events, ids, err := reader.Fetch(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Len(t, ids, 2)
	assert.Equal(t, "evt-1", events[0].EventID)
	assert.Equal(t, domain.KindSleep, events[0].Kind)
	assert.Equal(t, "child-1", events[0].ChildID)
	assert.Equal(t, "evt-2", events[1].EventID)

	rest, restIDs, err := reader.Fetch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "evt-3", rest[0].EventID)

	require.NoError(t, reader.Ack(ctx, ids...))
	require.NoError(t, reader.Ack(ctx, restIDs...))

	pending, err := client.XPending(ctx, StreamCommittedEvents, "stats").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestNewReader_GroupCreationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	publisher, client, _ := newTestPublisher(t)

	publisher.PublishCommitted(ctx, "child-1", []domain.CommitOutcome{
		{EventID: "evt-1", Kind: domain.KindSleep, Reference: "ref"},
	})

	_, err := NewReader(ctx, client, "stats", "stats-1", zap.NewNop())
	require.NoError(t, err)
	_, err = NewReader(ctx, client, "stats", "stats-2", zap.NewNop())
	require.NoError(t, err)
}

func TestReader_UndecodableEntryAckedAndSkipped(t *testing.T) {
	ctx := context.Background()
	publisher, client, _ := newTestPublisher(t)

	// a payload that never came from the publisher
	_, err := client.XAdd(ctx, &goredis.XAddArgs{
		Stream: StreamCommittedEvents,
		Values: map[string]interface{}{"data": "not json"},
	}).Result()
	require.NoError(t, err)

	publisher.PublishCommitted(ctx, "child-1", []domain.CommitOutcome{
		{EventID: "evt-1", Kind: domain.KindActivity, Reference: "activity-ref-1"},
	})

	reader, err := NewReader(ctx, client, "stats", "stats-1", zap.NewNop())
	require.NoError(t, err)

	events, ids, err := reader.Fetch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, ids, 1)
	assert.Equal(t, "evt-1", events[0].EventID)

	// the poison entry is already acked; only the good one stays pending
	pending, err := client.XPending(ctx, StreamCommittedEvents, "stats").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}
