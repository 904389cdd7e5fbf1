package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGetRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "report-1", []byte("7pm nap, woke 8:30pm")))

	data, err := s.Get(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, "7pm nap, woke 8:30pm", string(data))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "report-1", []byte("payload")))

	// a fresh store over the same directory simulates a process restart
	s2, err := NewFSStore(dir)
	require.NoError(t, err)
	data, err := s2.Get(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	ids, err := s2.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"report-1"}, ids)
}

func TestFSStore_DeleteIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "report-1", []byte("x")))
	require.NoError(t, s.Delete(ctx, "report-1"))
	require.NoError(t, s.Delete(ctx, "report-1"))

	_, err = s.Get(ctx, "report-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_RejectsPathLikeIDs(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.Put(ctx, "../escape", []byte("x")), ErrBadID)
	assert.ErrorIs(t, s.Put(ctx, "", []byte("x")), ErrBadID)
	_, err = s.Get(ctx, "a/b")
	assert.ErrorIs(t, err, ErrBadID)
}

func TestMemStore_RoundtripAndIsolation(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	payload := []byte("bytes")
	require.NoError(t, s.Put(ctx, "r1", payload))
	payload[0] = 'X'

	data, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data), "stored bytes are copied, not aliased")

	require.NoError(t, s.Delete(ctx, "r1"))
	_, err = s.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}
