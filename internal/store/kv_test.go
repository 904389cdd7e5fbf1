package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func TestRedisKV_GetSetDel(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "history:c1:a", `[{"kind":"sleep"}]`, time.Minute))
	val, err := kv.Get(ctx, "history:c1:a")
	require.NoError(t, err)
	assert.Contains(t, val, "sleep")

	require.NoError(t, kv.Del(ctx, "history:c1:a"))
	_, err = kv.Get(ctx, "history:c1:a")
	assert.ErrorIs(t, err, ErrMiss)

	// deleting nothing is a no-op
	require.NoError(t, kv.Del(ctx))
}

func TestRedisKV_TTLExpires(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_ScanKeys(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "history:c1:a", "1", 0))
	require.NoError(t, kv.Set(ctx, "history:c1:b", "2", 0))
	require.NoError(t, kv.Set(ctx, "history:c2:a", "3", 0))

	keys, err := kv.ScanKeys(ctx, "history:c1:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
