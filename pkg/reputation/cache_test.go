package reputation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestScoreCacheInProcessOnly(t *testing.T) {
	cache, err := NewScoreCache(nil, 16, time.Minute, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	cache.Set(ctx, 7, 42)
	score, ok := cache.Get(ctx, 7)
	assert.True(t, ok)
	assert.Equal(t, int64(42), score)

	require.NoError(t, cache.Invalidate(ctx, 7))
	_, ok = cache.Get(ctx, 7)
	assert.False(t, ok)
}

func TestScoreCacheRedisLevel(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	writer, err := NewScoreCache(client, 16, time.Minute, nil)
	require.NoError(t, err)
	// A second cache over the same Redis simulates another process: its
	// in-process level is cold, so the hit must come from Redis.
	reader, err := NewScoreCache(client, 16, time.Minute, nil)
	require.NoError(t, err)

	writer.Set(ctx, 7, 42)

	score, ok := reader.Get(ctx, 7)
	assert.True(t, ok)
	assert.Equal(t, int64(42), score)
}

func TestScoreCacheInvalidateReachesRedis(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	writer, err := NewScoreCache(client, 16, time.Minute, nil)
	require.NoError(t, err)
	reader, err := NewScoreCache(client, 16, time.Minute, nil)
	require.NoError(t, err)

	writer.Set(ctx, 7, 42)
	require.NoError(t, writer.Invalidate(ctx, 7))

	_, ok := reader.Get(ctx, 7)
	assert.False(t, ok)
}

func TestScoreCacheDropsCorruptEntry(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewScoreCache(client, 16, time.Minute, nil)
	require.NoError(t, err)

	require.NoError(t, client.Set(ctx, scoreKey(7), "not a number", 0).Err())

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	// The corrupt key was deleted, not left to fail forever.
	err = client.Get(ctx, scoreKey(7)).Err()
	assert.Equal(t, redis.Nil, err)
}

func TestScoreCacheRedisTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	writer, err := NewScoreCache(client, 16, time.Second, nil)
	require.NoError(t, err)
	reader, err := NewScoreCache(client, 16, time.Second, nil)
	require.NoError(t, err)

	writer.Set(ctx, 7, 42)
	mr.FastForward(2 * time.Second)

	_, ok := reader.Get(ctx, 7)
	assert.False(t, ok)
}
