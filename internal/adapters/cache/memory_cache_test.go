package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
)

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func entryWithTTL(key string, probability float64, ttl time.Duration) *core.ScoreEntry {
	now := time.Now()
	return &core.ScoreEntry{
		Key:         key,
		Probability: probability,
		ScoredAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("k1", 0.83, time.Hour)))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.Key)
	assert.InDelta(t, 0.83, got.Probability, 1e-12)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := newTestMemoryCache(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("stale", 0.5, -time.Minute)))

	_, err := c.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("gone", 0.5, time.Hour)))
	require.NoError(t, c.Delete(ctx, "gone"))

	_, err := c.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "never-there"))
}

func TestMemoryCacheCleanup(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("fresh", 0.6, time.Hour)))
	require.NoError(t, c.Set(ctx, entryWithTTL("expired", 0.4, -time.Minute)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "expired")
	assert.ErrorIs(t, err, ErrNotFound, "cleanup must drop the expired entry entirely")
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("k", 0.2, time.Hour)))
	require.NoError(t, c.Set(ctx, entryWithTTL("k", 0.9, time.Hour)))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Probability, 1e-12)
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryWithTTL("k", 0.5, time.Hour)))

	first, err := c.Get(ctx, "k")
	require.NoError(t, err)
	first.Probability = 0.99

	second, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, second.Probability, 1e-12, "callers must not mutate cached state")
}

func TestMemoryCacheStopIdempotent(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	c.Stop()
	c.Stop()
}
