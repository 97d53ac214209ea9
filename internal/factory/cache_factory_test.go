package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/cache"
	"github.com/spamsift/spamsift/internal/config"
)

func TestCreateScoreCacheMemory(t *testing.T) {
	factory := NewCacheFactory(config.NewFromViper(config.NewEmptyViper()), zap.NewNop())

	c, err := factory.CreateScoreCache()
	require.NoError(t, err)

	mem, ok := c.(*cache.MemoryCache)
	require.True(t, ok, "the default backend is the in-memory cache")
	mem.Stop()
}

func TestCreateScoreCacheUnsupportedType(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("cache.type", "memcached")
	factory := NewCacheFactory(config.NewFromViper(v), zap.NewNop())

	_, err := factory.CreateScoreCache()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cache type")
}

func TestCreateScoreCacheBadCleanupFrequency(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("cache.cleanup_frequency", "often")
	factory := NewCacheFactory(config.NewFromViper(v), zap.NewNop())

	_, err := factory.CreateScoreCache()
	assert.Error(t, err)
}

func TestCacheTTLAndEnabled(t *testing.T) {
	factory := NewCacheFactory(config.NewFromViper(config.NewEmptyViper()), zap.NewNop())

	ttl, err := factory.GetCacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
	assert.True(t, factory.IsCacheEnabled())

	v := config.NewEmptyViper()
	v.Set("cache.enabled", false)
	factory = NewCacheFactory(config.NewFromViper(v), zap.NewNop())
	assert.False(t, factory.IsCacheEnabled())
}
