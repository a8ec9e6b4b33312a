package cache

import (
	"context"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements Cache using github.com/patrickmn/go-cache. It
// is the process-local tier sitting in front of the Redis tier: a
// best-effort cache per spec §9 ("Cache is advisory") — every query must
// be correct without it.
type InMemoryCache struct {
	cache *goCache.Cache
}

var globalCache *InMemoryCache

// NewInMemoryCache constructs the process-local cache tier.
func NewInMemoryCache() Cache {
	if globalCache == nil {
		globalCache = &InMemoryCache{cache: goCache.New(DefaultExpiration, DefaultCleanupInterval)}
	}
	return globalCache
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}

func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}
