package dataset

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
)

const cacheKey = "dataset"

// CachedLoader serves a dataset built by an inner Provider for up to a TTL.
// Concurrent misses share one load. Failed loads are not cached.
type CachedLoader struct {
	inner   Provider
	cache   *cache.Cache
	group   singleflight.Group
	metrics *metrics.DatasetMetrics
}

// NewCachedLoader wraps inner with a TTL cache. A ttl of 0 or less returns
// inner unchanged. m may be nil.
func NewCachedLoader(inner Provider, ttl time.Duration, m *metrics.DatasetMetrics) Provider {
	if ttl <= 0 {
		return inner
	}
	return &CachedLoader{
		inner:   inner,
		// One key; expiry is checked on Get, so no janitor goroutine.
		cache:   cache.New(ttl, 0),
		metrics: m,
	}
}

// Load returns the cached dataset or builds a new one.
func (c *CachedLoader) Load(ctx context.Context) (*Dataset, error) {
	if v, found := c.cache.Get(cacheKey); found {
		c.metrics.IncCacheHit()
		return v.(*Dataset), nil
	}

	v, err, _ := c.group.Do(cacheKey, func() (any, error) {
		ds, err := c.inner.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(cacheKey, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Invalidate drops the cached dataset.
func (c *CachedLoader) Invalidate() {
	c.cache.Delete(cacheKey)
}
