package memory

import (
	"time"

	"github.com/yndnr/seqlink-go/pkg/cmap"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry is past its lifetime at now. A
// non-positive ttl never expires.
func (e entry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

// Cache is a concurrent TTL map with lazy expiry.
type Cache[K comparable, V any] struct {
	items *cmap.Map[K, entry[V]]
	now   func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	shards int
	now    func() time.Time
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *cacheConfig) {
		c.now = now
	}
}

// WithShards sets the shard count (a power of two).
func WithShards(n int) CacheOption {
	return func(c *cacheConfig) {
		c.shards = n
	}
}

// NewCache creates an empty cache.
func NewCache[K comparable, V any](opts ...CacheOption) *Cache[K, V] {
	cfg := cacheConfig{shards: cmap.DefaultShardCount, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		items: cmap.New[K, entry[V]](cmap.WithShardCount(cfg.shards)),
		now:   cfg.now,
	}
}

// Store upserts value under key and restarts its lifetime.
func (c *Cache[K, V]) Store(key K, value V, ttl time.Duration) {
	c.items.Set(key, entry[V]{value: value, createdAt: c.now(), ttl: ttl})
}

// Get returns the live value for key. An expired entry is removed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	now := c.now()
	e, ok := c.items.Compute(key, func(cur entry[V], exists bool) (entry[V], cmap.Action) {
		if !exists {
			return cur, cmap.Keep
		}
		if cur.expired(now) {
			return entry[V]{}, cmap.Remove
		}
		return cur, cmap.Keep
	})
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Take returns the live value for key and removes it, so at most one caller
// observes each stored value.
func (c *Cache[K, V]) Take(key K) (V, bool) {
	now := c.now()
	var (
		out   V
		found bool
	)
	c.items.Compute(key, func(cur entry[V], exists bool) (entry[V], cmap.Action) {
		if !exists {
			return cur, cmap.Keep
		}
		if !cur.expired(now) {
			out, found = cur.value, true
		}
		return entry[V]{}, cmap.Remove
	})
	return out, found
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.items.Delete(key)
}

// Len returns the number of entries held, including expired entries that
// have not been looked up since they expired.
func (c *Cache[K, V]) Len() int {
	return c.items.Count()
}

// Purge removes every expired entry and reports how many were dropped.
// It is an explicit maintenance call, not a background sweep.
func (c *Cache[K, V]) Purge() int {
	now := c.now()
	return c.items.RemoveIf(func(_ K, e entry[V]) bool {
		return e.expired(now)
	})
}
