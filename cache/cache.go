// Package cache implements C2: a two-tier, TTL-keyed store for rewritten
// manifests and fetched segment bytes, with a single-flight guarantee per
// key.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Kind distinguishes the two CacheKey namespaces spec.md §3 defines.
type Kind string

const (
	KindRaw       Kind = "raw"
	KindRewritten Kind = "rewritten"
)

// segmentEntry pairs segment bytes with an explicit expiry, since tier 2
// is an LRU (bounded by count) rather than a native TTL map.
type segmentEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is the two-tier store. Tier 1 (manifest text, keyed by CacheKey)
// is a native TTL map; tier 2 (segment bytes) is a bounded LRU with a
// lazily-checked expiry per entry, because segments are larger and far
// more numerous than manifests.
type Cache struct {
	namespace string

	tier1 *gocache.Cache
	tier2 *lru.Cache[string, segmentEntry]

	group singleflight.Group
}

// New builds a Cache. segmentSlots bounds tier 2's entry count.
func New(namespace string, segmentSlots int) *Cache {
	tier2, err := lru.New[string, segmentEntry](segmentSlots)
	if err != nil {
		// Only returns an error for a non-positive size; guard with a
		// sane floor instead of propagating a constructor error for a
		// config typo.
		tier2, _ = lru.New[string, segmentEntry](128)
	}

	return &Cache{
		namespace: namespace,
		tier1:     gocache.New(gocache.NoExpiration, time.Minute),
		tier2:     tier2,
	}
}

// Key builds the "{namespace}:{kind}:{upstream_url}" CacheKey (spec §3).
func (c *Cache) Key(kind Kind, upstreamURL string) string {
	return c.namespace + ":" + string(kind) + ":" + upstreamURL
}

// GetManifest returns tier-1 text if present and unexpired.
func (c *Cache) GetManifest(key string) (string, bool) {
	v, ok := c.tier1.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// SetManifest atomically replaces any prior tier-1 entry for key.
func (c *Cache) SetManifest(key string, value string, ttl time.Duration) {
	c.tier1.Set(key, value, ttl)
}

// GetSegment returns tier-2 bytes if present and unexpired; an expired
// entry is treated as absent (spec §4.2 "no background sweeper required
// for correctness").
func (c *Cache) GetSegment(key string) ([]byte, bool) {
	e, ok := c.tier2.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.tier2.Remove(key)
		return nil, false
	}
	return e.value, true
}

// SetSegment atomically replaces any prior tier-2 entry for key.
func (c *Cache) SetSegment(key string, value []byte, ttl time.Duration) {
	c.tier2.Add(key, segmentEntry{value: value, expiresAt: time.Now().Add(ttl)})
}

// GetOrFillManifest implements the required single-flight contract for
// tier 1: concurrent calls for the same key collapse into one filler
// invocation; a failed filler does not poison the cache, so the next
// caller retries (spec §4.2, §7).
func (c *Cache) GetOrFillManifest(ctx context.Context, key string, ttl time.Duration, filler func(context.Context) (string, error)) (string, error) {
	if v, ok := c.GetManifest(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := filler(ctx)
		if err != nil {
			return "", err
		}
		c.SetManifest(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetOrFillSegment is tier 2's equivalent of GetOrFillManifest.
func (c *Cache) GetOrFillSegment(ctx context.Context, key string, ttl time.Duration, filler func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok := c.GetSegment(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := filler(ctx)
		if err != nil {
			return nil, err
		}
		c.SetSegment(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Sweep evicts expired entries from both tiers. Correctness never depends
// on Sweep running (lazy eviction on read already guarantees it); it only
// bounds worst-case memory between reads of cold keys. Driven by C12. The
// returned count covers tier-2 (segment) evictions only; tier 1 is swept
// without being counted.
func (c *Cache) Sweep() (evicted int) {
	c.tier1.DeleteExpired()

	now := time.Now()
	for _, key := range c.tier2.Keys() {
		e, ok := c.tier2.Peek(key)
		if ok && now.After(e.expiresAt) {
			c.tier2.Remove(key)
			evicted++
		}
	}
	return evicted
}

// Len reports the current entry counts of both tiers, for /health.
func (c *Cache) Len() (manifests int, segments int) {
	return c.tier1.ItemCount(), c.tier2.Len()
}
