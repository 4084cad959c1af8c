// Package cache provides a TTL-keyed response cache for provider data,
// with hit/miss statistics and a periodic expiry sweep.
package cache

import (
	"context"
	"sync"
	"time"

	"token-risk-engine/internal/observability"
)

// TTLs by data class.
const (
	TTLTokenSecurity = 5 * time.Minute
	TTLTokenMetrics  = 30 * time.Second
	TTLHolderData    = 5 * time.Minute
	TTLPoolData      = 1 * time.Minute
	TTLTrending      = 2 * time.Minute
	TTLSearch        = 30 * time.Second
)

// DefaultSweepInterval is how often the background sweep removes expired entries.
const DefaultSweepInterval = 5 * time.Minute

// entry is a cached value with its expiry. Owned exclusively by the cache.
type entry struct {
	data      any
	expiresAt time.Time
	service   string
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Size    int
	HitRate float64
}

// Cache is a process-wide TTL cache. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    uint64
	misses  uint64

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	sweepInterval time.Duration
}

// WithSweepInterval overrides the background sweep interval.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// New creates a cache and starts its background sweep.
// Close must be called to stop the sweep goroutine.
func New(opts ...Option) *Cache {
	o := options{sweepInterval: DefaultSweepInterval}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.sweepLoop(o.sweepInterval)

	return c
}

// Close stops the background sweep.
func (c *Cache) Close() {
	close(c.done)
	c.wg.Wait()
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Get returns the cached value for key. Expired entries are evicted lazily
// and count as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return e.data, true
}

// Set stores data under key with the given TTL, tagged by service name.
func (c *Cache) Set(key string, data any, ttl time.Duration, service string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
		service:   service,
	}
}

// Has reports whether a non-expired entry exists. Does not touch counters.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !time.Now().After(e.expiresAt)
}

// Delete removes the entry for key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateService removes all entries tagged with service.
// Returns the number of entries removed.
func (c *Cache) InvalidateService(service string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.service == service {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Cleanup removes all expired entries regardless of access.
// Returns the number of entries removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of cache counters.
// HitRate is 0 when no requests have been made yet.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// GetOrFetch returns the cached value for key, invoking fetcher on a miss
// and caching the result.
//
// Not atomic across concurrent callers: two simultaneous misses for the same
// key may both invoke fetcher. Duplicate upstream work is accepted; stale
// data after expiry is not.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, service string, fetcher func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			observability.RecordCacheHit(service)
			return typed, nil
		}
	}
	observability.RecordCacheMiss(service)

	var zero T
	v, err := fetcher(ctx)
	if err != nil {
		return zero, err
	}

	c.Set(key, v, ttl, service)
	return v, nil
}
