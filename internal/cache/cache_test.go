package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(WithSweepInterval(time.Hour))
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	c.Set("k1", "v1", time.Minute, "goplus")

	v, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(string) != "v1" {
		t.Errorf("got %v, want v1", v)
	}

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestCache_LazyExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("k1", "v1", 5*time.Millisecond, "goplus")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k1"); ok {
		t.Error("expected expired entry to miss")
	}

	// Expired entry must have been evicted on access
	c.mu.RLock()
	_, exists := c.entries["k1"]
	c.mu.RUnlock()
	if exists {
		t.Error("expired entry not evicted lazily")
	}
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(t)

	s := c.Stats()
	if s.HitRate != 0 {
		t.Errorf("hit rate with no requests = %f, want 0", s.HitRate)
	}

	c.Set("k1", 1, time.Minute, "goplus")
	c.Get("k1")
	c.Get("k1")
	c.Get("absent")
	c.Get("absent2")

	s = c.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("hits=%d misses=%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("hit rate = %f, want 0.5", s.HitRate)
	}
	if s.Size != 1 {
		t.Errorf("size = %d, want 1", s.Size)
	}
}

func TestCache_HasDoesNotTouchCounters(t *testing.T) {
	c := newTestCache(t)
	c.Set("k1", 1, time.Minute, "goplus")

	if !c.Has("k1") {
		t.Error("expected Has to report entry")
	}
	if c.Has("absent") {
		t.Error("Has reported absent key")
	}

	s := c.Stats()
	if s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Has touched counters: hits=%d misses=%d", s.Hits, s.Misses)
	}
}

func TestCache_InvalidateService(t *testing.T) {
	c := newTestCache(t)

	c.Set("a", 1, time.Minute, "goplus")
	c.Set("b", 2, time.Minute, "goplus")
	c.Set("c", 3, time.Minute, "dexscreener")

	removed := c.InvalidateService("goplus")
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if c.Has("a") || c.Has("b") {
		t.Error("goplus entries survived invalidation")
	}
	if !c.Has("c") {
		t.Error("dexscreener entry removed by goplus invalidation")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := newTestCache(t)

	c.Set("fresh", 1, time.Minute, "goplus")
	c.Set("stale1", 2, time.Millisecond, "goplus")
	c.Set("stale2", 3, time.Millisecond, "dexscreener")
	time.Sleep(10 * time.Millisecond)

	removed := c.Cleanup()
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if !c.Has("fresh") {
		t.Error("fresh entry removed by cleanup")
	}
}

func TestGetOrFetch_FetchesOncePerTTL(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	fetcher := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "fetched", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrFetch(ctx, c, "k1", time.Minute, "goplus", fetcher)
		if err != nil {
			t.Fatalf("GetOrFetch: %v", err)
		}
		if v != "fetched" {
			t.Errorf("got %s, want fetched", v)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("fetcher called %d times, want 1", calls.Load())
	}
}

func TestGetOrFetch_RefetchesAfterExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	fetcher := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v1, _ := GetOrFetch(ctx, c, "k1", 5*time.Millisecond, "goplus", fetcher)
	time.Sleep(20 * time.Millisecond)
	v2, _ := GetOrFetch(ctx, c, "k1", 5*time.Millisecond, "goplus", fetcher)

	if v1 != 1 || v2 != 2 {
		t.Errorf("got %d/%d, want fresh value after expiry", v1, v2)
	}
}

func TestGetOrFetch_ErrorNotCached(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	wantErr := errors.New("provider down")
	_, err := GetOrFetch(ctx, c, "k1", time.Minute, "goplus", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetcher error, got %v", err)
	}

	// Next call must try the fetcher again
	v, err := GetOrFetch(ctx, c, "k1", time.Minute, "goplus", func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil || v != "recovered" {
		t.Errorf("got %s/%v, want recovered", v, err)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n, time.Minute, "goplus")
				c.Get("shared")
				c.Has("shared")
				c.Stats()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Error("expected shared entry to survive concurrent writes")
	}
}

func TestCache_BackgroundSweep(t *testing.T) {
	c := New(WithSweepInterval(10 * time.Millisecond))
	defer c.Close()

	c.Set("stale", 1, time.Millisecond, "goplus")
	time.Sleep(50 * time.Millisecond)

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size != 0 {
		t.Errorf("sweep left %d entries, want 0", size)
	}
}
