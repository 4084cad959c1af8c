// Package ratelimit provides a fixed-window per-service call budget for
// outbound provider requests.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"token-risk-engine/internal/observability"
)

// Service names used as limiter keys.
const (
	ServiceGoPlus        = "goplus"
	ServiceDexscreener   = "dexscreener"
	ServiceHelius        = "helius"
	ServiceAlchemy       = "alchemy"
	ServiceGeckoTerminal = "geckoterminal"
)

// DefaultBudgets are the per-service call budgets in calls per minute.
var DefaultBudgets = map[string]int{
	ServiceGoPlus:        60,
	ServiceDexscreener:   300,
	ServiceHelius:        100,
	ServiceAlchemy:       330,
	ServiceGeckoTerminal: 30,
}

// Window is the fixed-window length. The window starts at the first call
// for a service and resets when now passes resetAt, not on a rolling basis.
// Burstiness at window boundaries is an accepted approximation.
const Window = time.Minute

// DefaultSweepInterval is how often expired windows are removed,
// bounding memory to the number of distinct services.
const DefaultSweepInterval = 5 * time.Minute

// Error reports an exhausted provider budget. It is a distinct error kind
// from provider/network failures and must reach the caller so it can back off.
type Error struct {
	Service    string
	RetryAfter int // seconds, rounded up
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %ds", e.Service, e.RetryAfter)
}

// Result of a limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks one fixed window per service. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter and starts its expired-window sweep.
// Close must be called to stop the sweep goroutine.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.sweepLoop(DefaultSweepInterval)

	return l
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	close(l.done)
	l.wg.Wait()
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep removes windows whose reset time has passed.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for service, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, service)
		}
	}
}

// Check consumes one call from the service's window if budget remains.
func (l *Limiter) Check(service string, maxPerMinute int) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[service]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(Window)}
		l.windows[service] = w
	}

	if w.count >= maxPerMinute {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.resetAt.Sub(now),
		}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: maxPerMinute - w.count,
	}
}

// Allow is like Check but returns a *Error when the budget is exhausted.
func (l *Limiter) Allow(service string, maxPerMinute int) error {
	res := l.Check(service, maxPerMinute)
	if res.Allowed {
		return nil
	}

	observability.RecordRateLimited(service)

	retryAfter := int(res.RetryAfter / time.Second)
	if res.RetryAfter%time.Second != 0 || retryAfter == 0 {
		retryAfter++
	}
	return &Error{Service: service, RetryAfter: retryAfter}
}
