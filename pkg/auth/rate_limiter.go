package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether a keyed request may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter allows at most limit requests per key within any
// window of the configured size. State is per process.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
	lastSweep  time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records the request when it fits in the window
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.windowSize)
	l.sweep(now, cutoff)

	requests := l.windows[key]
	kept := requests[:0]
	for _, at := range requests {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.windows[key] = kept
		return false, nil
	}
	l.windows[key] = append(kept, now)
	return true, nil
}

// Reset forgets every request of key
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// sweep drops idle keys at most once per window
func (l *SlidingWindowLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < l.windowSize {
		return
	}
	l.lastSweep = now
	for key, requests := range l.windows {
		if len(requests) == 0 || !requests[len(requests)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}

// KeyedLimiter namespaces keys on a shared limiter, e.g. "ip:" or "user:"
type KeyedLimiter struct {
	prefix  string
	limiter RateLimiter
}

// NewIPRateLimiter limits requests per client IP per minute
func NewIPRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return &KeyedLimiter{prefix: "ip:", limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

// NewUserRateLimiter limits requests per user per minute
func NewUserRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return &KeyedLimiter{prefix: "user:", limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

// Allow checks the namespaced key
func (l *KeyedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+key)
}
