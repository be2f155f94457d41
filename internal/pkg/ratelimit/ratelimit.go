package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter keyed by client.
type RateLimiter struct {
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	mu       sync.Mutex
	now      func() time.Time
}

// New allows limit requests per key in every window. A limit of zero or
// less disables limiting.
func New(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Enabled reports whether the limiter rejects anything at all.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// valid drops timestamps outside the window. Caller holds mu.
func (rl *RateLimiter) valid(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var kept []time.Time
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow records a request for key and reports whether it is within the limit.
// It also returns the remaining quota and when the oldest request expires.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	if !rl.Enabled() {
		return true, 0, time.Time{}
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	kept := rl.valid(key, now)

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false, 0, resetAt(kept, now, rl.window)
	}

	kept = append(kept, now)
	rl.requests[key] = kept
	return true, rl.limit - len(kept), resetAt(kept, now, rl.window)
}

func resetAt(kept []time.Time, now time.Time, window time.Duration) time.Time {
	if len(kept) == 0 {
		return now
	}
	return kept[0].Add(window)
}

// Cleanup removes expired entries.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key := range rl.requests {
		if kept := rl.valid(key, now); len(kept) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = kept
		}
	}
}

// Keys returns the number of tracked clients.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
