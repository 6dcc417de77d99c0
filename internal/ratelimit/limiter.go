// Package ratelimit paces outgoing API calls with a sliding window, which is
// how Trello counts requests per token.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func New(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string][]time.Time),
	}
}

// Allow records an attempt for key and reports whether it fits in the window.
func (limiter *Limiter) Allow(key string) bool {
	return limiter.reserve(key) == 0
}

// Wait blocks until an attempt for key fits in the window or ctx is done.
func (limiter *Limiter) Wait(ctx context.Context, key string) error {
	for {
		delay := limiter.reserve(key)
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve returns zero and records the attempt when there is room, otherwise
// the time until the oldest attempt leaves the window.
func (limiter *Limiter) reserve(key string) time.Duration {
	now := time.Now()
	cutoff := now.Add(-limiter.window)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	recent := limiter.attempts[key]
	pruned := recent[:0]
	for _, timestamp := range recent {
		if timestamp.After(cutoff) {
			pruned = append(pruned, timestamp)
		}
	}

	if len(pruned) >= limiter.limit {
		limiter.attempts[key] = pruned
		return pruned[0].Sub(cutoff)
	}

	limiter.attempts[key] = append(pruned, now)
	return 0
}
