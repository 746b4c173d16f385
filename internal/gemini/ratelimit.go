package gemini

import (
	"context"
	"sync"
	"time"
)

// TokenBucket limits outbound API calls to capacity requests per interval.
// The bucket refills completely once per interval rather than trickling,
// matching the quota accounting of the Gemini free tier.
//
// One bucket is shared by every enrichment call in the process.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     int
	interval   time.Duration
	lastRefill time.Time
}

func NewTokenBucket(capacity int, interval time.Duration) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		interval:   interval,
		lastRefill: time.Now(),
	}
}

// Acquire blocks until a token is available or ctx is done. The lock is
// held only while checking and decrementing the counter, never across a
// wait, so an empty bucket suspends only the calling goroutine.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		if now.Sub(b.lastRefill) >= b.interval {
			b.tokens = b.capacity
			b.lastRefill = now
		}
		if b.tokens > 0 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := b.interval - now.Sub(b.lastRefill)
		b.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// Available returns the current token count after applying any due refill.
func (b *TokenBucket) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Since(b.lastRefill) >= b.interval {
		b.tokens = b.capacity
		b.lastRefill = time.Now()
	}
	return b.tokens
}
