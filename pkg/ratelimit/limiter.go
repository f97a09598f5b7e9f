package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tweetscraper/pkg/retry"
)

// Limiter defines the interface for client-side request pacing
type Limiter interface {
	// Allow reports whether a request may be sent now and records it if so
	Allow() bool
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
	// Reset clears the limiter state
	Reset()
}

// New builds the limiter named by strategy. The "none" strategy, or an
// empty one, returns a nil Limiter.
func New(strategy string, requests int, window time.Duration) (Limiter, error) {
	switch strings.ToLower(strategy) {
	case "", "none":
		return nil, nil
	case "token_bucket":
		if requests <= 0 || window <= 0 {
			return nil, fmt.Errorf("token bucket needs positive requests and window, got %d per %s", requests, window)
		}
		return NewTokenBucket(requests, window), nil
	case "sliding_window":
		if requests <= 0 || window <= 0 {
			return nil, fmt.Errorf("sliding window needs positive requests and window, got %d per %s", requests, window)
		}
		return NewSlidingWindow(requests, window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", strategy)
	}
}

// TokenBucket holds up to capacity tokens and regains one every
// refillPeriod/capacity
type TokenBucket struct {
	capacity     int
	refillPeriod time.Duration
	limiter      *rate.Limiter
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a token bucket that starts full
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	tb := &TokenBucket{
		capacity:     capacity,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
	tb.limiter = tb.newLimiter()
	return tb
}

func (tb *TokenBucket) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(tb.refillPeriod/time.Duration(tb.capacity)), tb.capacity)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	return tb.limiter.AllowN(tb.now(), 1)
}

// Wait blocks until a token is available. A wait that cannot finish
// before the ctx deadline fails with context.DeadlineExceeded.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	tb.mu.Lock()
	limiter := tb.limiter
	tb.mu.Unlock()

	err := limiter.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}
	return err
}

// Reset refills the bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.limiter = tb.newLimiter()
}

// SlidingWindow allows at most maxRequests within any window of windowSize
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until the oldest request leaves the window
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		var delay time.Duration
		sw.mu.Lock()
		if len(sw.requests) > 0 {
			delay = sw.windowSize - sw.now().Sub(sw.requests[0])
		}
		sw.mu.Unlock()

		if err := retry.Wait(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests drops timestamps that fell out of the window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}
