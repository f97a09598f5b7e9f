package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// maxShift bounds the exponent so Unit<<attempt cannot overflow
const maxShift = 62

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay to wait after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff waits Unit*2^attempt plus a uniform jitter in [0, Jitter)
type ExponentialBackoff struct {
	// Unit is the base time unit; attempt n waits Unit*2^n before jitter
	Unit time.Duration
	// Jitter is the exclusive upper bound of the random addition
	Jitter time.Duration
	// MaxDelay caps the deterministic part of the delay (0 means no cap)
	MaxDelay time.Duration
	// Rand returns a float in [0, 1); nil uses math/rand
	Rand func() float64
}

// DefaultExponentialBackoff returns 2^n seconds plus up to one second of jitter
func DefaultExponentialBackoff() *ExponentialBackoff {
	return NewExponentialBackoff(time.Second, 0)
}

// NewExponentialBackoff returns a backoff whose jitter spans one unit
func NewExponentialBackoff(unit, maxDelay time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{
		Unit:     unit,
		Jitter:   unit,
		MaxDelay: maxDelay,
	}
}

// BaseDelay returns the deterministic component Unit*2^attempt, capped at MaxDelay
func (eb *ExponentialBackoff) BaseDelay(attempt int) time.Duration {
	if attempt <= 0 || eb.Unit <= 0 {
		return 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}

	multiplier := int64(1) << attempt
	var delay time.Duration
	if int64(eb.Unit) > math.MaxInt64/multiplier {
		delay = time.Duration(math.MaxInt64)
	} else {
		delay = eb.Unit * time.Duration(multiplier)
	}

	if eb.MaxDelay > 0 && delay > eb.MaxDelay {
		delay = eb.MaxDelay
	}
	return delay
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := eb.BaseDelay(attempt)
	if eb.Jitter > 0 {
		random := rand.Float64
		if eb.Rand != nil {
			random = eb.Rand
		}
		jitter := time.Duration(random() * float64(eb.Jitter))
		if delay > time.Duration(math.MaxInt64)-jitter {
			return time.Duration(math.MaxInt64)
		}
		delay += jitter
	}

	return delay
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
