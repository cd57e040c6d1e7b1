package drive

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Drive allows about 10 requests per second per user; stay below it.
const (
	DefaultRequestsPerSecond = 8.0
	DefaultBurst             = 10

	// defaultCooldown applies after a 429 without a Retry-After header.
	defaultCooldown = 2 * time.Second
)

// RateLimiter is a token bucket shared by every call of a Client, with a
// cool-down window after Drive reports rate limiting. Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	cooldown time.Duration
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst < 1 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		cooldown: defaultCooldown,
	}
}

// WithCooldown sets the pause applied after a 429 without Retry-After.
func (r *RateLimiter) WithCooldown(d time.Duration) *RateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldown = d
	return r
}

// Wait blocks until a request may be sent, honouring any cool-down set by
// RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses all requests for d, or the configured
// cool-down when d is zero. An existing longer cool-down is kept.
func (r *RateLimiter) RecordRateLimitError(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d <= 0 {
		d = r.cooldown
	}

	if until := time.Now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}
