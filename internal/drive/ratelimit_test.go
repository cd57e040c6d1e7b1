package drive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Burst(t *testing.T) {
	r := NewRateLimiter(1, 2)

	require.NoError(t, r.Wait(context.Background()))
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, r.Wait(ctx), "burst exhausted")
}

func TestRateLimiter_Cooldown(t *testing.T) {
	r := NewRateLimiter(1000, 10).WithCooldown(50 * time.Millisecond)

	r.RecordRateLimitError(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded, "cool-down blocks requests")

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimiter_KeepsLongerCooldown(t *testing.T) {
	r := NewRateLimiter(1000, 10)

	r.RecordRateLimitError(time.Hour)
	r.RecordRateLimitError(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, time.Until(r.retryAt) > time.Minute)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	r := NewRateLimiter(1000, 10)
	r.RecordRateLimitError(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	r := NewRateLimiter(0, 0)
	assert.Equal(t, DefaultBurst, r.limiter.Burst())
}
