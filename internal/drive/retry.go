package drive

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/logging"
)

// RetryPolicy bounds retries of rate-limited and transport failures.
// Every other failure is returned after the first attempt.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy returns 4 attempts with exponential backoff from
// 500ms, capped at 10s per wait and 30s overall.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsed:      30 * time.Second,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// call runs fn under the client's rate limiter and retry policy, inside a
// drive.<operation> span, and records the outcome. Errors are returned as *Error.
func call[T any](ctx context.Context, c *Client, operation string, fileID string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := instrumentation.StartDriveSpan(ctx,
		operation,
		instrumentation.NewSpanAttributeBuilder().WithFileID(fileID).Build()...,
	)
	defer span.End()

	logger := logging.WithOperation(c.logger, "drive."+operation)
	start := time.Now()
	attempts := 0

	op := func() (T, error) {
		attempts++
		var zero T

		if err := c.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(classify(err))
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		derr := classify(err)
		if derr.Kind == KindRateLimit {
			c.limiter.RecordRateLimitError(retryAfter(err))
		}
		if !derr.Kind.Retryable() || ctx.Err() != nil {
			return zero, backoff.Permanent(derr)
		}
		return zero, derr
	}

	maxTries := c.retry.MaxAttempts
	if maxTries < 1 {
		maxTries = 1
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(c.retry.backOff()),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			kind := Classify(err)
			c.metrics.RecordDriveRetry(ctx, operation, kind.String())
			logger.Debug("retrying drive call",
				logging.Attempt(attempts),
				logging.Kind(kind.String()),
				logging.Err(err),
				"wait", wait,
			)
		}),
	}
	if c.retry.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.retry.MaxElapsed))
	}

	v, err := backoff.Retry(ctx, op, opts...)

	span.SetAttributes(instrumentation.AttemptsAttr(attempts))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		derr := classify(err)

		instrumentation.SetSpanError(span, derr)
		span.SetAttributes(instrumentation.ErrorKindAttr(derr.Kind.String()))
		c.metrics.RecordDriveAPIOperation(ctx, operation, instrumentation.StatusError, derr.Kind.String(), time.Since(start))
		logger.Debug("drive call failed",
			logging.FileID(fileID),
			logging.Attempt(attempts),
			logging.Kind(derr.Kind.String()),
			logging.Err(derr),
		)

		var zero T
		return zero, derr
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDriveAPIOperation(ctx, operation, instrumentation.StatusSuccess, "", time.Since(start))
	return v, nil
}
