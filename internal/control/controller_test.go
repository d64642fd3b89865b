package control

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowsync/rowsync/errors"
)

// noopLimiter admits every call immediately.
type noopLimiter struct{ waits int }

func (l *noopLimiter) CanProceed() bool { return true }

func (l *noopLimiter) WaitIfNeeded(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func (l *noopLimiter) Reset() {}

func newTestController(fc *fakeClock, maxRetries int) (*Controller, *noopLimiter) {
	limiter := &noopLimiter{}
	retry := NewFixedWait(RetryConfig{
		InitialDelay: time.Second,
		MaxRetries:   maxRetries,
	})
	return NewController(retry, limiter, fc.clock(), nil), limiter
}

func TestController_Execute(t *testing.T) {
	t.Run("success passes through", func(t *testing.T) {
		fc := newFakeClock()
		c, limiter := newTestController(fc, 3)

		calls := 0
		err := c.Execute(context.Background(), "search", func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, limiter.waits)
	})

	t.Run("transient error retried until success", func(t *testing.T) {
		fc := newFakeClock()
		c, limiter := newTestController(fc, 5)

		calls := 0
		err := c.Execute(context.Background(), "batch_create", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.ErrServerUnavailable
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		// Rate limiting applies to every attempt, retries included.
		assert.Equal(t, 3, limiter.waits)
		assert.Equal(t, 2*time.Second, fc.sleptTotal())
	})

	t.Run("permanent error propagates immediately", func(t *testing.T) {
		fc := newFakeClock()
		c, _ := newTestController(fc, 5)

		calls := 0
		wrapped := errors.NewError("batch_create", errors.ErrValidation)
		err := c.Execute(context.Background(), "batch_create", func(ctx context.Context) error {
			calls++
			return wrapped
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, errors.ErrValidation)
		var exhausted *errors.ExhaustedError
		assert.False(t, stderrors.As(err, &exhausted))
	})

	t.Run("oversized payload is not retried", func(t *testing.T) {
		fc := newFakeClock()
		c, _ := newTestController(fc, 5)

		calls := 0
		err := c.Execute(context.Background(), "batch_create", func(ctx context.Context) error {
			calls++
			return errors.ErrOversizedPayload
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, errors.ErrOversizedPayload)
	})

	t.Run("exhaustion wraps the last error with attempt count", func(t *testing.T) {
		fc := newFakeClock()
		c, _ := newTestController(fc, 2)

		calls := 0
		err := c.Execute(context.Background(), "search", func(ctx context.Context) error {
			calls++
			return fmt.Errorf("attempt %d: %w", calls, errors.ErrRateLimited)
		})

		// Initial attempt plus two retries.
		assert.Equal(t, 3, calls)

		var exhausted *errors.ExhaustedError
		require.True(t, stderrors.As(err, &exhausted))
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, errors.ErrRateLimited)
	})

	t.Run("elapsed time cap stops the loop early", func(t *testing.T) {
		fc := newFakeClock()
		limiter := &noopLimiter{}
		retry := NewFixedWait(RetryConfig{
			InitialDelay: 3 * time.Second,
			MaxRetries:   100,
			MaxWaitTime:  5 * time.Second,
		})
		c := NewController(retry, limiter, fc.clock(), nil)

		calls := 0
		err := c.Execute(context.Background(), "search", func(ctx context.Context) error {
			calls++
			return errors.ErrConnection
		})

		// attempt 0: elapsed 0, retry, sleep 3s.
		// attempt 1: elapsed 3s, retry, sleep 3s (capped single delay unchanged).
		// attempt 2: elapsed 6s >= 5s cap, give up.
		assert.Equal(t, 3, calls)
		var exhausted *errors.ExhaustedError
		require.True(t, stderrors.As(err, &exhausted))
		assert.Equal(t, 3, exhausted.Attempts)
	})

	t.Run("canceled context aborts between attempts", func(t *testing.T) {
		fc := newFakeClock()
		c, _ := newTestController(fc, 5)

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := c.Execute(ctx, "search", func(ctx context.Context) error {
			calls++
			cancel()
			return errors.ErrConnection
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewRetryStrategy(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		want   any
	}{
		{name: "exponential", policy: "exponential_backoff", want: &ExponentialBackoff{}},
		{name: "linear", policy: "linear_growth", want: &LinearGrowth{}},
		{name: "fixed", policy: "fixed_wait", want: &FixedWait{}},
		{name: "unknown falls back to exponential", policy: "bogus", want: &ExponentialBackoff{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRetryStrategy(tt.policy, time.Second, 2.0, time.Second, 3, 0)
			assert.IsType(t, tt.want, got)
		})
	}
}
