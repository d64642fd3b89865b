package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/rowsync/rowsync/errors"
)

// CallFunc is one attempt of a remote operation.
type CallFunc func(ctx context.Context) error

// Controller composes a retry strategy and a rate-limit strategy around
// remote calls. Every outbound request in the module flows through a single
// shared Controller so the rate limit is enforced globally, including across
// retries.
type Controller struct {
	retry   RetryStrategy
	limiter RateLimitStrategy
	clock   *Clock
	logger  *slog.Logger
}

// NewController creates a Controller. A nil clock defaults to the system
// clock; a nil logger defaults to slog.Default().
func NewController(retry RetryStrategy, limiter RateLimitStrategy, clock *Clock, logger *slog.Logger) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		retry:   retry,
		limiter: limiter,
		clock:   clock,
		logger:  logger,
	}
}

// Execute runs call under the controller's rate-limit and retry policies.
//
// Each attempt (including retries) first blocks on the rate limiter. Errors
// that are not transient propagate immediately; transient errors are retried
// per the strategy. When retries are exhausted the last error is wrapped in
// an *errors.ExhaustedError carrying the attempt count and elapsed time.
func (c *Controller) Execute(ctx context.Context, op string, call CallFunc) error {
	start := c.clock.Now()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.WaitIfNeeded(ctx); err != nil {
			return err
		}

		err := call(ctx)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("call recovered after retry",
					"op", op,
					"attempts", attempt+1)
			}
			return nil
		}

		if !errors.IsTransient(err) {
			return err
		}

		elapsed := c.clock.Now().Sub(start)
		if !c.retry.ShouldRetry(attempt, elapsed) {
			c.logger.Error("retries exhausted",
				"op", op,
				"attempts", attempt+1,
				"elapsed", elapsed,
				"error", err)
			return &errors.ExhaustedError{
				Attempts: attempt + 1,
				Elapsed:  elapsed,
				Err:      err,
			}
		}

		delay := c.retry.Delay(attempt)
		c.logger.Warn("transient failure, will retry",
			"op", op,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// NewRetryStrategy builds a RetryStrategy from policy names and knobs.
// Unknown policies fall back to exponential backoff.
func NewRetryStrategy(policy string, initialDelay time.Duration, multiplier float64, increment time.Duration, maxRetries int, maxWaitTime time.Duration) RetryStrategy {
	cfg := RetryConfig{
		InitialDelay: initialDelay,
		MaxRetries:   maxRetries,
		MaxWaitTime:  maxWaitTime,
	}
	switch policy {
	case "linear_growth":
		return NewLinearGrowth(cfg, increment)
	case "fixed_wait":
		return NewFixedWait(cfg)
	default:
		return NewExponentialBackoff(cfg, multiplier)
	}
}

// NewRateLimitStrategy builds a RateLimitStrategy from policy names and
// knobs. Unknown policies fall back to the fixed-wait limiter.
func NewRateLimitStrategy(policy string, delay, window time.Duration, maxRequests int, clock *Clock) RateLimitStrategy {
	switch policy {
	case "sliding_window":
		return NewSlidingWindowLimiter(window, maxRequests, clock)
	case "fixed_window":
		return NewFixedWindowLimiter(window, maxRequests, clock)
	default:
		return NewFixedWaitLimiter(delay, clock)
	}
}
