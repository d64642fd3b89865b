package rowsync

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rowsync/rowsync/rowtypes"
)

// Option configures the client.
type Option = rowtypes.Option

// WithBaseURL sets the grid API endpoint. Required.
func WithBaseURL(u string) Option {
	return func(c *rowtypes.ClientConfig) {
		c.BaseURL = u
	}
}

// WithAuthToken sets the bearer token presented on every request. Required.
func WithAuthToken(token string) Option {
	return func(c *rowtypes.ClientConfig) {
		c.AuthToken = token
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *rowtypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 60s.
func WithTimeout(d time.Duration) Option {
	return func(c *rowtypes.ClientConfig) {
		c.Timeout = d
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *rowtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithRetryPolicy selects the retry strategy. Defaults to exponential
// backoff.
func WithRetryPolicy(p rowtypes.RetryPolicy) Option {
	return func(c *rowtypes.ClientConfig) {
		c.RetryPolicy = p
	}
}

// WithInitialDelay sets the delay before the first retry. Defaults to 1s.
func WithInitialDelay(d time.Duration) Option {
	return func(c *rowtypes.ClientConfig) {
		c.InitialDelay = d
	}
}

// WithMultiplier sets the exponential growth factor. Defaults to 2.
func WithMultiplier(m float64) Option {
	return func(c *rowtypes.ClientConfig) {
		c.Multiplier = m
	}
}

// WithIncrement sets the per-attempt delay growth for linear retry.
func WithIncrement(d time.Duration) Option {
	return func(c *rowtypes.ClientConfig) {
		c.Increment = d
	}
}

// WithMaxRetries caps retries per request. Defaults to 3.
func WithMaxRetries(n int) Option {
	return func(c *rowtypes.ClientConfig) {
		c.MaxRetries = n
	}
}

// WithMaxWaitTime caps any single retry delay and bounds a retry loop's
// total elapsed time. Zero disables the elapsed-time bound.
func WithMaxWaitTime(d time.Duration) Option {
	return func(c *rowtypes.ClientConfig) {
		c.MaxWaitTime = d
	}
}

// WithRatePolicy selects the rate-limit strategy. Defaults to a fixed
// minimum interval between calls.
func WithRatePolicy(p rowtypes.RatePolicy) Option {
	return func(c *rowtypes.ClientConfig) {
		c.RatePolicy = p
	}
}

// WithRateLimitDelay sets the minimum interval between calls for the
// fixed-wait rate policy. Defaults to 200ms.
func WithRateLimitDelay(d time.Duration) Option {
	return func(c *rowtypes.ClientConfig) {
		c.RateLimitDelay = d
	}
}

// WithRateWindow sets the window length and per-window call budget for the
// sliding-window and fixed-window rate policies.
func WithRateWindow(window time.Duration, maxRequests int) Option {
	return func(c *rowtypes.ClientConfig) {
		c.WindowSize = window
		c.MaxRequests = maxRequests
	}
}

// WithBatchSize sets the default upper bound on rows per write call.
// Operations are further capped at the service's documented per-call limits.
func WithBatchSize(n int) Option {
	return func(c *rowtypes.ClientConfig) {
		c.BatchSize = n
	}
}

// SyncOption configures a single sync run.
type SyncOption = rowtypes.SyncOption

// WithPolicy selects the reconciliation policy. Defaults to PolicyFull.
func WithPolicy(p Policy) SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.Policy = p
	}
}

// WithIndexColumn designates the column whose values match local rows to
// remote records.
func WithIndexColumn(col string) SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.IndexColumn = col
	}
}

// WithSyncBatchSize overrides the client's batch size for this run.
func WithSyncBatchSize(n int) SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.BatchSize = n
	}
}

// WithDryRun plans the run without dispatching anything. The plan is
// returned on the result for inspection.
func WithDryRun() SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.DryRun = true
	}
}

// WithCreateMissingFields creates remote columns the table is missing
// before rows are written.
func WithCreateMissingFields() SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.CreateMissingFields = true
	}
}

// WithFieldHints overrides the remote field type chosen for created
// columns, keyed by column name.
func WithFieldHints(hints map[string]int) SyncOption {
	return func(c *rowtypes.SyncOptionConfig) {
		c.FieldHints = hints
	}
}
