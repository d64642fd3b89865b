// Package rowtypes provides shared type definitions for the rowsync module.
package rowtypes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Row is one row of the local dataset: a mapping from column name to value.
// Rows are addressable by position within a Dataset.
type Row map[string]any

// Dataset is the local tabular input to a sync run.
type Dataset struct {
	// Columns lists the column names in source order.
	Columns []string

	// Rows holds the data rows in source order.
	Rows []Row
}

// Record is a remote record: an opaque remote-assigned identifier plus a
// mapping from field name to value. Records are created and destroyed only
// by remote write operations.
type Record struct {
	// ID is the remote-assigned record identifier
	ID string `json:"record_id"`

	// Fields maps field names to values
	Fields map[string]any `json:"fields"`
}

// RecordUpdate pairs a local row with the remote record it was matched to.
type RecordUpdate struct {
	// RecordID is the identifier of the matched remote record
	RecordID string

	// Row is the local row whose values replace the record's fields
	Row Row
}

// Policy selects how local rows are reconciled against remote records.
type Policy string

// Reconciliation policies.
const (
	// PolicyFull updates matched rows and creates unmatched ones.
	// Nothing is deleted.
	PolicyFull Policy = "full"

	// PolicyIncremental creates unmatched rows only; matched rows are
	// dropped from the plan entirely.
	PolicyIncremental Policy = "incremental"

	// PolicyOverwrite deletes matched remote records and recreates every
	// local row. Requires an index column.
	PolicyOverwrite Policy = "overwrite"

	// PolicyClone deletes every remote record and creates every local row,
	// ignoring the index column.
	PolicyClone Policy = "clone"
)

// ParsePolicy converts a string to a Policy, validating it.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFull, PolicyIncremental, PolicyOverwrite, PolicyClone:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown sync policy %q", s)
	}
}

// SyncPlan is the create/update/delete partition produced by reconciliation.
//
// Invariant: under Full, Incremental and Overwrite every local row appears in
// exactly one of ToCreate/ToUpdate (Incremental drops matched rows and counts
// them in Skipped). Every record identifier in ToDelete is absent from
// ToUpdate. Row order is preserved from the source dataset.
type SyncPlan struct {
	// ToCreate holds local rows with no matching remote record,
	// in source order.
	ToCreate []Row

	// ToUpdate holds matched rows paired with their remote record IDs,
	// in source order.
	ToUpdate []RecordUpdate

	// ToDelete holds remote record identifiers slated for deletion.
	ToDelete []string

	// Skipped counts matched rows dropped from the plan (Incremental only).
	Skipped int

	// Downgraded reports that Full/Incremental ran without an index column
	// and degraded to a pure-append plan.
	Downgraded bool

	// DuplicateKeys counts local rows whose index key collided with an
	// earlier row in the same dataset.
	DuplicateKeys int
}

// ChunkError describes a failed chunk dispatch with enough detail to locate
// it in the source data.
type ChunkError struct {
	// Op is the write operation ("create", "update", "delete", "append")
	Op string

	// Start and End delimit the half-open range [Start, End) of the chunk
	// within the operation's plan subset, not the source dataset: a create
	// chunk indexes into the plan's ToCreate sequence, an update chunk into
	// ToUpdate, a delete chunk into ToDelete
	Start int
	End   int

	// Message is the failure description
	Message string
}

// SyncResult contains statistics about a completed sync run.
type SyncResult struct {
	// Succeeded reports whether every chunk across all plan subsets
	// was dispatched successfully.
	Succeeded bool

	// RowsCreated is the number of rows sent through successful create chunks
	RowsCreated int

	// RowsUpdated is the number of rows sent through successful update chunks
	RowsUpdated int

	// RowsDeleted is the number of record IDs sent through successful
	// delete chunks
	RowsDeleted int

	// RowsSkipped is the number of matched rows dropped by the policy
	RowsSkipped int

	// ChunksSent is the number of successful network write calls
	ChunksSent int

	// Bisections is the number of oversized chunks that were split
	Bisections int

	// Errors contains per-chunk failure detail
	Errors []ChunkError

	// DryRun reports that planning ran but nothing was dispatched
	DryRun bool

	// Plan is the reconciliation plan (populated on dry runs for inspection)
	Plan *SyncPlan

	// Duration is how long the sync took
	Duration time.Duration
}

// RetryPolicy selects the retry strategy used by the request controller.
type RetryPolicy string

// Retry policies.
const (
	// RetryExponential grows the delay by a multiplier each attempt.
	RetryExponential RetryPolicy = "exponential_backoff"

	// RetryLinear grows the delay by a fixed increment each attempt.
	RetryLinear RetryPolicy = "linear_growth"

	// RetryFixed waits the same delay on every attempt.
	RetryFixed RetryPolicy = "fixed_wait"
)

// RatePolicy selects the rate-limit strategy used by the request controller.
type RatePolicy string

// Rate-limit policies.
const (
	// RateFixedWait enforces a minimum interval between consecutive calls.
	RateFixedWait RatePolicy = "fixed_wait"

	// RateSlidingWindow bounds the number of calls in any rolling window.
	RateSlidingWindow RatePolicy = "sliding_window"

	// RateFixedWindow bounds the number of calls per aligned window.
	RateFixedWindow RatePolicy = "fixed_window"
)

// ClientConfig holds configuration for the rowsync client.
type ClientConfig struct {
	// BaseURL is the grid API endpoint
	BaseURL string

	// AuthToken is the bearer token presented on every call
	AuthToken string

	// HTTPClient overrides the default HTTP client (mainly for tests)
	HTTPClient *http.Client

	// Timeout applies to each HTTP request; zero means the 60s default
	Timeout time.Duration

	// Logger receives structured diagnostics; nil means slog.Default()
	Logger *slog.Logger

	// RetryPolicy selects the retry strategy
	RetryPolicy RetryPolicy

	// InitialDelay is the first retry delay
	InitialDelay time.Duration

	// Multiplier is the exponential growth factor (exponential only)
	Multiplier float64

	// Increment is the per-attempt delay growth (linear only)
	Increment time.Duration

	// MaxRetries caps the number of retries per call
	MaxRetries int

	// MaxWaitTime caps any single retry delay and, when set, the elapsed
	// time of a retry loop; zero disables the elapsed-time check
	MaxWaitTime time.Duration

	// RatePolicy selects the rate-limit strategy
	RatePolicy RatePolicy

	// RateLimitDelay is the minimum interval between calls (fixed wait)
	RateLimitDelay time.Duration

	// WindowSize is the rate-limit window length (sliding/fixed window)
	WindowSize time.Duration

	// MaxRequests is the per-window call budget (sliding/fixed window)
	MaxRequests int

	// BatchSize is the default upper bound on rows per write call
	BatchSize int
}

// Option is a functional option for configuring the client.
type Option func(*ClientConfig)

// SyncOptionConfig holds per-sync configuration assembled from SyncOptions.
type SyncOptionConfig struct {
	// Policy is the reconciliation policy
	Policy Policy

	// IndexColumn designates the column whose values match local rows to
	// remote records; empty means no matching
	IndexColumn string

	// BatchSize overrides the client default for this run
	BatchSize int

	// DryRun plans without dispatching
	DryRun bool

	// CreateMissingFields creates remote columns absent from the table
	CreateMissingFields bool

	// FieldHints overrides the remote column type chosen for created fields
	FieldHints map[string]int
}

// SyncOption is a functional option for configuring a sync run.
type SyncOption func(*SyncOptionConfig)
