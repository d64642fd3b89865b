// Package errors provides error types and classification for remote grid
// table operations.
//
// The grid API reports failures through three channels: HTTP status codes,
// business error codes carried in an otherwise-successful response envelope,
// and plain transport failures. This package normalizes all three into
// sentinel errors so callers can classify a failure without knowing which
// channel produced it.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a grid operation error with context about the operation
// that failed. It wraps the underlying error with additional context for
// better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "batch_create", "search")
	Op string

	// Table is the remote table identifier (if applicable)
	Table string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("grid.%s table %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("grid.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithTable adds table context to an existing error.
func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewTableError creates a new Error with table context.
func NewTableError(op, table string, err error) *Error {
	return &Error{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// NewValidationError creates an invalid-input error with a descriptive message.
func NewValidationError(message string) *Error {
	return &Error{
		Op:  "validate",
		Err: fmt.Errorf("%s: %w", message, ErrInvalidInput),
	}
}

// Sentinel errors for grid operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrRateLimited indicates the remote rejected the call for exceeding
	// its request cadence (HTTP 429 or the equivalent business code).
	// Retryable.
	ErrRateLimited = errors.New("grid: rate limited")

	// ErrServerUnavailable indicates a server-side failure (HTTP 5xx or a
	// transient business code). Retryable.
	ErrServerUnavailable = errors.New("grid: server unavailable")

	// ErrConnection indicates a network-level failure before a response
	// was received. Retryable.
	ErrConnection = errors.New("grid: connection error")

	// ErrOversizedPayload indicates the remote rejected the request body as
	// too large. This is handled by chunk bisection, never by the generic
	// retry loop.
	ErrOversizedPayload = errors.New("grid: oversized payload")

	// ErrValidation indicates the remote rejected the request as malformed
	// or semantically invalid. Never retried.
	ErrValidation = errors.New("grid: validation error")

	// ErrNotFound indicates the requested table, record, or field does not
	// exist. Never retried.
	ErrNotFound = errors.New("grid: not found")

	// ErrPermissionDenied indicates the credentials lack access to the
	// resource. Never retried.
	ErrPermissionDenied = errors.New("grid: permission denied")

	// ErrDuplicateRecord indicates the remote refused a write because it
	// would create a duplicate. Never retried.
	ErrDuplicateRecord = errors.New("grid: duplicate record")

	// ErrBatchTooLarge indicates a batch call was rejected locally because
	// it exceeds the documented per-call item cap. No network call is made.
	ErrBatchTooLarge = errors.New("grid: batch exceeds per-call limit")

	// ErrRepeatedPageToken indicates the remote returned a page token that
	// was already seen during pagination. Treated as a protocol error to
	// guard against infinite pagination loops.
	ErrRepeatedPageToken = errors.New("grid: repeated page token")

	// ErrMalformedResponse indicates a response body that could not be
	// decoded. Treated as fatal for the current operation.
	ErrMalformedResponse = errors.New("grid: malformed response")

	// ErrChunkUnsplittable indicates a single-row chunk was still rejected
	// as oversized. Unrecoverable.
	ErrChunkUnsplittable = errors.New("grid: single-row chunk still oversized")

	// ErrMissingIndexColumn indicates a sync policy that requires an index
	// column was configured without one.
	ErrMissingIndexColumn = errors.New("grid: index column required for this policy")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("grid: invalid input")
)

// ExhaustedError is returned when the retry policy gives up on a transient
// failure. It carries the attempt count and the elapsed time so chunk
// failures can be reported with full retry context.
type ExhaustedError struct {
	// Attempts is the total number of invocations, including the first.
	Attempts int

	// Elapsed is the wall time spent across all attempts.
	Elapsed time.Duration

	// Err is the error from the final attempt.
	Err error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s) in %s: %v", e.Attempts, e.Elapsed, e.Err)
}

// Unwrap returns the error from the final attempt.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an error is expected to resolve itself on
// retry: rate limiting, server failure, or a network fault. Oversized-payload
// rejections are deliberately excluded; they are corrected by bisection, not
// by retrying the same payload.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServerUnavailable) ||
		errors.Is(err, ErrConnection)
}

// IsOversized reports whether an error is an oversized-payload rejection.
func IsOversized(err error) bool {
	return errors.Is(err, ErrOversizedPayload)
}

// IsRateLimited reports whether an error is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsNotFound reports whether an error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
