package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("formats with table context", func(t *testing.T) {
		err := NewTableError("batch_create", "tbl123", ErrRateLimited)
		assert.Contains(t, err.Error(), "batch_create")
		assert.Contains(t, err.Error(), "tbl123")
	})

	t.Run("formats without table context", func(t *testing.T) {
		err := NewError("search", ErrNotFound)
		assert.Contains(t, err.Error(), "search")
		assert.NotContains(t, err.Error(), "table")
	})

	t.Run("unwraps to the underlying error", func(t *testing.T) {
		err := NewTableError("batch_delete", "tbl123", ErrServerUnavailable)
		assert.ErrorIs(t, err, ErrServerUnavailable)
	})

	t.Run("WithTable adds context", func(t *testing.T) {
		err := NewError("search", ErrNotFound).WithTable("tbl9")
		assert.Equal(t, "tbl9", err.Table)
	})
}

func TestExhaustedError(t *testing.T) {
	inner := fmt.Errorf("last: %w", ErrRateLimited)
	err := &ExhaustedError{Attempts: 4, Elapsed: 7 * time.Second, Err: inner}

	assert.Contains(t, err.Error(), "4 attempt")
	assert.ErrorIs(t, err, ErrRateLimited)

	var exhausted *ExhaustedError
	assert.True(t, stderrors.As(fmt.Errorf("wrapped: %w", err), &exhausted))
	assert.Equal(t, 4, exhausted.Attempts)
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		oversized bool
	}{
		{name: "rate limited", err: ErrRateLimited, transient: true},
		{name: "server unavailable", err: ErrServerUnavailable, transient: true},
		{name: "connection", err: ErrConnection, transient: true},
		{name: "oversized is not transient", err: ErrOversizedPayload, oversized: true},
		{name: "validation", err: ErrValidation},
		{name: "not found", err: ErrNotFound},
		{name: "permission denied", err: ErrPermissionDenied},
		{name: "repeated page token", err: ErrRepeatedPageToken},
		{name: "unsplittable chunk", err: ErrChunkUnsplittable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := NewTableError("op", "tbl", fmt.Errorf("x: %w", tt.err))
			assert.Equal(t, tt.transient, IsTransient(wrapped))
			assert.Equal(t, tt.oversized, IsOversized(wrapped))
		})
	}

	t.Run("helpers match their sentinels", func(t *testing.T) {
		assert.True(t, IsRateLimited(NewError("op", ErrRateLimited)))
		assert.True(t, IsNotFound(NewError("op", ErrNotFound)))
		assert.True(t, IsInvalidInput(NewValidationError("bad")))
	})
}
