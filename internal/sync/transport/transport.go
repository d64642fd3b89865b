// Package transport dispatches plan subsets to the grid API in chunks,
// adapting chunk size to the service's opaque payload limit.
//
// Chunking happens in two stages. First the subset is cut into fixed chunks
// at the per-call item cap. Then each chunk is sent; if the service rejects
// it as oversized the chunk is bisected and both halves are retried,
// recursively, until the pieces fit. A single item that is still rejected
// cannot be split further and aborts the whole dispatch.
package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/rowtypes"
)

// Write operation names used in chunk reports and logs.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpAppend = "append"
)

// SendFunc delivers one chunk of items in a single network call.
type SendFunc[T any] func(ctx context.Context, items []T) error

// Report aggregates the outcome of dispatching one plan subset.
type Report struct {
	// Chunks is the number of successful network calls.
	Chunks int

	// Bisections is the number of oversized chunks that were split.
	Bisections int

	// ItemsSent is the number of items delivered through successful calls.
	ItemsSent int

	// Errors holds one entry per chunk that failed for a reason other than
	// payload size. These chunks are skipped; dispatch continues.
	Errors []rowtypes.ChunkError
}

// Dispatch sends items through send in chunks of at most batchSize.
//
// Chunks are sent sequentially in item order. A chunk the service rejects as
// oversized is bisected and retried; any other failure is recorded in the
// report and dispatch moves on to the next chunk. The returned error is
// non-nil only when dispatch cannot meaningfully continue: a single item
// rejected as oversized (ErrChunkUnsplittable) or a canceled context.
func Dispatch[T any](ctx context.Context, op string, items []T, batchSize int, send SendFunc[T], logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	report := &Report{}
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		if err := sendChunk(ctx, op, items, start, end, send, report, logger); err != nil {
			return report, err
		}
	}
	return report, nil
}

// sendChunk delivers items[start:end], bisecting on oversized rejections.
func sendChunk[T any](ctx context.Context, op string, items []T, start, end int, send SendFunc[T], report *Report, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := send(ctx, items[start:end])
	if err == nil {
		report.Chunks++
		report.ItemsSent += end - start
		return nil
	}

	if errors.IsOversized(err) {
		if end-start == 1 {
			logger.Error("single item still oversized",
				"op", op,
				"index", start)
			return errors.NewError(op,
				fmt.Errorf("item %d: %w", start, errors.ErrChunkUnsplittable))
		}

		mid := start + (end-start)/2
		report.Bisections++
		logger.Warn("payload oversized, bisecting chunk",
			"op", op,
			"start", start,
			"end", end,
			"mid", mid)
		if err := sendChunk(ctx, op, items, start, mid, send, report, logger); err != nil {
			return err
		}
		return sendChunk(ctx, op, items, mid, end, send, report, logger)
	}

	logger.Error("chunk dispatch failed",
		"op", op,
		"start", start,
		"end", end,
		"error", err)
	report.Errors = append(report.Errors, rowtypes.ChunkError{
		Op:      op,
		Start:   start,
		End:     end,
		Message: err.Error(),
	})
	return nil
}
