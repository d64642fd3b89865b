// Package engine orchestrates a sync run: schema alignment, remote fetch,
// plan construction, and chunked dispatch of the plan's subsets.
package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/rowsync/rowsync/internal/fields"
	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/internal/sync/indexer"
	"github.com/rowsync/rowsync/internal/sync/planner"
	"github.com/rowsync/rowsync/internal/sync/transport"
	"github.com/rowsync/rowsync/rowtypes"
)

// defaultBatchSize is the chunk size used when none is configured. Each
// operation is further capped at its documented per-call limit.
const defaultBatchSize = 500

// Engine runs sync operations against one grid API.
type Engine struct {
	api       gridapi.API
	planner   *planner.Planner
	fetcher   *indexer.Fetcher
	ensurer   *fields.Ensurer
	batchSize int
	logger    *slog.Logger
}

// New creates an Engine. batchSize <= 0 selects the default; a nil logger
// defaults to slog.Default().
func New(api gridapi.API, batchSize int, logger *slog.Logger) *Engine {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		api:       api,
		planner:   planner.New(logger),
		fetcher:   indexer.NewFetcher(api, 0, logger),
		ensurer:   fields.NewEnsurer(api, logger),
		batchSize: batchSize,
		logger:    logger,
	}
}

// Sync reconciles the dataset against the table under the options' policy
// and dispatches the resulting plan.
//
// Deletes run first, then updates, then creates, so overwrite and clone
// never race a create against the delete of the record it replaces. A
// non-nil error means the run was aborted; per-chunk failures that did not
// abort the run are reported in the result's Errors.
func (e *Engine) Sync(ctx context.Context, table string, ds rowtypes.Dataset, opts rowtypes.SyncOptionConfig) (*rowtypes.SyncResult, error) {
	start := time.Now()

	policy := opts.Policy
	if policy == "" {
		policy = rowtypes.PolicyFull
	}

	var records []rowtypes.Record
	if e.needsFetch(ds, policy, opts.IndexColumn) {
		var err error
		records, err = e.fetcher.FetchAll(ctx, table)
		if err != nil {
			return nil, err
		}
	}

	plan, err := e.planner.Plan(ds, records, policy, opts.IndexColumn)
	if err != nil {
		return nil, err
	}

	e.logger.Info("sync plan built",
		"table", table,
		"policy", string(policy),
		"to_create", len(plan.ToCreate),
		"to_update", len(plan.ToUpdate),
		"to_delete", len(plan.ToDelete),
		"skipped", plan.Skipped,
		"downgraded", plan.Downgraded)

	result := &rowtypes.SyncResult{
		Plan:        plan,
		RowsSkipped: plan.Skipped,
	}
	if opts.DryRun {
		result.DryRun = true
		result.Succeeded = true
		result.Duration = time.Since(start)
		return result, nil
	}

	// Schema writes happen only on a live run; a dry run must leave the
	// remote untouched.
	if opts.CreateMissingFields {
		if _, err := e.ensurer.Ensure(ctx, table, ds, opts.FieldHints); err != nil {
			return nil, err
		}
	}

	dispatchErr := e.dispatch(ctx, table, plan, opts.BatchSize, result)

	result.Duration = time.Since(start)
	result.Succeeded = dispatchErr == nil && len(result.Errors) == 0
	e.logger.Info("sync finished",
		"table", table,
		"succeeded", result.Succeeded,
		"created", result.RowsCreated,
		"updated", result.RowsUpdated,
		"deleted", result.RowsDeleted,
		"chunks", result.ChunksSent,
		"bisections", result.Bisections,
		"chunk_errors", len(result.Errors),
		"duration", result.Duration)
	if dispatchErr != nil {
		return result, dispatchErr
	}
	return result, nil
}

// Append creates every dataset row without reconciling against the remote.
func (e *Engine) Append(ctx context.Context, table string, ds rowtypes.Dataset, opts rowtypes.SyncOptionConfig) (*rowtypes.SyncResult, error) {
	start := time.Now()

	result := &rowtypes.SyncResult{}
	if opts.DryRun {
		result.DryRun = true
		result.Succeeded = true
		result.Plan = &rowtypes.SyncPlan{ToCreate: ds.Rows}
		result.Duration = time.Since(start)
		return result, nil
	}

	if opts.CreateMissingFields {
		if _, err := e.ensurer.Ensure(ctx, table, ds, opts.FieldHints); err != nil {
			return nil, err
		}
	}

	report, err := transport.Dispatch(ctx, transport.OpAppend, ds.Rows,
		e.chunkSize(opts.BatchSize, gridapi.MaxBatchCreate),
		func(ctx context.Context, rows []rowtypes.Row) error {
			return e.api.BatchCreate(ctx, table, rows)
		}, e.logger)
	e.merge(result, report, transport.OpAppend)

	result.Duration = time.Since(start)
	result.Succeeded = err == nil && len(result.Errors) == 0
	if err != nil {
		return result, err
	}
	return result, nil
}

// dispatch sends the plan's subsets in delete, update, create order.
func (e *Engine) dispatch(ctx context.Context, table string, plan *rowtypes.SyncPlan, batchSize int, result *rowtypes.SyncResult) error {
	report, err := transport.Dispatch(ctx, transport.OpDelete, plan.ToDelete,
		e.chunkSize(batchSize, gridapi.MaxBatchDelete),
		func(ctx context.Context, ids []string) error {
			return e.api.BatchDelete(ctx, table, ids)
		}, e.logger)
	e.merge(result, report, transport.OpDelete)
	if err != nil {
		return err
	}

	report, err = transport.Dispatch(ctx, transport.OpUpdate, plan.ToUpdate,
		e.chunkSize(batchSize, gridapi.MaxBatchUpdate),
		func(ctx context.Context, updates []rowtypes.RecordUpdate) error {
			return e.api.BatchUpdate(ctx, table, updates)
		}, e.logger)
	e.merge(result, report, transport.OpUpdate)
	if err != nil {
		return err
	}

	report, err = transport.Dispatch(ctx, transport.OpCreate, plan.ToCreate,
		e.chunkSize(batchSize, gridapi.MaxBatchCreate),
		func(ctx context.Context, rows []rowtypes.Row) error {
			return e.api.BatchCreate(ctx, table, rows)
		}, e.logger)
	e.merge(result, report, transport.OpCreate)
	return err
}

// merge folds a transport report into the aggregate result.
func (e *Engine) merge(result *rowtypes.SyncResult, report *transport.Report, op string) {
	if report == nil {
		return
	}
	switch op {
	case transport.OpCreate, transport.OpAppend:
		result.RowsCreated += report.ItemsSent
	case transport.OpUpdate:
		result.RowsUpdated += report.ItemsSent
	case transport.OpDelete:
		result.RowsDeleted += report.ItemsSent
	}
	result.ChunksSent += report.Chunks
	result.Bisections += report.Bisections
	result.Errors = append(result.Errors, report.Errors...)
}

// chunkSize resolves the effective chunk size for one operation.
func (e *Engine) chunkSize(requested, limit int) int {
	size := requested
	if size <= 0 {
		size = e.batchSize
	}
	if size > limit {
		size = limit
	}
	return size
}

// needsFetch reports whether the remote record set must be downloaded.
// Full and incremental runs without a usable index column degrade to pure
// appends, so fetching would be wasted work.
func (e *Engine) needsFetch(ds rowtypes.Dataset, policy rowtypes.Policy, indexColumn string) bool {
	if policy == rowtypes.PolicyClone {
		return true
	}
	return indexColumn != "" && slices.Contains(ds.Columns, indexColumn)
}
