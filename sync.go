package rowsync

import (
	"context"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/rowtypes"
)

// Sync reconciles the dataset against the table and dispatches the plan.
//
// The returned result carries per-chunk failure detail; a non-nil error
// means the run was aborted before completing (invalid configuration, a
// fetch failure, an unsplittable oversized row, or context cancellation).
func (c *Client) Sync(ctx context.Context, table string, ds Dataset, opts ...SyncOption) (*SyncResult, error) {
	cfg, err := buildSyncConfig(opts)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, errors.NewValidationError("table is required")
	}
	return c.engine.Sync(ctx, table, ds, cfg)
}

// Append creates every dataset row in the table without reconciling against
// the remote record set. Only the batch size, dry-run, and field creation
// options apply.
func (c *Client) Append(ctx context.Context, table string, ds Dataset, opts ...SyncOption) (*SyncResult, error) {
	cfg, err := buildSyncConfig(opts)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, errors.NewValidationError("table is required")
	}
	return c.engine.Append(ctx, table, ds, cfg)
}

// Plan reconciles without dispatching and returns the plan.
func (c *Client) Plan(ctx context.Context, table string, ds Dataset, opts ...SyncOption) (*SyncPlan, error) {
	result, err := c.Sync(ctx, table, ds, append(opts, WithDryRun())...)
	if err != nil {
		return nil, err
	}
	return result.Plan, nil
}

// buildSyncConfig folds options into a validated per-run config.
func buildSyncConfig(opts []SyncOption) (rowtypes.SyncOptionConfig, error) {
	cfg := rowtypes.SyncOptionConfig{Policy: rowtypes.PolicyFull}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := rowtypes.ParsePolicy(string(cfg.Policy)); err != nil {
		return cfg, errors.NewError("sync", err)
	}
	return cfg, nil
}
