// Package planner reconciles a local dataset against the remote record set,
// producing the create/update/delete plan that the transport layer executes.
package planner

import (
	"log/slog"
	"slices"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/internal/sync/indexer"
	"github.com/rowsync/rowsync/rowtypes"
)

// Planner builds sync plans under the configured reconciliation policy.
type Planner struct {
	logger *slog.Logger
}

// New creates a Planner. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// Plan partitions the dataset's rows into create/update/delete subsets.
//
// Row order within each subset follows source order. Under clone the index
// column is ignored entirely. Under full and incremental a missing index
// column downgrades the run to a pure append; under overwrite it is a
// configuration error.
func (p *Planner) Plan(ds rowtypes.Dataset, records []rowtypes.Record, policy rowtypes.Policy, indexColumn string) (*rowtypes.SyncPlan, error) {
	if policy == rowtypes.PolicyClone {
		return p.planClone(ds, records), nil
	}

	if !hasIndexColumn(ds, indexColumn) {
		if policy == rowtypes.PolicyOverwrite {
			return nil, errors.NewError("plan",
				errors.ErrMissingIndexColumn)
		}
		p.logger.Warn("index column absent, downgrading to pure append",
			"policy", string(policy),
			"index_column", indexColumn)
		plan := &rowtypes.SyncPlan{Downgraded: true}
		plan.ToCreate = append(plan.ToCreate, ds.Rows...)
		return plan, nil
	}

	index := indexer.BuildIndex(records, indexColumn)
	plan := &rowtypes.SyncPlan{}
	seenKeys := make(map[string]struct{}, len(ds.Rows))
	deleted := make(map[string]struct{})

	for i, row := range ds.Rows {
		key, ok := indexer.RowKey(row, indexColumn)
		if !ok {
			// No index value: nothing to match against, always a create.
			plan.ToCreate = append(plan.ToCreate, row)
			continue
		}

		if _, dup := seenKeys[key]; dup {
			plan.DuplicateKeys++
			p.logger.Warn("duplicate index key in dataset",
				"row", i,
				"index_column", indexColumn)
		}
		seenKeys[key] = struct{}{}

		recordID, matched := index[key]
		switch policy {
		case rowtypes.PolicyFull:
			if matched {
				plan.ToUpdate = append(plan.ToUpdate, rowtypes.RecordUpdate{
					RecordID: recordID,
					Row:      row,
				})
			} else {
				plan.ToCreate = append(plan.ToCreate, row)
			}

		case rowtypes.PolicyIncremental:
			if matched {
				plan.Skipped++
			} else {
				plan.ToCreate = append(plan.ToCreate, row)
			}

		case rowtypes.PolicyOverwrite:
			if matched {
				if _, dup := deleted[recordID]; !dup {
					deleted[recordID] = struct{}{}
					plan.ToDelete = append(plan.ToDelete, recordID)
				}
			}
			plan.ToCreate = append(plan.ToCreate, row)
		}
	}

	return plan, nil
}

// planClone deletes every remote record and recreates every local row.
func (p *Planner) planClone(ds rowtypes.Dataset, records []rowtypes.Record) *rowtypes.SyncPlan {
	plan := &rowtypes.SyncPlan{}
	for _, rec := range records {
		plan.ToDelete = append(plan.ToDelete, rec.ID)
	}
	plan.ToCreate = append(plan.ToCreate, ds.Rows...)
	return plan
}

// hasIndexColumn reports whether the dataset actually carries the index
// column. An empty name never matches.
func hasIndexColumn(ds rowtypes.Dataset, indexColumn string) bool {
	if indexColumn == "" {
		return false
	}
	return slices.Contains(ds.Columns, indexColumn)
}
