// Package rowsync synchronizes local tabular data into remote grid tables.
//
// A sync run reconciles the rows of a local Dataset against the records of a
// remote table under one of four policies (full, incremental, overwrite,
// clone), then transmits the resulting plan through a rate-limited, retrying,
// size-adaptive chunked transport.
//
// Basic usage:
//
//	client, err := rowsync.New(
//		rowsync.WithBaseURL("https://grid.example.com/api/v1"),
//		rowsync.WithAuthToken(token),
//	)
//	if err != nil {
//		return err
//	}
//
//	result, err := client.Sync(ctx, tableID, dataset,
//		rowsync.WithPolicy(rowsync.PolicyFull),
//		rowsync.WithIndexColumn("id"),
//	)
//
// Rows matched by the index column are updated in place; unmatched rows are
// created. Oversized batches are split automatically, transient failures are
// retried under the configured strategy, and every request respects the
// client's rate limit.
package rowsync
