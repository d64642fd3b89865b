// Package fields aligns a remote table's schema with a local dataset,
// creating any columns the table is missing before rows are written.
package fields

import (
	"context"
	"log/slog"

	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/rowtypes"
)

// Ensurer creates missing remote fields for dataset columns.
type Ensurer struct {
	api    gridapi.API
	logger *slog.Logger
}

// NewEnsurer creates an Ensurer. A nil logger defaults to slog.Default().
func NewEnsurer(api gridapi.API, logger *slog.Logger) *Ensurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensurer{api: api, logger: logger}
}

// Ensure creates a remote field for every dataset column the table lacks.
// hints overrides the field type per column name; columns without a hint get
// a type inferred from the first non-nil value in that column, defaulting to
// text. Returns the number of fields created.
func (e *Ensurer) Ensure(ctx context.Context, table string, ds rowtypes.Dataset, hints map[string]int) (int, error) {
	existing, err := e.api.ListFields(ctx, table)
	if err != nil {
		return 0, err
	}

	have := make(map[string]struct{}, len(existing))
	for _, f := range existing {
		have[f.FieldName] = struct{}{}
	}

	created := 0
	for _, col := range ds.Columns {
		if _, ok := have[col]; ok {
			continue
		}
		field := gridapi.Field{
			FieldName: col,
			Type:      fieldType(col, ds, hints),
		}
		if err := e.api.CreateField(ctx, table, field); err != nil {
			return created, err
		}
		e.logger.Info("created missing field",
			"table", table,
			"field", col,
			"type", field.Type)
		created++
	}
	return created, nil
}

// fieldType picks the remote type code for a column.
func fieldType(col string, ds rowtypes.Dataset, hints map[string]int) int {
	if t, ok := hints[col]; ok {
		return t
	}
	for _, row := range ds.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case float64, float32, int, int64:
			return gridapi.FieldTypeNumber
		case bool:
			return gridapi.FieldTypeCheckbox
		default:
			return gridapi.FieldTypeText
		}
	}
	return gridapi.FieldTypeText
}
