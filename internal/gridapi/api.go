// Package gridapi defines the grid table API surface and its HTTP client.
//
// The remote service is a record-oriented grid: tables hold typed fields and
// records, addressed by opaque server-assigned record IDs. All write
// operations are batched with hard per-call item caps, reads are paginated
// with opaque page tokens, and failures surface either as HTTP status codes
// or as business codes inside the response envelope.
package gridapi

import (
	"context"

	"github.com/rowsync/rowsync/rowtypes"
)

// Per-call item caps documented by the remote service. Batches above these
// limits are rejected locally before any network call.
const (
	// MaxSearchPageSize is the largest page the search endpoint returns.
	MaxSearchPageSize = 100

	// MaxBatchCreate is the most records one batch_create call accepts.
	MaxBatchCreate = 1000

	// MaxBatchUpdate is the most records one batch_update call accepts.
	MaxBatchUpdate = 1000

	// MaxBatchDelete is the most record IDs one batch_delete call accepts.
	MaxBatchDelete = 500
)

// Remote field type codes.
const (
	FieldTypeText     = 1
	FieldTypeNumber   = 2
	FieldTypeDate     = 5
	FieldTypeCheckbox = 7
)

// Field describes one column of a remote table.
type Field struct {
	// FieldID is the server-assigned field identifier.
	FieldID string `json:"field_id,omitempty"`

	// FieldName is the column name.
	FieldName string `json:"field_name"`

	// Type is the remote field type code.
	Type int `json:"type"`
}

// Page is one page of search results.
type Page struct {
	// Records holds the page's records in server order.
	Records []rowtypes.Record

	// NextPageToken resumes pagination; empty when HasMore is false.
	NextPageToken string

	// HasMore reports whether more pages follow.
	HasMore bool

	// Total is the server's count of matching records, when reported.
	Total int
}

// API is the grid table operation surface consumed by the sync engine.
// The HTTP client implements it; tests substitute a mock.
type API interface {
	// ListFields returns every field of the table.
	ListFields(ctx context.Context, table string) ([]Field, error)

	// CreateField adds a field to the table.
	CreateField(ctx context.Context, table string, field Field) error

	// Search returns one page of the table's records. An empty pageToken
	// starts from the beginning. pageSize must not exceed MaxSearchPageSize.
	Search(ctx context.Context, table, pageToken string, pageSize int) (*Page, error)

	// BatchCreate inserts rows as new records. len(rows) must not exceed
	// MaxBatchCreate.
	BatchCreate(ctx context.Context, table string, rows []rowtypes.Row) error

	// BatchUpdate replaces the fields of existing records. len(updates)
	// must not exceed MaxBatchUpdate.
	BatchUpdate(ctx context.Context, table string, updates []rowtypes.RecordUpdate) error

	// BatchDelete removes records by ID. len(ids) must not exceed
	// MaxBatchDelete.
	BatchDelete(ctx context.Context, table string, ids []string) error
}

// TokenProvider supplies the bearer token for each request. Implementations
// may refresh the token out of band.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider backed by a fixed string.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}
