// Package testutil provides shared mocks for unit tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/rowtypes"
)

// MockAPI implements gridapi.API with configurable function fields. Nil
// fields panic when called so tests fail loudly on unexpected operations.
// Call counts are recorded per method.
type MockAPI struct {
	mu sync.Mutex

	ListFieldsFunc  func(ctx context.Context, table string) ([]gridapi.Field, error)
	CreateFieldFunc func(ctx context.Context, table string, field gridapi.Field) error
	SearchFunc      func(ctx context.Context, table, pageToken string, pageSize int) (*gridapi.Page, error)
	BatchCreateFunc func(ctx context.Context, table string, rows []rowtypes.Row) error
	BatchUpdateFunc func(ctx context.Context, table string, updates []rowtypes.RecordUpdate) error
	BatchDeleteFunc func(ctx context.Context, table string, ids []string) error

	ListFieldsCalls  int
	CreateFieldCalls int
	SearchCalls      int
	BatchCreateCalls int
	BatchUpdateCalls int
	BatchDeleteCalls int
}

var _ gridapi.API = (*MockAPI)(nil)

// ListFields implements gridapi.API.
func (m *MockAPI) ListFields(ctx context.Context, table string) ([]gridapi.Field, error) {
	m.count(&m.ListFieldsCalls)
	if m.ListFieldsFunc == nil {
		panic(fmt.Sprintf("MockAPI.ListFields called unexpectedly (table %s)", table))
	}
	return m.ListFieldsFunc(ctx, table)
}

// CreateField implements gridapi.API.
func (m *MockAPI) CreateField(ctx context.Context, table string, field gridapi.Field) error {
	m.count(&m.CreateFieldCalls)
	if m.CreateFieldFunc == nil {
		panic(fmt.Sprintf("MockAPI.CreateField called unexpectedly (table %s)", table))
	}
	return m.CreateFieldFunc(ctx, table, field)
}

// Search implements gridapi.API.
func (m *MockAPI) Search(ctx context.Context, table, pageToken string, pageSize int) (*gridapi.Page, error) {
	m.count(&m.SearchCalls)
	if m.SearchFunc == nil {
		panic(fmt.Sprintf("MockAPI.Search called unexpectedly (table %s)", table))
	}
	return m.SearchFunc(ctx, table, pageToken, pageSize)
}

// BatchCreate implements gridapi.API.
func (m *MockAPI) BatchCreate(ctx context.Context, table string, rows []rowtypes.Row) error {
	m.count(&m.BatchCreateCalls)
	if m.BatchCreateFunc == nil {
		panic(fmt.Sprintf("MockAPI.BatchCreate called unexpectedly (table %s)", table))
	}
	return m.BatchCreateFunc(ctx, table, rows)
}

// BatchUpdate implements gridapi.API.
func (m *MockAPI) BatchUpdate(ctx context.Context, table string, updates []rowtypes.RecordUpdate) error {
	m.count(&m.BatchUpdateCalls)
	if m.BatchUpdateFunc == nil {
		panic(fmt.Sprintf("MockAPI.BatchUpdate called unexpectedly (table %s)", table))
	}
	return m.BatchUpdateFunc(ctx, table, updates)
}

// BatchDelete implements gridapi.API.
func (m *MockAPI) BatchDelete(ctx context.Context, table string, ids []string) error {
	m.count(&m.BatchDeleteCalls)
	if m.BatchDeleteFunc == nil {
		panic(fmt.Sprintf("MockAPI.BatchDelete called unexpectedly (table %s)", table))
	}
	return m.BatchDeleteFunc(ctx, table, ids)
}

func (m *MockAPI) count(c *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*c++
}
