package rowsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/internal/testutil"
)

func sampleDataset() Dataset {
	return Dataset{
		Columns: []string{"id", "name"},
		Rows: []Row{
			{"id": "1", "name": "alpha"},
			{"id": "2", "name": "beta"},
			{"id": "3", "name": "gamma"},
		},
	}
}

func sampleRemote() []Record {
	return []Record{
		{ID: "rec1", Fields: map[string]any{"id": "1", "name": "old"}},
	}
}

func TestClient_Sync(t *testing.T) {
	t.Run("full sync updates matched and creates the rest", func(t *testing.T) {
		var created []Row
		var updated []string
		api := &testutil.MockAPI{
			SearchFunc: func(ctx context.Context, table, pageToken string, pageSize int) (*gridapi.Page, error) {
				return &gridapi.Page{Records: sampleRemote()}, nil
			},
			BatchCreateFunc: func(ctx context.Context, table string, rows []Row) error {
				created = append(created, rows...)
				return nil
			},
			BatchUpdateFunc: func(ctx context.Context, table string, updates []RecordUpdate) error {
				for _, u := range updates {
					updated = append(updated, u.RecordID)
				}
				return nil
			},
		}

		client := newWithAPI(api)
		result, err := client.Sync(context.Background(), "tbl123", sampleDataset(),
			WithPolicy(PolicyFull), WithIndexColumn("id"))
		require.NoError(t, err)

		assert.True(t, result.Succeeded)
		assert.Equal(t, 2, result.RowsCreated)
		assert.Equal(t, 1, result.RowsUpdated)
		assert.Equal(t, []string{"rec1"}, updated)
		require.Len(t, created, 2)
		assert.Equal(t, "beta", created[0]["name"])
	})

	t.Run("unknown policy is rejected", func(t *testing.T) {
		client := newWithAPI(&testutil.MockAPI{})
		_, err := client.Sync(context.Background(), "tbl123", sampleDataset(),
			WithPolicy(Policy("bogus")))
		require.Error(t, err)
	})

	t.Run("empty table name is rejected", func(t *testing.T) {
		client := newWithAPI(&testutil.MockAPI{})
		_, err := client.Sync(context.Background(), "", sampleDataset())
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("dry run returns the plan untouched", func(t *testing.T) {
		api := &testutil.MockAPI{
			SearchFunc: func(ctx context.Context, table, pageToken string, pageSize int) (*gridapi.Page, error) {
				return &gridapi.Page{Records: sampleRemote()}, nil
			},
		}

		client := newWithAPI(api)
		result, err := client.Sync(context.Background(), "tbl123", sampleDataset(),
			WithIndexColumn("id"), WithDryRun())
		require.NoError(t, err)

		assert.True(t, result.DryRun)
		require.NotNil(t, result.Plan)
		assert.Len(t, result.Plan.ToUpdate, 1)
		assert.Len(t, result.Plan.ToCreate, 2)
	})
}

func TestClient_Plan(t *testing.T) {
	api := &testutil.MockAPI{
		SearchFunc: func(ctx context.Context, table, pageToken string, pageSize int) (*gridapi.Page, error) {
			return &gridapi.Page{Records: sampleRemote()}, nil
		},
	}

	client := newWithAPI(api)
	plan, err := client.Plan(context.Background(), "tbl123", sampleDataset(),
		WithPolicy(PolicyIncremental), WithIndexColumn("id"))
	require.NoError(t, err)

	assert.Len(t, plan.ToCreate, 2)
	assert.Equal(t, 1, plan.Skipped)
	assert.Zero(t, api.BatchCreateCalls)
}

func TestClient_Append(t *testing.T) {
	var created []Row
	api := &testutil.MockAPI{
		BatchCreateFunc: func(ctx context.Context, table string, rows []Row) error {
			created = append(created, rows...)
			return nil
		},
	}

	client := newWithAPI(api)
	result, err := client.Append(context.Background(), "tbl123", sampleDataset())
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Len(t, created, 3)
	assert.Zero(t, api.SearchCalls)
}

func TestNew(t *testing.T) {
	t.Run("requires a base URL", func(t *testing.T) {
		_, err := New(WithAuthToken("tok"))
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("requires an auth token", func(t *testing.T) {
		_, err := New(WithBaseURL("https://grid.example.com"))
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("timeout applies without a custom http client", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(w, `{"code":0,"msg":"","data":{}}`)
		}))
		t.Cleanup(srv.Close)

		client, err := New(
			WithBaseURL(srv.URL),
			WithAuthToken("tok"),
			WithTimeout(50*time.Millisecond),
			WithMaxRetries(0),
			WithRateLimitDelay(0),
		)
		require.NoError(t, err)

		result, err := client.Append(context.Background(), "tbl123", sampleDataset())
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		require.Len(t, result.Errors, 1)
	})

	t.Run("builds with required options", func(t *testing.T) {
		client, err := New(
			WithBaseURL("https://grid.example.com"),
			WithAuthToken("tok"),
			WithRetryPolicy(RetryLinear),
			WithRatePolicy(RateSlidingWindow),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}
