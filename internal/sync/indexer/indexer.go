// Package indexer fetches the remote record set and builds the key index
// used to match local rows against remote records.
//
// Keys are derived from the value of a designated index column. Values are
// first normalized to a canonical string so that the same logical value
// produces the same key regardless of how it was decoded (a JSON number
// arrives as float64 locally but may round-trip as a string remotely), then
// hashed so keys are fixed-width and safe to use as map keys in logs.
package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/rowtypes"
)

// progressEvery is how many pages pass between fetch progress log lines.
const progressEvery = 5

// canonical normalizes a cell value to its matching form.
func canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// JSON numbers decode to float64; render 1.0 as "1" so numeric
		// values match their string spellings.
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Key returns the index key for a cell value: the MD5 hex digest of its
// canonical string form.
func Key(v any) string {
	sum := md5.Sum([]byte(canonical(v)))
	return hex.EncodeToString(sum[:])
}

// RowKey returns the index key for a local row. ok is false when the row has
// no value under the index column.
func RowKey(row rowtypes.Row, indexColumn string) (key string, ok bool) {
	v, present := row[indexColumn]
	if !present || v == nil {
		return "", false
	}
	return Key(v), true
}

// BuildIndex maps index keys to record IDs for the given records. When two
// records share a key the later one wins, mirroring the remote's own
// last-write semantics.
func BuildIndex(records []rowtypes.Record, indexColumn string) map[string]string {
	index := make(map[string]string, len(records))
	for _, rec := range records {
		v, present := rec.Fields[indexColumn]
		if !present || v == nil {
			continue
		}
		index[Key(v)] = rec.ID
	}
	return index
}

// Fetcher drains a table's records through the paginated search endpoint.
type Fetcher struct {
	api      gridapi.API
	pageSize int
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher. pageSize values outside (0, MaxSearchPageSize]
// are replaced with the maximum; a nil logger defaults to slog.Default().
func NewFetcher(api gridapi.API, pageSize int, logger *slog.Logger) *Fetcher {
	if pageSize <= 0 || pageSize > gridapi.MaxSearchPageSize {
		pageSize = gridapi.MaxSearchPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{api: api, pageSize: pageSize, logger: logger}
}

// FetchAll returns every record in the table, following pagination to
// exhaustion. A page token seen twice aborts the fetch with
// ErrRepeatedPageToken to guard against a looping server.
func (f *Fetcher) FetchAll(ctx context.Context, table string) ([]rowtypes.Record, error) {
	var records []rowtypes.Record
	seen := make(map[string]struct{})
	pageToken := ""
	pages := 0

	for {
		page, err := f.api.Search(ctx, table, pageToken, f.pageSize)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		pages++

		if pages%progressEvery == 0 {
			f.logger.Info("fetching remote records",
				"table", table,
				"pages", pages,
				"records", len(records))
		}

		if !page.HasMore || page.NextPageToken == "" {
			break
		}
		if _, dup := seen[page.NextPageToken]; dup {
			return nil, errors.NewTableError("search", table,
				fmt.Errorf("token %q seen twice after %d pages: %w",
					page.NextPageToken, pages, errors.ErrRepeatedPageToken))
		}
		seen[page.NextPageToken] = struct{}{}
		pageToken = page.NextPageToken
	}

	f.logger.Info("remote fetch complete",
		"table", table,
		"pages", pages,
		"records", len(records))
	return records, nil
}
