package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rowsync/rowsync"
)

// loadDataset reads a local tabular file into a Dataset. CSV files keep all
// values as strings; JSON files must hold an array of flat objects.
func loadDataset(path string) (rowsync.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return rowsync.Dataset{}, fmt.Errorf("unsupported dataset format %q (want .csv or .json)", filepath.Ext(path))
	}
}

func loadCSV(path string) (rowsync.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return rowsync.Dataset{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return rowsync.Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return rowsync.Dataset{}, fmt.Errorf("%s: empty file, expected a header row", path)
	}

	ds := rowsync.Dataset{Columns: rows[0]}
	for _, rec := range rows[1:] {
		row := make(rowsync.Row, len(ds.Columns))
		for i, col := range ds.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func loadJSON(path string) (rowsync.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return rowsync.Dataset{}, err
	}

	var rows []rowsync.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return rowsync.Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}

	// Map iteration order is random, so sort for a stable column list.
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return rowsync.Dataset{Columns: columns, Rows: rows}, nil
}
