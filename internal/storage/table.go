package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Package storage owns every on-disk representation. Collectors and
// detectors work on in-memory views and hand results back here, keeping the
// upsert and dedup discipline in one place.

// Table is one dated CSV file whose first column is the snapshot date.
type Table struct {
	path string
}

// NewTable binds a table to its file path; the file need not exist yet.
func NewTable(path string) *Table {
	return &Table{path: path}
}

// Path returns the table's file location.
func (t *Table) Path() string { return t.path }

// Rows reads the whole table. A missing file yields no rows and no error.
func (t *Table) Rows() (header []string, rows [][]string, err error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err = r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read %s header: %w", t.path, err)
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", t.path, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// UpsertByDate replaces every row carrying the given date with the new rows,
// preserving all other dates in their original order. The file is rewritten
// whole and swapped in atomically so two rows for one date can never
// coexist. When the existing header differs from the given one, the new
// schema is adopted for the header and new rows while old rows are carried
// forward verbatim; their column count may no longer match, which is the
// accepted migration policy rather than a defect to correct.
func (t *Table) UpsertByDate(date string, header []string, rows [][]string) (int, error) {
	_, existing, err := t.Rows()
	if err != nil {
		return 0, err
	}

	kept := make([][]string, 0, len(existing))
	for _, row := range existing {
		if len(row) > 0 && row[0] == date {
			continue
		}
		kept = append(kept, row)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return 0, fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, row := range kept {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("flush %s: %w", t.path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		return 0, fmt.Errorf("replace %s: %w", t.path, err)
	}
	return len(rows), nil
}

// LoadLikeCountsByDate reads the article snapshot table into per-date like
// counts keyed by note key, resolving columns by header name so schema
// migrations do not shift it. Rows whose like count does not parse count as
// zero, matching how partial rows were always treated.
func LoadLikeCountsByDate(path string) (map[string]map[string]int, error) {
	header, rows, err := NewTable(path).Rows()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return map[string]map[string]int{}, nil
	}

	dateIdx, keyIdx, likeIdx := -1, -1, -1
	for i, col := range header {
		switch col {
		case "date":
			dateIdx = i
		case "key":
			keyIdx = i
		case "like_count":
			likeIdx = i
		}
	}
	if dateIdx < 0 || keyIdx < 0 || likeIdx < 0 {
		return nil, fmt.Errorf("%s header is missing date/key/like_count columns", path)
	}

	max := dateIdx
	if keyIdx > max {
		max = keyIdx
	}
	if likeIdx > max {
		max = likeIdx
	}

	out := make(map[string]map[string]int)
	for _, row := range rows {
		if len(row) <= max {
			continue
		}
		likes, err := strconv.Atoi(row[likeIdx])
		if err != nil {
			likes = 0
		}
		byKey := out[row[dateIdx]]
		if byKey == nil {
			byKey = make(map[string]int)
			out[row[dateIdx]] = byKey
		}
		byKey[row[keyIdx]] = likes
	}
	return out, nil
}
