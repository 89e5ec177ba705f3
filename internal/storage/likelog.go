package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notepulse-hq/note-pulse/internal/domain"
)

// LikeLog is the append-only like record store. Prior content is never
// rewritten; callers filter records through the dedup index before handing
// them here so the composite-key invariant holds.
type LikeLog struct {
	path string
}

// NewLikeLog binds the log to its file path.
func NewLikeLog(path string) *LikeLog {
	return &LikeLog{path: path}
}

// Path returns the log's file location.
func (l *LikeLog) Path() string { return l.path }

// Append writes the records in arrival order, creating the file with its
// header when it is absent or blank. Returns the number of rows written.
func (l *LikeLog) Append(records []domain.LikeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return 0, fmt.Errorf("create data directory: %w", err)
	}

	writeHeader, err := l.needsHeader()
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open like log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(domain.LikeLogHeader); err != nil {
			return 0, fmt.Errorf("write like log header: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return 0, fmt.Errorf("write like record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush like log: %w", err)
	}
	return len(records), nil
}

// needsHeader reports whether the file is absent or effectively empty.
func (l *LikeLog) needsHeader() (bool, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("inspect like log: %w", err)
	}
	return len(bytes.TrimSpace(raw)) == 0, nil
}
