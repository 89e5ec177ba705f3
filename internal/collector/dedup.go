package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
)

// DedupIndex is the membership index over every (note_key, liker_id) pair
// already persisted in the like log. It is built once per run and then
// updated in memory as new records are accepted, so a single run can never
// append the same identity twice either.
type DedupIndex struct {
	seen map[domain.LikeIdentity]struct{}
}

// LoadDedupIndex scans the like log's identity columns. A missing or empty
// file yields an empty index, which upstream reads as "no history yet".
// Individually malformed rows are skipped with a warning. A hard read failure
// is returned as an error: collecting against an empty index would silently
// violate the uniqueness invariant, so the run must stop instead.
func LoadDedupIndex(path string, log logger.Logger) (*DedupIndex, error) {
	log = logger.Ensure(log)
	idx := &DedupIndex{seen: make(map[domain.LikeIdentity]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("open like log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return idx, nil
		}
		return nil, fmt.Errorf("read like log header: %w", err)
	}

	skipped := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read like log: %w", err)
		}
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			skipped++
			continue
		}
		idx.seen[domain.LikeIdentity{NoteKey: row[0], LikerID: row[1]}] = struct{}{}
	}
	if skipped > 0 {
		log.WarnObj("like log rows skipped while building dedup index", "dedup_skipped", map[string]any{
			"path":    path,
			"skipped": skipped,
		})
	}
	return idx, nil
}

// Size returns the number of indexed identities.
func (d *DedupIndex) Size() int { return len(d.seen) }

// Empty reports whether no like history exists yet.
func (d *DedupIndex) Empty() bool { return len(d.seen) == 0 }

// Has tests exact membership of a composite identity.
func (d *DedupIndex) Has(id domain.LikeIdentity) bool {
	_, ok := d.seen[id]
	return ok
}

// FilterNew returns the candidates not already present, in arrival order, and
// inserts them so later calls within the run see them as existing.
func (d *DedupIndex) FilterNew(candidates []domain.LikeRecord) []domain.LikeRecord {
	var fresh []domain.LikeRecord
	for _, rec := range candidates {
		id := rec.Identity()
		if _, ok := d.seen[id]; ok {
			continue
		}
		d.seen[id] = struct{}{}
		fresh = append(fresh, rec)
	}
	return fresh
}
