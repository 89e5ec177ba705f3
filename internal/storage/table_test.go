package storage

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestUpsertByDateIsIdempotent(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "articles.csv"))
	header := []string{"date", "key", "like_count"}

	first := [][]string{
		{"2025-08-01", "n1", "3"},
		{"2025-08-01", "n2", "1"},
	}
	if _, err := table.UpsertByDate("2025-08-01", header, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := [][]string{
		{"2025-08-01", "n1", "5"},
		{"2025-08-01", "n2", "1"},
	}
	if _, err := table.UpsertByDate("2025-08-01", header, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	_, rows, err := table.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !reflect.DeepEqual(rows, second) {
		t.Fatalf("expected the re-run to replace the date's rows, got %v", rows)
	}
}

func TestUpsertByDatePreservesOtherDates(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "articles.csv"))
	header := []string{"date", "key", "like_count"}

	if _, err := table.UpsertByDate("2025-08-01", header, [][]string{{"2025-08-01", "n1", "3"}}); err != nil {
		t.Fatalf("upsert day 1: %v", err)
	}
	if _, err := table.UpsertByDate("2025-08-02", header, [][]string{{"2025-08-02", "n1", "5"}}); err != nil {
		t.Fatalf("upsert day 2: %v", err)
	}
	if _, err := table.UpsertByDate("2025-08-02", header, [][]string{{"2025-08-02", "n1", "6"}}); err != nil {
		t.Fatalf("re-upsert day 2: %v", err)
	}

	_, rows, err := table.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]string{
		{"2025-08-01", "n1", "3"},
		{"2025-08-02", "n1", "6"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %v, got %v", want, rows)
	}
}

func TestUpsertByDateMigratesHeader(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "articles.csv"))

	oldHeader := []string{"date", "key", "like_count"}
	if _, err := table.UpsertByDate("2025-08-01", oldHeader, [][]string{{"2025-08-01", "n1", "3"}}); err != nil {
		t.Fatalf("upsert old schema: %v", err)
	}

	newHeader := []string{"date", "key", "like_count", "comment_count"}
	if _, err := table.UpsertByDate("2025-08-02", newHeader, [][]string{{"2025-08-02", "n1", "5", "2"}}); err != nil {
		t.Fatalf("upsert new schema: %v", err)
	}

	header, rows, err := table.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !reflect.DeepEqual(header, newHeader) {
		t.Fatalf("expected the new header to be adopted, got %v", header)
	}
	// The old row is carried verbatim, short columns and all.
	want := [][]string{
		{"2025-08-01", "n1", "3"},
		{"2025-08-02", "n1", "5", "2"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %v, got %v", want, rows)
	}
}

func TestRowsMissingFile(t *testing.T) {
	header, rows, err := NewTable(filepath.Join(t.TempDir(), "absent.csv")).Rows()
	if err != nil {
		t.Fatalf("missing table must not error: %v", err)
	}
	if header != nil || rows != nil {
		t.Fatalf("expected no data, got header=%v rows=%v", header, rows)
	}
}

func TestLoadLikeCountsByDate(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "articles.csv"))
	header := []string{"date", "note_id", "key", "title", "like_count"}
	rows := [][]string{
		{"2025-08-01", "1", "n1", "first", "3"},
		{"2025-08-01", "2", "n2", "second", "bogus"},
		{"2025-08-02", "1", "n1", "first", "5"},
	}
	if _, err := table.UpsertByDate("2025-08-01", header, rows[:2]); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := table.UpsertByDate("2025-08-02", header, rows[2:]); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	counts, err := LoadLikeCountsByDate(table.Path())
	if err != nil {
		t.Fatalf("LoadLikeCountsByDate: %v", err)
	}
	if got := counts["2025-08-01"]["n1"]; got != 3 {
		t.Fatalf("expected 3 likes for n1 on day 1, got %d", got)
	}
	if got := counts["2025-08-01"]["n2"]; got != 0 {
		t.Fatalf("expected unparseable like count to read as 0, got %d", got)
	}
	if got := counts["2025-08-02"]["n1"]; got != 5 {
		t.Fatalf("expected 5 likes for n1 on day 2, got %d", got)
	}
}

func TestLoadLikeCountsByDateMissingFile(t *testing.T) {
	counts, err := LoadLikeCountsByDate(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected empty counts, got %v", counts)
	}
}
