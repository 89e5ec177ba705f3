package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notepulse-hq/note-pulse/internal/domain"
)

func TestLikeLogAppendCreatesFileWithHeader(t *testing.T) {
	log := NewLikeLog(filepath.Join(t.TempDir(), "likes.csv"))

	n, err := log.Append([]domain.LikeRecord{
		{NoteKey: "n1", LikerID: "u1", LikerName: "Alice", LikerHandle: "alice", LikedAt: "2025-08-01T12:00:00+09:00", FollowerCount: 10},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row written, got %d", n)
	}

	raw, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read like log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(domain.LikeLogHeader, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "n1,u1,Alice,alice,2025-08-01T12:00:00+09:00,10" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestLikeLogAppendDoesNotRepeatHeader(t *testing.T) {
	log := NewLikeLog(filepath.Join(t.TempDir(), "likes.csv"))

	if _, err := log.Append([]domain.LikeRecord{{NoteKey: "n1", LikerID: "u1"}}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := log.Append([]domain.LikeRecord{{NoteKey: "n1", LikerID: "u2"}}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	raw, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read like log: %v", err)
	}
	content := string(raw)
	if strings.Count(content, domain.LikeLogHeader[0]) != 1 {
		t.Fatalf("expected a single header, got:\n%s", content)
	}
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
}

func TestLikeLogAppendWritesHeaderIntoBlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "likes.csv")
	if err := os.WriteFile(path, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("seed blank file: %v", err)
	}

	log := NewLikeLog(path)
	if _, err := log.Append([]domain.LikeRecord{{NoteKey: "n1", LikerID: "u1"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read like log: %v", err)
	}
	if !strings.Contains(string(raw), strings.Join(domain.LikeLogHeader, ",")) {
		t.Fatalf("expected header to be written into blank file, got:\n%s", raw)
	}
}

func TestLikeLogAppendNothing(t *testing.T) {
	log := NewLikeLog(filepath.Join(t.TempDir(), "likes.csv"))
	n, err := log.Append(nil)
	if err != nil {
		t.Fatalf("Append nil: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
	if _, err := os.Stat(log.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created for an empty batch")
	}
}
