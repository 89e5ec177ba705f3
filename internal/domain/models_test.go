package domain

import (
	"testing"
	"time"
)

func TestAgeDays(t *testing.T) {
	cases := []struct {
		name        string
		publishedAt string
		today       string
		want        int
	}{
		{"rfc3339", "2025-07-30T21:30:00+09:00", "2025-08-02", 3},
		{"bare date", "2025-07-30", "2025-08-02", 3},
		{"same day", "2025-08-02T23:59:00+09:00", "2025-08-02", 0},
		{"empty", "", "2025-08-02", -1},
		{"garbage", "not a time", "2025-08-02", -1},
		{"future publish", "2025-08-05", "2025-08-02", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgeDays(tc.publishedAt, tc.today); got != tc.want {
				t.Fatalf("AgeDays(%q, %q) = %d, want %d", tc.publishedAt, tc.today, got, tc.want)
			}
		})
	}
}

func TestAgeDaysConvertsTimezone(t *testing.T) {
	// 2025-07-31 23:00 UTC is already 2025-08-01 in JST.
	if got := AgeDays("2025-07-31T23:00:00Z", "2025-08-02"); got != 1 {
		t.Fatalf("expected 1 JST day, got %d", got)
	}
}

func TestFreshAt(t *testing.T) {
	window := 7 * 24 * time.Hour
	meta := NoteMeta{FetchedAt: "2025-08-01"}

	if !meta.FreshAt("2025-08-07", window) {
		t.Fatalf("six days after fetch must be fresh")
	}
	if meta.FreshAt("2025-08-08", window) {
		t.Fatalf("exactly the window after fetch must be stale")
	}
	if (NoteMeta{}).FreshAt("2025-08-01", window) {
		t.Fatalf("an entry without a fetch date is never fresh")
	}
	if (NoteMeta{FetchedAt: "bogus"}).FreshAt("2025-08-01", window) {
		t.Fatalf("an unparseable fetch date is never fresh")
	}
}

func TestLikeRecordRowMatchesHeader(t *testing.T) {
	rec := LikeRecord{
		NoteKey:       "n1",
		LikerID:       "42",
		LikerName:     "Alice",
		LikerHandle:   "alice",
		LikedAt:       "2025-08-01T12:00:00+09:00",
		FollowerCount: 7,
	}
	row := rec.Row()
	if len(row) != len(LikeLogHeader) {
		t.Fatalf("row has %d cells for a %d-column header", len(row), len(LikeLogHeader))
	}
	if row[0] != "n1" || row[1] != "42" || row[5] != "7" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestSnapshotRowEncoding(t *testing.T) {
	row := SnapshotRow{
		Date:        "2025-08-02",
		Stats:       ArticleStats{ID: 9, Key: "n1", Title: "hello", ReadCount: 100, LikeCount: 5, CommentCount: 1},
		PublishedAt: "2025-07-30T21:30:00+09:00",
		AgeDays:     3,
	}.Row()
	if len(row) != len(ArticlesHeader) {
		t.Fatalf("row has %d cells for a %d-column header", len(row), len(ArticlesHeader))
	}
	if row[7] != "3" {
		t.Fatalf("expected age_days cell \"3\", got %q", row[7])
	}

	unknown := SnapshotRow{Date: "2025-08-02", Stats: ArticleStats{Key: "n1"}, AgeDays: -1}.Row()
	if unknown[7] != "" {
		t.Fatalf("unknown age must encode as an empty cell, got %q", unknown[7])
	}
}

func TestDailySummaryRow(t *testing.T) {
	n := 120
	with := DailySummary{Date: "2025-08-02", ArticleCount: 3, TotalPV: 500, TotalLike: 20, TotalComment: 2, FollowerCount: &n}.Row()
	if with[5] != "120" {
		t.Fatalf("expected follower cell \"120\", got %q", with[5])
	}
	without := DailySummary{Date: "2025-08-02"}.Row()
	if without[5] != "" {
		t.Fatalf("unknown follower count must encode as an empty cell, got %q", without[5])
	}
	if len(with) != len(SummaryHeader) {
		t.Fatalf("row has %d cells for a %d-column header", len(with), len(SummaryHeader))
	}
}

func TestParseDateIsJST(t *testing.T) {
	d, err := ParseDate("2025-08-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if zone, offset := d.Zone(); zone != "JST" || offset != 9*60*60 {
		t.Fatalf("expected JST, got %s offset %d", zone, offset)
	}
}
