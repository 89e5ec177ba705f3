package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/notepulse-hq/note-pulse/internal/noteapi"
)

// fakeFetcher serves scripted pages and counts requests. When the script is
// exhausted it keeps replaying the final page, imitating the real endpoint's
// habit of never reporting a last page.
type fakeFetcher struct {
	pages []noteapi.LikesPage
	errAt int // request ordinal that fails, 0 disables
	calls int
}

func (f *fakeFetcher) LikesPage(_ context.Context, _ string, start, size int) (noteapi.LikesPage, error) {
	f.calls++
	if f.errAt > 0 && f.calls == f.errAt {
		return noteapi.LikesPage{}, fmt.Errorf("status 500")
	}
	idx := start / size
	if idx >= len(f.pages) {
		idx = len(f.pages) - 1
	}
	return f.pages[idx], nil
}

func like(id string) noteapi.LikeEntry {
	return noteapi.LikeEntry{
		CreatedAt: "2025-08-01T12:00:00+09:00",
		User: noteapi.LikeUser{
			ID:       json.Number(id),
			Nickname: "user " + id,
			Urlname:  "u" + id,
		},
	}
}

func TestCollectStopsAtReportedTotal(t *testing.T) {
	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: []noteapi.LikeEntry{like("1"), like("2")}, LikeCount: 3, LikeCountKnown: true},
		{Likes: []noteapi.LikeEntry{like("3"), like("1")}, LikeCount: 3, LikeCountKnown: true},
	}}

	res := New(fetcher, 2, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(res.Records))
	}
	if res.Truncated {
		t.Fatalf("expected complete collection, got truncated (expected=%d known=%v)", res.Expected, res.ExpectedKnown)
	}
	// ceil(3/2)+1 = 3 requests is the allowed ceiling.
	if fetcher.calls > 3 {
		t.Fatalf("expected at most 3 requests, got %d", fetcher.calls)
	}
}

func TestCollectStopsWhenEndpointRepeats(t *testing.T) {
	// Total never reported and the endpoint replays the same page forever,
	// with is_last_page stuck false. The repeat condition must terminate.
	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: []noteapi.LikeEntry{like("1"), like("2")}, IsLastPage: false},
	}}

	res := New(fetcher, 2, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if !res.Truncated {
		t.Fatalf("expected truncated: completeness cannot be proven without a total")
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", fetcher.calls)
	}
}

func TestCollectRequestCeilingAgainstLyingEndpoint(t *testing.T) {
	// 5 likes, page size 2, and the endpoint keeps replaying its last page
	// after the real data runs out. Requests must stay within ceil(5/2)+1.
	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: []noteapi.LikeEntry{like("1"), like("2")}, LikeCount: 5, LikeCountKnown: true},
		{Likes: []noteapi.LikeEntry{like("3"), like("4")}, LikeCount: 5, LikeCountKnown: true},
		{Likes: []noteapi.LikeEntry{like("5"), like("4")}, LikeCount: 5, LikeCountKnown: true},
	}}

	res := New(fetcher, 2, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(res.Records))
	}
	if res.Truncated {
		t.Fatalf("expected complete collection")
	}
	if fetcher.calls > 4 {
		t.Fatalf("expected at most ceil(5/2)+1 = 4 requests, got %d", fetcher.calls)
	}
}

func TestCollectEmptyArticle(t *testing.T) {
	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: nil, LikeCount: 0, LikeCountKnown: true},
	}}

	res := New(fetcher, 50, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(res.Records))
	}
	if res.Truncated {
		t.Fatalf("zero likes with a reported total of zero is complete, not truncated")
	}
}

func TestCollectFetchErrorStopsEarly(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: []noteapi.LikesPage{
			{Likes: []noteapi.LikeEntry{like("1"), like("2")}, LikeCount: 4, LikeCountKnown: true},
			{Likes: []noteapi.LikeEntry{like("3"), like("4")}, LikeCount: 4, LikeCountKnown: true},
		},
		errAt: 2,
	}

	res := New(fetcher, 2, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 2 {
		t.Fatalf("expected the first page's 2 records, got %d", len(res.Records))
	}
	if !res.Truncated {
		t.Fatalf("expected truncated after a mid-collection fetch failure")
	}
}

func TestCollectSkipsRecordsWithoutLikerID(t *testing.T) {
	broken := noteapi.LikeEntry{CreatedAt: "2025-08-01T12:00:00+09:00"}
	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: []noteapi.LikeEntry{like("1"), broken}, LikeCount: 1, LikeCountKnown: true},
	}}

	res := New(fetcher, 50, nil).Collect(context.Background(), "n1")

	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	if res.Records[0].LikerID != "1" {
		t.Fatalf("unexpected liker id %q", res.Records[0].LikerID)
	}
}

func TestCollectHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{pages: []noteapi.LikesPage{
		{Likes: []noteapi.LikeEntry{like("1")}, LikeCount: 1, LikeCountKnown: true},
	}}

	res := New(fetcher, 50, nil).Collect(ctx, "n1")

	if fetcher.calls != 0 {
		t.Fatalf("expected no requests on a cancelled context, got %d", fetcher.calls)
	}
	if !res.Truncated {
		t.Fatalf("expected truncated result on cancellation")
	}
}
