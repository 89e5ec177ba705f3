package collector

import (
	"context"

	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
)

// Result is the outcome of collecting one article's likes. Truncated is set
// whenever completeness could not be proven against the reported total; it is
// a recoverable degradation, not an error.
type Result struct {
	Records       []domain.LikeRecord
	Expected      int
	ExpectedKnown bool
	Truncated     bool
}

// Collector walks the paginated likes endpoint for one article at a time.
//
// The endpoint's is_last_page flag cannot be trusted: it has been observed to
// report false forever and to resurface earlier records on later pages.
// Termination therefore relies on two independent conditions checked after
// every page: the distinct-record count reaching the total reported on the
// first page, or a page contributing no new distinct records at all.
type Collector struct {
	fetcher  PageFetcher
	pageSize int
	log      logger.Logger
}

// New builds a Collector over the given fetcher.
func New(fetcher PageFetcher, pageSize int, log logger.Logger) *Collector {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Collector{
		fetcher:  fetcher,
		pageSize: pageSize,
		log:      logger.Ensure(log),
	}
}

// Collect gathers every like for the note, deduplicated by liker id within
// the run. A page fetch or decode failure ends collection immediately with
// whatever was gathered so far; the caller treats that as an early stop, not
// a rollback. Against a well-behaved endpoint of N likes this issues at most
// ceil(N/pageSize)+1 requests.
func (c *Collector) Collect(ctx context.Context, noteKey string) Result {
	seen := make(map[string]struct{})
	var records []domain.LikeRecord
	start := 0
	expected := 0
	expectedKnown := false

	for {
		select {
		case <-ctx.Done():
			return c.finish(noteKey, records, expected, expectedKnown)
		default:
		}

		page, err := c.fetcher.LikesPage(ctx, noteKey, start, c.pageSize)
		if err != nil {
			c.log.WarnObj("likes page fetch failed; stopping collection for this note", "likes_fetch_error", map[string]any{
				"note_key":  noteKey,
				"start":     start,
				"collected": len(records),
				"error":     err.Error(),
			})
			return c.finish(noteKey, records, expected, expectedKnown)
		}

		if !expectedKnown && page.LikeCountKnown {
			expected = page.LikeCount
			expectedKnown = true
		}

		if len(page.Likes) == 0 {
			return c.finish(noteKey, records, expected, expectedKnown)
		}

		newInPage := 0
		for _, like := range page.Likes {
			id := like.User.ID.String()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			newInPage++
			records = append(records, domain.LikeRecord{
				NoteKey:       noteKey,
				LikerID:       id,
				LikerName:     like.User.Nickname,
				LikerHandle:   like.User.Urlname,
				LikedAt:       like.CreatedAt,
				FollowerCount: like.User.FollowerCount,
			})
		}

		// Either condition alone is sufficient to stop: the reported total
		// has been reached, or the endpoint is repeating already-seen data.
		if expectedKnown && len(records) >= expected {
			return c.finish(noteKey, records, expected, expectedKnown)
		}
		if newInPage == 0 {
			return c.finish(noteKey, records, expected, expectedKnown)
		}

		start += c.pageSize
	}
}

// finish assembles the Result. Completeness is proven only when a reported
// total exists and was reached; everything else is surfaced as truncated.
func (c *Collector) finish(noteKey string, records []domain.LikeRecord, expected int, expectedKnown bool) Result {
	res := Result{
		Records:       records,
		Expected:      expected,
		ExpectedKnown: expectedKnown,
		Truncated:     !(expectedKnown && len(records) >= expected),
	}
	if res.Truncated {
		c.log.WarnObj("like collection incomplete", "likes_truncated", map[string]any{
			"note_key":       noteKey,
			"collected":      len(records),
			"expected":       expected,
			"expected_known": expectedKnown,
		})
	}
	return res
}
