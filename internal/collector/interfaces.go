package collector

import (
	"context"

	"github.com/notepulse-hq/note-pulse/internal/noteapi"
)

// PageFetcher performs one paginated likes request. Its retry policy and
// pacing are the implementation's concern; the collector only consumes pages.
type PageFetcher interface {
	LikesPage(ctx context.Context, noteKey string, start, size int) (noteapi.LikesPage, error)
}
