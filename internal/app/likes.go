package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/notepulse-hq/note-pulse/internal/collector"
	"github.com/notepulse-hq/note-pulse/internal/config"
	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
	"github.com/notepulse-hq/note-pulse/internal/noteapi"
	"github.com/notepulse-hq/note-pulse/internal/storage"
	"github.com/notepulse-hq/note-pulse/pkg/httpclient"
	"github.com/notepulse-hq/note-pulse/pkg/publishers"
)

// LikesRunner is the like collection runtime: it decides which articles need
// re-collection, walks their paginated likes, and appends only genuinely new
// records to the like log.
type LikesRunner struct {
	cfg          *config.Config
	collector    *collector.Collector
	likeLog      *storage.LikeLog
	articlesPath string
	fanout       *publishers.Fanout
	log          logger.Logger
}

// NewLikesRunner wires a likes runtime from config. The likes endpoint is
// public, so no cookie validation happens here.
func NewLikesRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*LikesRunner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	client := httpclient.NewThrottledClient(
		httpclient.NewRestyClient(cfg.HTTPTimeout),
		cfg.PageInterval,
	)
	api := noteapi.New(client, cfg.BaseURL, cfg.Cookie, log)

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	return &LikesRunner{
		cfg:          cfg,
		collector:    collector.New(api, cfg.LikesPageSize, log),
		likeLog:      storage.NewLikeLog(filepath.Join(cfg.DataDir, "likes.csv")),
		articlesPath: filepath.Join(cfg.DataDir, "articles.csv"),
		fanout:       fanout,
		log:          log,
	}, nil
}

// Run performs one like collection pass. Dedup history failing to load is
// fatal: collecting against an empty index would silently re-append records
// and break the composite-key invariant.
func (r *LikesRunner) Run(ctx context.Context) error {
	idx, err := collector.LoadDedupIndex(r.likeLog.Path(), r.log)
	if err != nil {
		return fmt.Errorf("load dedup index: %w", err)
	}

	counts, err := storage.LoadLikeCountsByDate(r.articlesPath)
	if err != nil {
		return fmt.Errorf("load article snapshots: %w", err)
	}
	if len(counts) == 0 {
		r.log.WarnObj("no article snapshots yet; nothing to collect", "likes_meta", r.articlesPath)
		return nil
	}

	sel := collector.SelectTargets(counts, idx.Empty())
	r.log.InfoObj("collection targets selected", "selection_meta", map[string]any{
		"mode":    sel.Mode.String(),
		"targets": len(sel.Targets),
		"history": idx.Size(),
	})

	switch sel.Mode {
	case collector.ModeInsufficient:
		r.log.WarnObj("not enough snapshot dates to compare; skipping collection", "selection_meta", nil)
		return nil
	case collector.ModeIncremental:
		if len(sel.Targets) == 0 {
			r.log.InfoObj("no like count increased since the previous snapshot", "selection_meta", nil)
			return nil
		}
	}

	fresh := r.collectAll(ctx, sel.Targets, idx)

	appended, err := r.likeLog.Append(fresh)
	if err != nil {
		return fmt.Errorf("append like records: %w", err)
	}
	r.log.InfoObj("like collection completed", "likes_meta", map[string]any{
		"mode":     sel.Mode.String(),
		"targets":  len(sel.Targets),
		"appended": appended,
	})

	evt := publishers.NewEvent(publishers.RunLikes, domain.Today())
	evt.ArticleCount = len(sel.Targets)
	evt.NewLikeCount = appended
	publishEvent(ctx, r.fanout, evt, r.log)

	return nil
}

// collectAll walks the targets sequentially with the configured idle interval
// between articles. A per-article failure was already absorbed by the
// collector as an early stop; the loop always moves on to the next target.
func (r *LikesRunner) collectAll(ctx context.Context, targets []string, idx *collector.DedupIndex) []domain.LikeRecord {
	var fresh []domain.LikeRecord

	for i, key := range targets {
		select {
		case <-ctx.Done():
			r.log.WarnObj("collection interrupted", "likes_meta", map[string]any{
				"completed": i,
				"targets":   len(targets),
			})
			return fresh
		default:
		}

		res := r.collector.Collect(ctx, key)
		added := idx.FilterNew(res.Records)
		fresh = append(fresh, added...)

		r.log.InfoObj("article likes collected", "article_likes", map[string]any{
			"note_key":  key,
			"collected": len(res.Records),
			"new":       len(added),
			"truncated": res.Truncated,
			"progress":  fmt.Sprintf("%d/%d", i+1, len(targets)),
		})

		if r.cfg.ArticleInterval > 0 && i < len(targets)-1 {
			timer := time.NewTimer(r.cfg.ArticleInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fresh
			case <-timer.C:
			}
		}
	}
	return fresh
}
