package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/notepulse-hq/note-pulse/internal/config"
	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
	"github.com/notepulse-hq/note-pulse/internal/noteapi"
	"github.com/notepulse-hq/note-pulse/internal/storage"
	"github.com/notepulse-hq/note-pulse/pkg/httpclient"
	"github.com/notepulse-hq/note-pulse/pkg/publishers"
)

// Tracker is the daily snapshot runtime: it pages the stats endpoint,
// refreshes stale article metadata through the cache, and upserts the dated
// snapshot tables.
type Tracker struct {
	cfg      *config.Config
	api      *noteapi.Client
	scraper  *noteapi.MetaScraper
	articles *storage.Table
	summary  *storage.Table
	cache    *storage.MetaCache
	fanout   *publishers.Fanout
	log      logger.Logger
}

// NewTracker wires a tracker runtime from config.
func NewTracker(ctx context.Context, cfg *config.Config, log logger.Logger) (*Tracker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	if err := config.ValidateCookie(cfg.Cookie); err != nil {
		return nil, err
	}
	if config.CookieSuspiciouslyShort(cfg.Cookie) {
		log.WarnObj("NOTE_COOKIE looks truncated; expect auth failures", "cookie_length", len(cfg.Cookie))
	}

	client := httpclient.NewThrottledClient(
		httpclient.NewRestyClient(cfg.HTTPTimeout),
		cfg.PageInterval,
	)
	api := noteapi.New(client, cfg.BaseURL, cfg.Cookie, log)
	scraper := noteapi.NewMetaScraper(client, cfg.BaseURL, cfg.Username)

	cache, err := storage.OpenMetaCache(cfg.MetaCachePath, storage.CacheOptions{Staleness: cfg.MetaStaleness}, log)
	if err != nil {
		return nil, fmt.Errorf("init meta cache: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	return &Tracker{
		cfg:      cfg,
		api:      api,
		scraper:  scraper,
		articles: storage.NewTable(filepath.Join(cfg.DataDir, "articles.csv")),
		summary:  storage.NewTable(filepath.Join(cfg.DataDir, "daily_summary.csv")),
		cache:    cache,
		fanout:   fanout,
		log:      log,
	}, nil
}

// Close releases the metadata cache.
func (t *Tracker) Close() error {
	if t == nil || t.cache == nil {
		return nil
	}
	return t.cache.Close()
}

// Run performs one daily snapshot collection. Every persistence step is an
// upsert keyed by today's date, so re-running on the same day replaces that
// date's rows and touches nothing else.
func (t *Tracker) Run(ctx context.Context) error {
	today := domain.Today()
	t.warnCookieAge()

	if err := t.api.VerifyAuth(ctx); err != nil {
		return err
	}

	stats, totals, err := t.fetchAllStats(ctx)
	if err != nil {
		return err
	}

	follower := t.fetchFollowerCount(ctx)

	rows := t.buildSnapshotRows(ctx, today, stats)
	written, err := t.articles.UpsertByDate(today, domain.ArticlesHeader, rows)
	if err != nil {
		return fmt.Errorf("upsert articles: %w", err)
	}

	summary := domain.DailySummary{
		Date:          today,
		ArticleCount:  len(stats),
		TotalPV:       totals.TotalPV,
		TotalLike:     totals.TotalLike,
		TotalComment:  totals.TotalComment,
		FollowerCount: follower,
	}
	if _, err := t.summary.UpsertByDate(today, domain.SummaryHeader, [][]string{summary.Row()}); err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}

	t.log.InfoObj("daily snapshot stored", "snapshot_meta", map[string]any{
		"date":          today,
		"articles":      written,
		"total_pv":      totals.TotalPV,
		"total_like":    totals.TotalLike,
		"total_comment": totals.TotalComment,
	})

	evt := publishers.NewEvent(publishers.RunStats, today)
	evt.ArticleCount = len(stats)
	evt.TotalPV = totals.TotalPV
	evt.TotalLike = totals.TotalLike
	evt.TotalComment = totals.TotalComment
	evt.FollowerCount = follower
	publishEvent(ctx, t.fanout, evt, t.log)

	return nil
}

// fetchAllStats pages the stats endpoint to exhaustion. Its last_page flag is
// reliable, unlike the likes endpoint's.
func (t *Tracker) fetchAllStats(ctx context.Context) ([]domain.ArticleStats, noteapi.StatsPage, error) {
	var all []domain.ArticleStats
	var last noteapi.StatsPage

	for page := 1; ; page++ {
		stats, err := t.api.StatsPage(ctx, page)
		if err != nil {
			return nil, noteapi.StatsPage{}, fmt.Errorf("stats page %d: %w", page, err)
		}
		all = append(all, stats.Notes...)
		last = stats
		if stats.LastPage {
			break
		}
	}
	return all, last, nil
}

// fetchFollowerCount is best-effort: an unset username or a failed creator
// call leaves the summary cell empty.
func (t *Tracker) fetchFollowerCount(ctx context.Context) *int {
	if t.cfg.Username == "" {
		t.log.WarnObj("NOTE_USERNAME not set; skipping follower count", "follower_meta", nil)
		return nil
	}
	count, err := t.api.FollowerCount(ctx, t.cfg.Username)
	if err != nil {
		t.log.WarnObj("follower count fetch failed", "follower_error", map[string]any{
			"username": t.cfg.Username,
			"error":    err.Error(),
		})
		return nil
	}
	return &count
}

// buildSnapshotRows resolves per-article metadata through the staleness cache
// and encodes today's snapshot rows. Metadata failures degrade to empty
// timestamp cells; counters are always written.
func (t *Tracker) buildSnapshotRows(ctx context.Context, today string, stats []domain.ArticleStats) [][]string {
	refreshed := make(map[string]domain.NoteMeta)
	rows := make([][]string, 0, len(stats))

	for _, st := range stats {
		meta, ok, err := t.cache.Get(st.Key, today)
		if err != nil {
			t.log.WarnObj("meta cache read failed; refetching", "meta_cache_error", map[string]any{
				"note_key": st.Key,
				"error":    err.Error(),
			})
			ok = false
		}
		if !ok {
			meta = t.refreshMeta(ctx, st.Key)
			meta.FetchedAt = today
			refreshed[st.Key] = meta
		}

		rows = append(rows, domain.SnapshotRow{
			Date:        today,
			Stats:       st,
			PublishedAt: meta.PublishedAt,
			CreatedAt:   meta.CreatedAt,
			UpdatedAt:   meta.UpdatedAt,
			AgeDays:     domain.AgeDays(meta.PublishedAt, today),
		}.Row())
	}

	if err := t.cache.PutAll(refreshed); err != nil {
		t.log.WarnObj("meta cache write failed", "meta_cache_error", map[string]any{
			"entries": len(refreshed),
			"error":   err.Error(),
		})
	}
	return rows
}

// refreshMeta fetches timestamps from the detail endpoint, falling back to
// scraping the article page when the endpoint fails. Both failing leaves the
// entry empty; it will be retried once the fetched_at stamp goes stale.
func (t *Tracker) refreshMeta(ctx context.Context, noteKey string) domain.NoteMeta {
	meta, err := t.api.NoteDetail(ctx, noteKey)
	if err == nil {
		return meta
	}
	t.log.WarnObj("note detail fetch failed; trying page scrape", "meta_fetch_error", map[string]any{
		"note_key": noteKey,
		"error":    err.Error(),
	})

	scraped, serr := t.scraper.ScrapeMeta(ctx, noteKey)
	if serr != nil {
		t.log.WarnObj("article page scrape failed", "meta_scrape_error", map[string]any{
			"note_key": noteKey,
			"error":    serr.Error(),
		})
		return domain.NoteMeta{}
	}
	return scraped
}

// warnCookieAge surfaces cookie expiry ahead of the hard failure.
func (t *Tracker) warnCookieAge() {
	remaining, ok := config.CookieDaysRemaining(t.cfg.CookieSetDate, time.Now())
	if !ok {
		if t.cfg.CookieSetDate != "" {
			t.log.WarnObj("COOKIE_SET_DATE does not parse; skipping expiry check", "cookie_meta", t.cfg.CookieSetDate)
		}
		return
	}
	switch {
	case remaining <= 0:
		t.log.ErrorObj("session cookie has likely expired", "cookie_meta", map[string]any{"days_remaining": remaining})
	case remaining <= 10:
		t.log.WarnObj("session cookie expires soon; refresh it", "cookie_meta", map[string]any{"days_remaining": remaining})
	default:
		t.log.InfoObj("session cookie age checked", "cookie_meta", map[string]any{"days_remaining": remaining})
	}
}
