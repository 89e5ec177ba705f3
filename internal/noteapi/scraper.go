package noteapi

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/pkg/httpclient"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// MetaScraper recovers publish timestamps from an article's public page when
// the detail endpoint fails. It reads the page's meta tags only.
type MetaScraper struct {
	client   httpclient.Client
	baseURL  string
	username string
}

// NewMetaScraper constructs a scraper for the given creator's article pages.
func NewMetaScraper(client httpclient.Client, baseURL, username string) *MetaScraper {
	return &MetaScraper{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
	}
}

// ScrapeMeta fetches the article page and extracts whatever timestamps its
// meta tags expose. FetchedAt is left for the caller to stamp.
func (s *MetaScraper) ScrapeMeta(ctx context.Context, noteKey string) (domain.NoteMeta, error) {
	if s.username == "" {
		return domain.NoteMeta{}, fmt.Errorf("scrape fallback needs NOTE_USERNAME to build the article URL")
	}
	url := fmt.Sprintf("%s/%s/n/%s", s.baseURL, s.username, noteKey)

	resp, err := s.client.Get(ctx, url, map[string]string{"User-Agent": "Mozilla/5.0"})
	if err != nil {
		return domain.NoteMeta{}, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return domain.NoteMeta{}, fmt.Errorf("status %d fetching %s", resp.StatusCode(), url)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.NoteMeta{}, fmt.Errorf("parse article page: %w", err)
	}

	meta := domain.NoteMeta{
		PublishedAt: metaContent(doc, `meta[property="article:published_time"]`),
		UpdatedAt:   metaContent(doc, `meta[property="article:modified_time"]`),
	}
	if meta.PublishedAt == "" {
		meta.PublishedAt = metaContent(doc, `meta[name="publish_date"]`)
	}
	if meta.PublishedAt == "" {
		return domain.NoteMeta{}, fmt.Errorf("article page carries no publish timestamp")
	}
	return meta, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
