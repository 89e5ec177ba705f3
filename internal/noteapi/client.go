package noteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
	"github.com/notepulse-hq/note-pulse/pkg/httpclient"
)

const userAgent = "note-pulse"

// StatsPage is one decoded page of the authenticated stats endpoint. Unlike
// the likes endpoint, its LastPage flag is reliable and drives pagination.
type StatsPage struct {
	Notes        []domain.ArticleStats
	LastPage     bool
	TotalPV      int
	TotalLike    int
	TotalComment int
}

// Client talks to the note.com JSON endpoints through an injected HTTP
// client. The cookie is only attached to authenticated endpoints.
type Client struct {
	http    httpclient.Client
	baseURL string
	cookie  string
	log     logger.Logger
}

// New constructs a Client. The http client is expected to carry the pacing
// policy; Client performs no throttling of its own.
func New(http httpclient.Client, baseURL, cookie string, log logger.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  cookie,
		log:     logger.Ensure(log),
	}
}

// LikesPage fetches one page of likes for a note. The endpoint is public and
// needs no cookie.
func (c *Client) LikesPage(ctx context.Context, noteKey string, start, size int) (LikesPage, error) {
	url := fmt.Sprintf("%s/api/v3/notes/%s/likes?start=%d&size=%d", c.baseURL, noteKey, start, size)
	headers := map[string]string{
		"Accept":     "application/json, text/plain, */*",
		"User-Agent": "Mozilla/5.0",
		"Referer":    c.baseURL + "/",
	}

	body, err := c.getJSON(ctx, url, headers)
	if err != nil {
		return LikesPage{}, err
	}

	var decoded likesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return LikesPage{}, fmt.Errorf("decode likes page: %w", err)
	}

	page := LikesPage{
		Likes:      decoded.Data.Likes,
		IsLastPage: decoded.Data.IsLastPage,
	}
	if decoded.Data.ExtraFields.LikeCount != nil {
		page.LikeCount = *decoded.Data.ExtraFields.LikeCount
		page.LikeCountKnown = true
	}
	return page, nil
}

// StatsPage fetches one page of per-article engagement counters.
func (c *Client) StatsPage(ctx context.Context, page int) (StatsPage, error) {
	url := fmt.Sprintf("%s/api/v1/stats/pv?filter=all&page=%d&sort=pv", c.baseURL, page)

	body, err := c.getJSON(ctx, url, c.authHeaders())
	if err != nil {
		return StatsPage{}, err
	}

	var decoded statsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return StatsPage{}, fmt.Errorf("decode stats page: %w", err)
	}
	if decoded.Data == nil || decoded.Data.NoteStats == nil {
		return StatsPage{}, fmt.Errorf("stats response has no note_stats; the session cookie is likely invalid or expired")
	}

	out := StatsPage{
		TotalPV:      decoded.Data.TotalPV,
		TotalLike:    decoded.Data.TotalLike,
		TotalComment: decoded.Data.TotalComment,
		LastPage:     true,
	}
	if decoded.Data.LastPage != nil {
		out.LastPage = *decoded.Data.LastPage
	}
	for _, n := range decoded.Data.NoteStats {
		out.Notes = append(out.Notes, domain.ArticleStats{
			ID:           n.ID,
			Key:          n.Key,
			Title:        n.Name,
			ReadCount:    n.ReadCount,
			LikeCount:    n.LikeCount,
			CommentCount: n.CommentCount,
		})
	}
	return out, nil
}

// VerifyAuth confirms the cookie is accepted by the stats endpoint before a
// run starts paging it.
func (c *Client) VerifyAuth(ctx context.Context) error {
	if _, err := c.StatsPage(ctx, 1); err != nil {
		return fmt.Errorf("auth check: %w", err)
	}
	return nil
}

// FollowerCount fetches the creator's current follower count.
func (c *Client) FollowerCount(ctx context.Context, username string) (int, error) {
	url := fmt.Sprintf("%s/api/v2/creators/%s", c.baseURL, username)

	body, err := c.getJSON(ctx, url, c.authHeaders())
	if err != nil {
		return 0, err
	}

	var decoded creatorResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("decode creator response: %w", err)
	}
	if decoded.Data.FollowerCount == nil {
		return 0, fmt.Errorf("creator response for %q has no followerCount", username)
	}
	return *decoded.Data.FollowerCount, nil
}

// NoteDetail fetches the slowly-changing timestamps for one note.
func (c *Client) NoteDetail(ctx context.Context, noteKey string) (domain.NoteMeta, error) {
	url := fmt.Sprintf("%s/api/v3/notes/%s", c.baseURL, noteKey)

	body, err := c.getJSON(ctx, url, c.authHeaders())
	if err != nil {
		return domain.NoteMeta{}, err
	}

	var decoded noteDetailResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.NoteMeta{}, fmt.Errorf("decode note detail: %w", err)
	}
	return domain.NoteMeta{
		PublishedAt: decoded.Data.PublishAt,
		CreatedAt:   decoded.Data.CreatedAt,
		UpdatedAt:   decoded.Data.UpdatedAt,
	}, nil
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"Cookie":     c.cookie,
		"User-Agent": userAgent,
	}
}

func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.http.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		if code := resp.StatusCode(); code == 401 || code == 403 {
			return nil, fmt.Errorf("status %d: cookie rejected; refresh NOTE_COOKIE", code)
		}
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}
	return resp.Body(), nil
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}
