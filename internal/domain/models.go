package domain

import (
	"strconv"
	"time"
)

// Domain contains the persisted record shapes and their CSV encodings.

// DateLayout is the calendar-date format used for every dated row in the store.
const DateLayout = "2006-01-02"

// JST is the timezone all snapshot dates are taken in; note.com is a
// Japanese platform and its daily boundaries follow JST.
var JST = time.FixedZone("JST", 9*60*60)

// Today returns the current JST calendar date.
func Today() string {
	return time.Now().In(JST).Format(DateLayout)
}

// ParseDate parses a store calendar date in JST.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, JST)
}

// LikeIdentity is the composite key under which a like is unique: one user
// may appear at most once per note across all collection runs.
type LikeIdentity struct {
	NoteKey string
	LikerID string
}

// LikeRecord is one observed like. Records are append-only: created on first
// observation, never mutated or deleted.
type LikeRecord struct {
	NoteKey       string
	LikerID       string
	LikerName     string
	LikerHandle   string
	LikedAt       string
	FollowerCount int
}

// LikeLogHeader is the fixed schema of the like log file.
var LikeLogHeader = []string{"note_key", "like_user_id", "like_username", "like_user_urlname", "liked_at", "follower_count"}

// Identity returns the record's composite key.
func (r LikeRecord) Identity() LikeIdentity {
	return LikeIdentity{NoteKey: r.NoteKey, LikerID: r.LikerID}
}

// Row encodes the record as a like log CSV row.
func (r LikeRecord) Row() []string {
	return []string{
		r.NoteKey,
		r.LikerID,
		r.LikerName,
		r.LikerHandle,
		r.LikedAt,
		strconv.Itoa(r.FollowerCount),
	}
}

// ArticleStats is one article's engagement counters as reported by the
// stats endpoint.
type ArticleStats struct {
	ID           int64
	Key          string
	Title        string
	ReadCount    int
	LikeCount    int
	CommentCount int
}

// NoteMeta is the slowly-changing per-article metadata kept in the staleness
// cache. FetchedAt records the JST date the entry was last refreshed; an
// entry without it is never authoritative.
type NoteMeta struct {
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	FetchedAt   string `json:"fetched_at"`
}

// FreshAt reports whether the entry may be used on the given date without a
// refresh, i.e. it was fetched strictly less than window ago.
func (m NoteMeta) FreshAt(today string, window time.Duration) bool {
	if m.FetchedAt == "" {
		return false
	}
	fetched, err := ParseDate(m.FetchedAt)
	if err != nil {
		return false
	}
	now, err := ParseDate(today)
	if err != nil {
		return false
	}
	return now.Sub(fetched) < window
}

// SnapshotRow is one dated row of the article snapshot table.
type SnapshotRow struct {
	Date        string
	Stats       ArticleStats
	PublishedAt string
	CreatedAt   string
	UpdatedAt   string
	AgeDays     int // -1 when the publish date is unknown
}

// ArticlesHeader is the current schema of the article snapshot table. Older
// files may carry fewer columns; upserts migrate the header forward.
var ArticlesHeader = []string{
	"date", "note_id", "key", "title",
	"published_at", "created_at", "updated_at", "age_days",
	"read_count", "like_count", "comment_count",
}

// Row encodes the snapshot as an articles CSV row.
func (s SnapshotRow) Row() []string {
	age := ""
	if s.AgeDays >= 0 {
		age = strconv.Itoa(s.AgeDays)
	}
	return []string{
		s.Date,
		strconv.FormatInt(s.Stats.ID, 10),
		s.Stats.Key,
		s.Stats.Title,
		s.PublishedAt,
		s.CreatedAt,
		s.UpdatedAt,
		age,
		strconv.Itoa(s.Stats.ReadCount),
		strconv.Itoa(s.Stats.LikeCount),
		strconv.Itoa(s.Stats.CommentCount),
	}
}

// AgeDays returns whole days elapsed between a publish timestamp and the
// given date, or -1 when the timestamp is absent or unparseable. Publish
// timestamps arrive either as RFC3339 or as a bare date.
func AgeDays(publishedAt, today string) int {
	if publishedAt == "" {
		return -1
	}
	pub, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		pub, err = ParseDate(publishedAt)
		if err != nil {
			return -1
		}
	}
	now, err := ParseDate(today)
	if err != nil {
		return -1
	}
	y, m, d := pub.In(JST).Date()
	pubDay := time.Date(y, m, d, 0, 0, 0, 0, JST)
	days := int(now.Sub(pubDay) / (24 * time.Hour))
	if days < 0 {
		return -1
	}
	return days
}

// DailySummary is the per-date aggregate row.
type DailySummary struct {
	Date          string
	ArticleCount  int
	TotalPV       int
	TotalLike     int
	TotalComment  int
	FollowerCount *int // nil when the creator endpoint was unavailable
}

// SummaryHeader is the schema of the daily summary table.
var SummaryHeader = []string{"date", "article_count", "total_pv", "total_like", "total_comment", "follower_count"}

// Row encodes the summary as a CSV row; an unknown follower count becomes an
// empty cell rather than a zero.
func (d DailySummary) Row() []string {
	follower := ""
	if d.FollowerCount != nil {
		follower = strconv.Itoa(*d.FollowerCount)
	}
	return []string{
		d.Date,
		strconv.Itoa(d.ArticleCount),
		strconv.Itoa(d.TotalPV),
		strconv.Itoa(d.TotalLike),
		strconv.Itoa(d.TotalComment),
		follower,
	}
}
