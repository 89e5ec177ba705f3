package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notepulse-hq/note-pulse/internal/storage"
)

// Category metadata maintained by hand alongside the collected data. One row
// per article, keyed by note key.
type Category struct {
	Key           string
	Number        string
	Category      string
	Title         string
	PublishedDate string
}

// CategoryNames labels the editorial taxonomy.
var CategoryNames = map[string]string{
	"A": "philosophy",
	"B": "experiments",
	"C": "how-to",
	"D": "retrospective",
	"E": "character",
	"F": "early diary",
	"G": "special",
}

// CategoryOrder fixes display order across report sections.
var CategoryOrder = []string{"A", "B", "C", "D", "E", "F", "G"}

// monthlyIdeal is the target publication range per category over 30 days.
var monthlyIdeal = map[string][2]int{
	"A": {2, 3},
	"B": {5, 8},
	"C": {3, 4},
	"D": {4, 4},
	"E": {1, 2},
	"G": {0, 1},
}

// LoadCategories reads the category CSV keyed by note key.
func LoadCategories(path string) (map[string]Category, error) {
	header, rows, err := storage.NewTable(path).Rows()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return map[string]Category{}, nil
	}

	col := headerIndex(header)
	required := []string{"key", "article_number", "category", "title"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s header is missing column %q", path, name)
		}
	}

	out := make(map[string]Category, len(rows))
	for _, row := range rows {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		key := get("key")
		if key == "" {
			continue
		}
		out[key] = Category{
			Key:           key,
			Number:        get("article_number"),
			Category:      get("category"),
			Title:         get("title"),
			PublishedDate: get("published_date"),
		}
	}
	return out, nil
}

// ArticleRow is one snapshot row of the articles table, as the report
// consumes it.
type ArticleRow struct {
	Date         string
	Key          string
	Title        string
	ReadCount    int
	LikeCount    int
	CommentCount int
}

// LoadArticles reads the article snapshot table, resolving columns by name so
// both pre- and post-migration files parse.
func LoadArticles(path string) ([]ArticleRow, error) {
	header, rows, err := storage.NewTable(path).Rows()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, nil
	}

	col := headerIndex(header)
	for _, name := range []string{"date", "key", "read_count", "like_count"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s header is missing column %q", path, name)
		}
	}

	var out []ArticleRow
	for _, row := range rows {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, ArticleRow{
			Date:         get("date"),
			Key:          get("key"),
			Title:        get("title"),
			ReadCount:    atoi(get("read_count")),
			LikeCount:    atoi(get("like_count")),
			CommentCount: atoi(get("comment_count")),
		})
	}
	return out, nil
}

// SummaryRow is one daily summary row as the report and dashboard consume it.
type SummaryRow struct {
	Date          string
	TotalPV       int
	TotalLike     int
	FollowerCount string
}

// LoadDailySummaries reads the daily summary table. A missing file is fine;
// the follower section is simply omitted.
func LoadDailySummaries(path string) ([]SummaryRow, error) {
	header, rows, err := storage.NewTable(path).Rows()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, nil
	}

	col := headerIndex(header)
	dateIdx, ok := col["date"]
	if !ok {
		return nil, fmt.Errorf("%s header is missing column %q", path, "date")
	}
	followerIdx, hasFollower := col["follower_count"]

	var out []SummaryRow
	for _, row := range rows {
		if dateIdx >= len(row) {
			continue
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		s := SummaryRow{
			Date:      row[dateIdx],
			TotalPV:   atoi(get("total_pv")),
			TotalLike: atoi(get("total_like")),
		}
		if hasFollower && followerIdx < len(row) {
			s.FollowerCount = row[followerIdx]
		}
		out = append(out, s)
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
