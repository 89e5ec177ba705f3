package dashboard

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/notepulse-hq/note-pulse/internal/logger"
	"github.com/notepulse-hq/note-pulse/internal/report"
)

// Server renders the collected tables as charts over HTTP. Data is reloaded
// on every request, so a running server always shows the latest sync.
type Server struct {
	articlesPath string
	summaryPath  string
	log          logger.Logger
}

func NewServer(articlesPath, summaryPath string, log logger.Logger) *Server {
	return &Server{
		articlesPath: articlesPath,
		summaryPath:  summaryPath,
		log:          logger.Ensure(log),
	}
}

// ListenAndServe blocks serving the dashboard on addr.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	s.log.InfoObj("dashboard listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	summaries, err := report.LoadDailySummaries(s.summaryPath)
	if err != nil {
		s.log.ErrorObj("load daily summaries", "error", err)
		http.Error(w, "failed to load summary data", http.StatusInternalServerError)
		return
	}
	articles, err := report.LoadArticles(s.articlesPath)
	if err != nil {
		s.log.ErrorObj("load articles", "error", err)
		http.Error(w, "failed to load article data", http.StatusInternalServerError)
		return
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Date < summaries[j].Date })

	if err := trendChart(summaries).Render(w); err != nil {
		s.log.WarnObj("render trend chart", "error", err)
		return
	}
	if err := topArticlesChart(articles).Render(w); err != nil {
		s.log.WarnObj("render top articles chart", "error", err)
		return
	}
	if follower := followerChart(summaries); follower != nil {
		if err := follower.Render(w); err != nil {
			s.log.WarnObj("render follower chart", "error", err)
		}
	}
}

// trendChart plots total PV and total likes per sync day.
func trendChart(summaries []report.SummaryRow) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "PV and like totals"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	var dates []string
	var pv, likes []opts.LineData
	for _, s := range summaries {
		dates = append(dates, s.Date)
		pv = append(pv, opts.LineData{Value: s.TotalPV})
		likes = append(likes, opts.LineData{Value: s.TotalLike})
	}
	line.SetXAxis(dates).
		AddSeries("Total PV", pv).
		AddSeries("Total likes", likes)
	return line
}

// topArticlesChart ranks the latest snapshot's articles by PV.
func topArticlesChart(articles []report.ArticleRow) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Top articles by PV (latest snapshot)"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	var latest string
	for _, a := range articles {
		if a.Date > latest {
			latest = a.Date
		}
	}
	var rows []report.ArticleRow
	for _, a := range articles {
		if a.Date == latest {
			rows = append(rows, a)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReadCount > rows[j].ReadCount })
	if len(rows) > 15 {
		rows = rows[:15]
	}

	var titles []string
	var pv, likes []opts.BarData
	for _, a := range rows {
		titles = append(titles, shortTitle(a.Title, a.Key))
		pv = append(pv, opts.BarData{Value: a.ReadCount})
		likes = append(likes, opts.BarData{Value: a.LikeCount})
	}
	bar.SetXAxis(titles).
		AddSeries("PV", pv).
		AddSeries("Likes", likes)
	return bar
}

// followerChart plots follower counts where recorded, or nil when the column
// is empty throughout.
func followerChart(summaries []report.SummaryRow) *charts.Line {
	var dates []string
	var counts []opts.LineData
	for _, s := range summaries {
		if s.FollowerCount == "" {
			continue
		}
		n, err := strconv.Atoi(s.FollowerCount)
		if err != nil {
			continue
		}
		dates = append(dates, s.Date)
		counts = append(counts, opts.LineData{Value: n})
	}
	if len(dates) == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Followers"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)
	line.SetXAxis(dates).AddSeries("Followers", counts)
	return line
}

func shortTitle(title, key string) string {
	if title == "" {
		return key
	}
	runes := []rune(title)
	if len(runes) > 16 {
		return fmt.Sprintf("%s…", string(runes[:16]))
	}
	return title
}
