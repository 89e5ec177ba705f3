package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/notepulse-hq/note-pulse/internal/domain"
)

// Package report renders the weekly Markdown review from the persisted
// snapshot tables and the hand-maintained category file.

// minRankingPV filters articles with too few views out of the like-rate
// ranking, where a single like would dominate the ratio.
const minRankingPV = 10

// NormalizeWeekStart parses the requested week start and snaps it back to the
// preceding Monday when it is mid-week.
func NormalizeWeekStart(date string) (string, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("week start %q is not a valid date: %w", date, err)
	}
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset).Format(domain.DateLayout), nil
}

// Generate renders the weekly report for the Monday-start week.
func Generate(weekStart string, articles []ArticleRow, cats map[string]Category, summaries []SummaryRow) (string, error) {
	start, err := domain.ParseDate(weekStart)
	if err != nil {
		return "", fmt.Errorf("invalid week start: %w", err)
	}
	weekEnd := start.AddDate(0, 0, 6).Format(domain.DateLayout)

	dataDate := latestDateUpTo(articles, weekEnd)
	snapshot := latestSnapshot(articles, dataDate)
	weekArts := weekArticles(cats, weekStart, weekEnd)

	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly report %s to %s\n\n", weekStart, weekEnd)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().In(domain.JST).Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Data as of: %s\n\n", dataDate)

	violations := writeCategoryBalance(&b, weekArts)
	catAvg := writeCategoryEta(&b, snapshot, cats)
	orderBreaks := checkEtaOrder(&b, catAvg)
	writeEtaRanking(&b, snapshot, cats)
	writeZones(&b, snapshot, cats)
	writeGrowth(&b, articles, cats)
	monthShort := writeMonthlyRatio(&b, cats, weekEnd)
	writeFollowerTrend(&b, summaries, weekStart, weekEnd)
	writeActions(&b, violations, orderBreaks, monthShort)

	return b.String(), nil
}

// latestDateUpTo finds the most recent snapshot date not after the limit,
// falling back to the overall latest when all data is newer.
func latestDateUpTo(articles []ArticleRow, limit string) string {
	var latest, latestValid string
	for _, row := range articles {
		if row.Date > latest {
			latest = row.Date
		}
		if row.Date <= limit && row.Date > latestValid {
			latestValid = row.Date
		}
	}
	if latestValid != "" {
		return latestValid
	}
	if latest != "" {
		return latest
	}
	return limit
}

// latestSnapshot picks each article's newest row not after asOf.
func latestSnapshot(articles []ArticleRow, asOf string) map[string]ArticleRow {
	latest := make(map[string]ArticleRow)
	for _, row := range articles {
		if row.Date > asOf {
			continue
		}
		if cur, ok := latest[row.Key]; !ok || row.Date >= cur.Date {
			latest[row.Key] = row
		}
	}
	return latest
}

// weekArticles returns the category entries published inside the week,
// sorted by article number with non-numeric numbers last.
func weekArticles(cats map[string]Category, weekStart, weekEnd string) []Category {
	var arts []Category
	for _, c := range cats {
		if c.PublishedDate != "" && c.PublishedDate >= weekStart && c.PublishedDate <= weekEnd {
			arts = append(arts, c)
		}
	}
	sort.Slice(arts, func(i, j int) bool {
		ni, iOK := atoiOK(arts[i].Number)
		nj, jOK := atoiOK(arts[j].Number)
		switch {
		case iOK && jOK:
			return ni < nj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return arts[i].Number < arts[j].Number
		}
	})
	return arts
}

func writeCategoryBalance(b *strings.Builder, weekArts []Category) bool {
	b.WriteString("---\n\n## Category balance this week\n\n")
	if len(weekArts) == 0 {
		b.WriteString("No articles published this week.\n\n")
		return false
	}

	counts := map[string]int{}
	for _, a := range weekArts {
		counts[a.Category]++
	}
	fmt.Fprintf(b, "Published: **%d articles**\n\n", len(weekArts))

	b.WriteString("| # | Category | Title | Published |\n|---|----------|-------|----------|\n")
	for _, a := range weekArts {
		fmt.Fprintf(b, "| %s | %s(%s) | %s | %s |\n", a.Number, a.Category, CategoryNames[a.Category], a.Title, a.PublishedDate)
	}
	b.WriteString("\n")

	ab := counts["A"] + counts["B"]
	cd := counts["C"] + counts["D"]
	balanced := true
	if ab >= 2 {
		fmt.Fprintf(b, "OK: A+B = %d (primary-material zone held)\n", ab)
	} else {
		fmt.Fprintf(b, "WARNING: A+B = %d (below 2; add an A or B piece next week)\n", ab)
		balanced = false
	}
	if cd > ab && ab < 2 {
		fmt.Fprintf(b, "WARNING: C+D = %d exceeds A+B; leaning on how-to and retrospectives\n", cd)
	}
	if counts["E"] > 2 {
		fmt.Fprintf(b, "NOTE: E = %d; character pieces above the 1-2 per month target\n", counts["E"])
	}
	b.WriteString("\n")
	return !balanced
}

func writeCategoryEta(b *strings.Builder, snapshot map[string]ArticleRow, cats map[string]Category) map[string]float64 {
	b.WriteString("---\n\n## Like rate by category (all articles)\n\n")
	b.WriteString("| Category | Articles | Mean η | Median η |\n|----------|----------|--------|----------|\n")

	etasByCat := map[string][]float64{}
	for key, snap := range snapshot {
		cat, ok := cats[key]
		if !ok {
			continue
		}
		if e, ok := eta(snap.ReadCount, snap.LikeCount); ok {
			etasByCat[cat.Category] = append(etasByCat[cat.Category], e)
		}
	}

	avg := map[string]float64{}
	for _, cat := range CategoryOrder {
		etas := etasByCat[cat]
		if len(etas) == 0 {
			fmt.Fprintf(b, "| %s(%s) | 0 | - | - |\n", cat, CategoryNames[cat])
			continue
		}
		sum := 0.0
		for _, e := range etas {
			sum += e
		}
		avg[cat] = sum / float64(len(etas))
		fmt.Fprintf(b, "| %s(%s) | %d | %.1f%% | %.1f%% |\n",
			cat, CategoryNames[cat], len(etas), avg[cat]*100, medianFloat(etas)*100)
	}
	b.WriteString("\n")
	return avg
}

// checkEtaOrder verifies the hypothesis ordering A > B > C,D > E.
func checkEtaOrder(b *strings.Builder, avg map[string]float64) []string {
	pairs := [][2]string{{"A", "B"}, {"B", "C"}, {"B", "D"}, {"C", "E"}, {"D", "E"}}
	var broken []string
	for _, p := range pairs {
		hi, hiOK := avg[p[0]]
		lo, loOK := avg[p[1]]
		if hiOK && loOK && hi < lo {
			broken = append(broken, fmt.Sprintf("%s(%.1f%%) < %s(%.1f%%)", p[0], hi*100, p[1], lo*100))
		}
	}
	if len(broken) == 0 {
		b.WriteString("OK: hypothesis ordering (A > B > C,D > E) holds\n\n")
	} else {
		b.WriteString("Ordering breaks:\n")
		for _, v := range broken {
			fmt.Fprintf(b, "- %s\n", v)
		}
		b.WriteString("\n")
	}
	return broken
}

func writeEtaRanking(b *strings.Builder, snapshot map[string]ArticleRow, cats map[string]Category) {
	b.WriteString("---\n\n## Like rate ranking TOP20\n\n")

	type ranked struct {
		ArticleRow
		Eta      float64
		Number   string
		Category string
	}
	var ranking []ranked
	for key, snap := range snapshot {
		e, ok := eta(snap.ReadCount, snap.LikeCount)
		if !ok || snap.ReadCount < minRankingPV {
			continue
		}
		cat := cats[key]
		ranking = append(ranking, ranked{ArticleRow: snap, Eta: e, Number: cat.Number, Category: cat.Category})
	}
	sort.Slice(ranking, func(i, j int) bool { return ranking[i].Eta > ranking[j].Eta })
	if len(ranking) > 20 {
		ranking = ranking[:20]
	}

	b.WriteString("| Rank | # | Cat | η | PV | Likes | Title |\n|------|---|-----|---|----|-------|-------|\n")
	for i, r := range ranking {
		fmt.Fprintf(b, "| %d | %s | %s | %.1f%% | %d | %d | %s |\n",
			i+1, r.Number, r.Category, r.Eta*100, r.ReadCount, r.LikeCount, truncate(r.Title, 40))
	}
	b.WriteString("\n")

	top10 := map[string]int{}
	for i, r := range ranking {
		if i >= 10 {
			break
		}
		top10[r.Category]++
	}
	ab := top10["A"] + top10["B"]
	cd := top10["C"] + top10["D"]
	if ab >= 5 {
		b.WriteString("OK: A and B dominate the TOP10, matching the hypothesis\n")
	} else if cd > ab {
		b.WriteString("NOTE: C and D dominate the TOP10; practical pieces are landing right now\n")
	}
	if top10["E"] >= 2 {
		b.WriteString("NOTE: E pieces ranked in; a sign the regular audience is growing\n")
	}
	b.WriteString("\n")
}

func writeZones(b *strings.Builder, snapshot map[string]ArticleRow, cats map[string]Category) {
	b.WriteString("---\n\n## PV x likes zones by category\n\n")

	var pvs, likes []int
	for _, snap := range snapshot {
		if snap.ReadCount > 0 {
			pvs = append(pvs, snap.ReadCount)
		}
		likes = append(likes, snap.LikeCount)
	}
	if len(pvs) == 0 {
		b.WriteString("Not enough data for zoning.\n\n")
		return
	}
	pvMed := medianInt(pvs)
	likeMed := medianInt(likes)
	fmt.Fprintf(b, "Thresholds: PV median = %d, like median = %d\n\n", pvMed, likeMed)

	zones := map[string]map[string]int{}
	zoneOf := func(pv, like int) string {
		switch {
		case pv >= pvMed && like >= likeMed:
			return "high PV / high likes"
		case pv >= pvMed:
			return "high PV / low likes"
		case like >= likeMed:
			return "low PV / high likes"
		default:
			return "low PV / low likes"
		}
	}
	var lowAB []string
	for key, snap := range snapshot {
		cat, ok := cats[key]
		if !ok {
			continue
		}
		zone := zoneOf(snap.ReadCount, snap.LikeCount)
		if zones[zone] == nil {
			zones[zone] = map[string]int{}
		}
		zones[zone][cat.Category]++
		if (cat.Category == "A" || cat.Category == "B") && zone == "low PV / low likes" {
			lowAB = append(lowAB, fmt.Sprintf("- #%s %s (PV:%d likes:%d)", cat.Number, truncate(cat.Title, 35), snap.ReadCount, snap.LikeCount))
		}
	}

	for _, zone := range []string{"high PV / high likes", "high PV / low likes", "low PV / high likes", "low PV / low likes"} {
		dist := zones[zone]
		var parts []string
		for _, cat := range CategoryOrder {
			if n := dist[cat]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s:%d", cat, n))
			}
		}
		fmt.Fprintf(b, "**%s**: %s\n", zone, strings.Join(parts, " "))
	}
	b.WriteString("\n")

	if len(lowAB) > 0 {
		sort.Strings(lowAB)
		b.WriteString("WARNING: A/B articles stuck in the low/low zone (title or theme issue):\n")
		for i, line := range lowAB {
			if i >= 5 {
				break
			}
			b.WriteString(line + "\n")
		}
	} else {
		b.WriteString("OK: no A/B articles concentrated in the low/low zone\n")
	}
	b.WriteString("\n")
}

func writeGrowth(b *strings.Builder, articles []ArticleRow, cats map[string]Category) {
	b.WriteString("---\n\n## A/B growth (first vs latest snapshot)\n\n")

	byKey := map[string][]ArticleRow{}
	for _, row := range articles {
		if cat, ok := cats[row.Key]; ok && (cat.Category == "A" || cat.Category == "B") {
			byKey[row.Key] = append(byKey[row.Key], row)
		}
	}

	type growth struct {
		Number, Category, Title string
		PVGrowth, Days          int
		PVPerDay                float64
	}
	var rows []growth
	for key, keyRows := range byKey {
		sort.Slice(keyRows, func(i, j int) bool { return keyRows[i].Date < keyRows[j].Date })
		if len(keyRows) < 2 {
			continue
		}
		first, last := keyRows[0], keyRows[len(keyRows)-1]
		firstDay, err1 := domain.ParseDate(first.Date)
		lastDay, err2 := domain.ParseDate(last.Date)
		if err1 != nil || err2 != nil {
			continue
		}
		days := int(lastDay.Sub(firstDay) / (24 * time.Hour))
		if days == 0 {
			continue
		}
		cat := cats[key]
		rows = append(rows, growth{
			Number:   cat.Number,
			Category: cat.Category,
			Title:    cat.Title,
			PVGrowth: last.ReadCount - first.ReadCount,
			Days:     days,
			PVPerDay: float64(last.ReadCount-first.ReadCount) / float64(days),
		})
	}
	if len(rows) == 0 {
		b.WriteString("Fewer than two days of data for A/B articles.\n\n")
		return
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PVPerDay > rows[j].PVPerDay })

	b.WriteString("| # | Cat | PV delta | Days | PV/day | Trend | Title |\n|---|-----|----------|------|--------|-------|-------|\n")
	longTail, flat := 0, 0
	for i, g := range rows {
		trend := "flat"
		switch {
		case g.PVPerDay >= 2.0:
			trend = "rising"
			longTail++
		case g.PVPerDay < 0.5:
			trend = "fading"
			flat++
		}
		if i < 15 {
			fmt.Fprintf(b, "| %s | %s | %+d | %d | %.1f | %s | %s |\n",
				g.Number, g.Category, g.PVGrowth, g.Days, g.PVPerDay, trend, truncate(g.Title, 35))
		}
	}
	b.WriteString("\n")
	if longTail > 0 {
		fmt.Fprintf(b, "Long-tail articles (PV/day >= 2.0): %d; primary material keeps pulling\n", longTail)
	}
	if flat > 0 {
		fmt.Fprintf(b, "Launch-day articles (PV/day < 0.5): %d; structure worth revisiting\n", flat)
	}
	b.WriteString("\n")
}

// writeMonthlyRatio reports the trailing-30-day category mix against the
// monthly ideals and returns the categories currently undersupplied.
func writeMonthlyRatio(b *strings.Builder, cats map[string]Category, weekEnd string) []string {
	b.WriteString("---\n\n## Reference: category mix, trailing 30 days\n\n")

	end, err := domain.ParseDate(weekEnd)
	if err != nil {
		return nil
	}
	monthStart := end.AddDate(0, 0, -29).Format(domain.DateLayout)

	counts := map[string]int{}
	total := 0
	for _, c := range cats {
		if c.PublishedDate != "" && c.PublishedDate >= monthStart && c.PublishedDate <= weekEnd {
			counts[c.Category]++
			total++
		}
	}
	fmt.Fprintf(b, "Window: %s to %s (%d articles)\n\n", monthStart, weekEnd, total)

	b.WriteString("| Category | Actual | Ideal (monthly) | Verdict |\n|----------|--------|-----------------|--------|\n")
	var short []string
	for _, cat := range CategoryOrder {
		actual := counts[cat]
		ideal, ok := monthlyIdeal[cat]
		if !ok {
			fmt.Fprintf(b, "| %s(%s) | %d | - | |\n", cat, CategoryNames[cat], actual)
			continue
		}
		verdict := "OK"
		switch {
		case actual < ideal[0]:
			verdict = "short"
			if cat == "A" || cat == "B" {
				short = append(short, cat)
			}
		case actual > ideal[1]:
			verdict = "heavy"
		}
		fmt.Fprintf(b, "| %s(%s) | %d | %d-%d | %s |\n", cat, CategoryNames[cat], actual, ideal[0], ideal[1], verdict)
	}
	b.WriteString("\n")
	return short
}

func writeFollowerTrend(b *strings.Builder, summaries []SummaryRow, weekStart, weekEnd string) {
	if len(summaries) == 0 {
		return
	}
	b.WriteString("---\n\n## Reference: follower movement\n\n")

	var week []SummaryRow
	for _, s := range summaries {
		if s.Date >= weekStart && s.Date <= weekEnd && s.FollowerCount != "" {
			week = append(week, s)
		}
	}
	sort.Slice(week, func(i, j int) bool { return week[i].Date < week[j].Date })

	if len(week) > 0 {
		first := atoi(week[0].FollowerCount)
		last := atoi(week[len(week)-1].FollowerCount)
		fmt.Fprintf(b, "Week open: %d -> week close: %d (%+d)\n\n", first, last, last-first)
		return
	}

	all := append([]SummaryRow(nil), summaries...)
	sort.Slice(all, func(i, j int) bool { return all[i].Date < all[j].Date })
	latest := all[len(all)-1]
	fmt.Fprintf(b, "No in-week data; latest (%s): %s followers\n\n", latest.Date, latest.FollowerCount)
}

func writeActions(b *strings.Builder, balanceBroken bool, orderBreaks, monthShort []string) {
	b.WriteString("---\n\n## Actions for next week\n\n")

	var actions []string
	if balanceBroken {
		actions = append(actions, "Schedule at least two A or B pieces among next week's articles")
	}
	if len(orderBreaks) > 0 {
		actions = append(actions, "Like-rate ordering broke; review the recent articles in the affected categories")
	}
	for _, cat := range monthShort {
		actions = append(actions, fmt.Sprintf("%s(%s) is under its monthly target; place one deliberately", cat, CategoryNames[cat]))
	}
	if len(actions) == 0 {
		actions = append(actions, "Keep the current cadence")
	}
	for _, a := range actions {
		fmt.Fprintf(b, "- %s\n", a)
	}
	b.WriteString("\n")
}

func eta(readCount, likeCount int) (float64, bool) {
	if readCount == 0 {
		return 0, false
	}
	return float64(likeCount) / float64(readCount), true
}

func medianFloat(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func medianInt(vals []int) int {
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func atoiOK(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
