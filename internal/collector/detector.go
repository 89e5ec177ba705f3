package collector

import "sort"

// Mode describes what a run should collect.
type Mode int

const (
	// ModeBaseline seeds history: collect every article on the latest
	// snapshot date.
	ModeBaseline Mode = iota
	// ModeIncremental re-collects only articles whose like count rose since
	// the previous snapshot date.
	ModeIncremental
	// ModeInsufficient means history exists but there are not two distinct
	// snapshot dates to compare; the run must skip collection entirely.
	ModeInsufficient
)

func (m Mode) String() string {
	switch m {
	case ModeBaseline:
		return "baseline"
	case ModeIncremental:
		return "incremental"
	case ModeInsufficient:
		return "insufficient"
	default:
		return "unknown"
	}
}

// Selection is the change detector's decision for one run.
type Selection struct {
	Mode    Mode
	Targets []string
}

// SelectTargets decides what to collect from the dated like counts of the
// article snapshot table.
//
// With no like history at all, the whole latest date is the baseline.
// Otherwise the two most recent distinct dates are compared and an article is
// a target iff its like count strictly increased; like counts are
// monotonically non-decreasing at the source, so equal values mean nothing
// changed and a decrease is noise, not a trigger.
func SelectTargets(countsByDate map[string]map[string]int, historyEmpty bool) Selection {
	dates := make([]string, 0, len(countsByDate))
	for d := range countsByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if len(dates) == 0 {
		return Selection{Mode: ModeInsufficient}
	}

	if historyEmpty {
		latest := countsByDate[dates[len(dates)-1]]
		targets := make([]string, 0, len(latest))
		for key := range latest {
			targets = append(targets, key)
		}
		sort.Strings(targets)
		return Selection{Mode: ModeBaseline, Targets: targets}
	}

	if len(dates) < 2 {
		return Selection{Mode: ModeInsufficient}
	}

	previous := countsByDate[dates[len(dates)-2]]
	latest := countsByDate[dates[len(dates)-1]]

	var targets []string
	for key, count := range latest {
		if count > previous[key] {
			targets = append(targets, key)
		}
	}
	sort.Strings(targets)
	return Selection{Mode: ModeIncremental, Targets: targets}
}
