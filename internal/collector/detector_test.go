package collector

import (
	"reflect"
	"testing"
)

func TestSelectTargetsNoSnapshots(t *testing.T) {
	sel := SelectTargets(nil, true)
	if sel.Mode != ModeInsufficient {
		t.Fatalf("expected insufficient with no snapshot data, got %s", sel.Mode)
	}
}

func TestSelectTargetsBaseline(t *testing.T) {
	counts := map[string]map[string]int{
		"2025-08-01": {"n1": 3, "n2": 0},
		"2025-08-02": {"n1": 5, "n2": 0, "n3": 7},
	}

	sel := SelectTargets(counts, true)

	if sel.Mode != ModeBaseline {
		t.Fatalf("expected baseline with empty history, got %s", sel.Mode)
	}
	want := []string{"n1", "n2", "n3"}
	if !reflect.DeepEqual(sel.Targets, want) {
		t.Fatalf("expected every article of the latest date %v, got %v", want, sel.Targets)
	}
}

func TestSelectTargetsSingleDateWithHistory(t *testing.T) {
	counts := map[string]map[string]int{
		"2025-08-02": {"n1": 5},
	}

	sel := SelectTargets(counts, false)

	if sel.Mode != ModeInsufficient {
		t.Fatalf("expected insufficient with one date and existing history, got %s", sel.Mode)
	}
	if len(sel.Targets) != 0 {
		t.Fatalf("insufficient selection must carry no targets, got %v", sel.Targets)
	}
}

func TestSelectTargetsIncremental(t *testing.T) {
	counts := map[string]map[string]int{
		"2025-08-01": {"n1": 3, "n2": 8, "n3": 2},
		"2025-08-02": {"n1": 5, "n2": 8, "n3": 1, "n4": 1},
	}

	sel := SelectTargets(counts, false)

	if sel.Mode != ModeIncremental {
		t.Fatalf("expected incremental, got %s", sel.Mode)
	}
	// n1 rose, n2 held, n3 decreased (noise, not a trigger), n4 is new with
	// a nonzero count and so compares above its implicit zero.
	want := []string{"n1", "n4"}
	if !reflect.DeepEqual(sel.Targets, want) {
		t.Fatalf("expected %v, got %v", want, sel.Targets)
	}
}

func TestSelectTargetsIncrementalNoChanges(t *testing.T) {
	counts := map[string]map[string]int{
		"2025-08-01": {"n1": 3},
		"2025-08-02": {"n1": 3},
	}

	sel := SelectTargets(counts, false)

	if sel.Mode != ModeIncremental {
		t.Fatalf("expected incremental, got %s", sel.Mode)
	}
	if len(sel.Targets) != 0 {
		t.Fatalf("expected no targets when nothing rose, got %v", sel.Targets)
	}
}

func TestSelectTargetsComparesTwoMostRecentDates(t *testing.T) {
	counts := map[string]map[string]int{
		"2025-07-01": {"n1": 0},
		"2025-08-01": {"n1": 4},
		"2025-08-02": {"n1": 4},
	}

	sel := SelectTargets(counts, false)

	if sel.Mode != ModeIncremental || len(sel.Targets) != 0 {
		t.Fatalf("older dates must not influence the comparison, got %s %v", sel.Mode, sel.Targets)
	}
}
