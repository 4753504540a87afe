package ledger_test

import (
	"testing"

	"github.com/sentinelops/armory-ledger/ledger"
)

// =============================================================================
// TIME-WINDOW PROJECTOR TESTS
// =============================================================================

func TestWindow_InclusiveDayBounds(t *testing.T) {
	// GIVEN: an allocation last issued on 2024-01-10
	// WHEN: windows end before, on, and after that day
	// THEN: excluded / included / included, matching inclusive bounds

	cases := []struct {
		name    string
		window  ledger.Window
		visible bool
	}{
		{"ends before last issue", ledger.Window{Start: "2024-01-01", End: "2024-01-09"}, false},
		{"ends on last issue day", ledger.Window{Start: "2024-01-01", End: "2024-01-10"}, true},
		{"covers the month", ledger.Window{Start: "2024-01-01", End: "2024-01-31"}, true},
		{"starts after last issue", ledger.Window{Start: "2024-01-11", End: ""}, false},
		{"unbounded start", ledger.Window{Start: "", End: "2024-01-10"}, true},
		{"no window", ledger.Window{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Contains("2024-01-10T14:30:00Z"); got != tc.visible {
				t.Errorf("window %+v: expected visible=%v, got %v", tc.window, tc.visible, got)
			}
		})
	}
}

func TestWindow_FailOpenOnMissingTimestamp(t *testing.T) {
	// GIVEN: allocations with empty or unparseable last-issue timestamps
	// WHEN: tested against bounded and unbounded windows
	// THEN: always visible (fail-open), never excluded

	windows := []ledger.Window{
		{},
		{Start: "2024-01-01"},
		{End: "2024-01-31"},
		{Start: "2024-01-01", End: "2024-01-31"},
		{Start: "1999-01-01", End: "1999-01-02"},
	}
	timestamps := []string{"", "garbage", "24-01-01", "2024-13-99T00:00:00Z", "n/a"}

	for _, w := range windows {
		for _, ts := range timestamps {
			if !w.Contains(ts) {
				t.Errorf("window %+v excluded unparseable timestamp %q; must fail open", w, ts)
			}
		}
	}
}

func TestWindow_PureNarrowing(t *testing.T) {
	// GIVEN: any timestamp visible under a bounded window
	// WHEN: the window is removed
	// THEN: the timestamp is still visible (filter never expands)

	bounded := ledger.Window{Start: "2024-01-01", End: "2024-12-31"}
	for _, ts := range []string{"2024-01-01", "2024-06-15T08:00:00Z", "", "junk"} {
		if bounded.Contains(ts) && !(ledger.Window{}).Contains(ts) {
			t.Errorf("timestamp %q visible under bounded window but not unbounded", ts)
		}
	}
}

func TestParseDay(t *testing.T) {
	if _, err := ledger.ParseDay("2024-02-30"); err == nil {
		t.Error("expected error for impossible date")
	}
	day, err := ledger.ParseDay("2024-02-29")
	if err != nil || day != "2024-02-29" {
		t.Errorf("expected valid leap day, got %q, %v", day, err)
	}
}
