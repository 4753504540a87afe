/*
window.go - Day-granularity visibility windows

PURPOSE:
  Applies an optional inclusive [start, end] calendar-date range to the
  aggregated ledger without re-scanning raw transactions: visibility is
  decided from each allocation's precomputed LastIssueAt.

FAIL-OPEN RULE:
  An allocation whose LastIssueAt is absent or unparseable is VISIBLE
  under every window. Operational data often lacks timestamps; excluding
  such rows would silently hide real holdings.

  The window is a pure narrowing: with no bounds set, everything with
  positive quantity is visible.

SEE ALSO:
  - aggregate.go: produces LastIssueAt
  - merge.go: applies the same rule to serialized units via their refined
    LastIssueAt
*/
package ledger

import "time"

// Window is an optional inclusive date range at day granularity. Bounds
// are "2006-01-02" strings; an empty bound means unbounded on that side.
type Window struct {
	Start string
	End   string
}

// IsZero reports whether no bound is set.
func (w Window) IsZero() bool {
	return w.Start == "" && w.End == ""
}

// Contains reports whether a timestamp falls inside the window, expanded
// to day boundaries. Absent or unparseable timestamps are visible.
func (w Window) Contains(lastIssueAt string) bool {
	if w.IsZero() {
		return true
	}
	day := dayOf(lastIssueAt)
	if day == "" {
		return true // fail-open
	}
	if w.Start != "" && day < w.Start {
		return false
	}
	if w.End != "" && day > w.End {
		return false
	}
	return true
}

// dayOf extracts the calendar-date prefix of an ISO-8601 timestamp.
// Returns "" when the prefix is not a valid date.
func dayOf(ts string) string {
	if len(ts) < 10 {
		return ""
	}
	day := ts[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ""
	}
	return day
}

// ParseDay validates a calendar-date window bound. Used by API handlers
// before constructing a Window.
func ParseDay(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
