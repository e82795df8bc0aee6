// Package timeframe models the reporting windows the dashboard can request:
// a trailing 7/30/90 day range or all time, each paired with an equal-length
// immediately preceding window used for period-over-period deltas.
package timeframe

import (
	"time"
)

// Period labels accepted by the analytics endpoints.
const (
	Label7Days   = "7d"
	Label30Days  = "30d"
	Label90Days  = "90d"
	LabelAllTime = "all"
)

// allTimeComparisonDays is the window length substituted for "all" when
// computing the comparison window. The current-window query itself stays
// unbounded; this only scopes the delta context. The resulting delta compares
// all-time against a trailing year, which is kept for compatibility with the
// dashboard's historical numbers.
const allTimeComparisonDays = 365

// Period is a half-open reporting window [CurrentStart(now), now) plus the
// equal-length preceding window [PreviousStart(now), CurrentStart(now)).
type Period struct {
	Label   string
	Days    int
	AllTime bool
}

// Parse maps a raw query value to a Period. Unknown or empty values fall
// back to the trailing 7 days.
func Parse(raw string) Period {
	switch raw {
	case Label30Days:
		return Period{Label: Label30Days, Days: 30}
	case Label90Days:
		return Period{Label: Label90Days, Days: 90}
	case LabelAllTime:
		return Period{Label: LabelAllTime, Days: allTimeComparisonDays, AllTime: true}
	default:
		return Period{Label: Label7Days, Days: 7}
	}
}

// CurrentStart returns the inclusive lower bound of the comparison-relevant
// current window: now minus the period length.
func (p Period) CurrentStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days)
}

// PreviousStart returns the inclusive lower bound of the preceding window.
func (p Period) PreviousStart(now time.Time) time.Time {
	return p.CurrentStart(now).AddDate(0, 0, -p.Days)
}

// QueryStart returns the lower bound for the current-window event queries.
// For all-time periods the query is unbounded from epoch.
func (p Period) QueryStart(now time.Time) time.Time {
	if p.AllTime {
		return time.Unix(0, 0).UTC()
	}
	return p.CurrentStart(now)
}

// Day returns the UTC calendar-day bucket for a timestamp, the first ten
// characters of its ISO form.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
