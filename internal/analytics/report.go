// Package analytics reduces raw bio-page events into the aggregated reports
// the dashboard renders: summaries, period-over-period deltas, time series,
// categorical breakdowns, referrer tables, click leaderboards, globe markers
// and activity feeds. Everything is recomputed per request from the event
// tables; there is no cache and no aggregate state to keep consistent.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"lovdash/internal/config"
	"lovdash/internal/events"
	"lovdash/internal/pkg/async"
	"lovdash/internal/timeframe"
	"lovdash/internal/visitors"
)

// Summary holds the headline counters for one link and period.
type Summary struct {
	TotalViews     int `json:"totalViews"`
	UniqueVisitors int `json:"uniqueVisitors"`
	TotalClicks    int `json:"totalClicks"`
	// Percentage with one decimal, or "0" when there are no views at all.
	ClickThroughRate string `json:"clickThroughRate"`
}

// Changes holds the period-over-period deltas for the headline counters.
type Changes struct {
	Views    Change `json:"views"`
	Visitors Change `json:"visitors"`
	Clicks   Change `json:"clicks"`
}

// TopLink is one entry in the click leaderboard.
type TopLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// ActivityItem is one row of the unified recent-activity feed.
type ActivityItem struct {
	Type       events.EventType `json:"type"`
	Country    string           `json:"country"`
	DeviceType string           `json:"deviceType"`
	Referrer   *string          `json:"referrer"`
	LinkLabel  string           `json:"linkLabel,omitempty"`
	LinkURL    string           `json:"linkUrl,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Report is the full aggregated response for one (link, period) pair.
// Derived, never persisted.
type Report struct {
	Summary        Summary         `json:"summary"`
	Changes        Changes         `json:"changes"`
	ViewsByDay     map[string]int  `json:"viewsByDay"`
	ClicksByDay    map[string]int  `json:"clicksByDay"`
	ViewsByCountry map[string]int  `json:"viewsByCountry"`
	ViewsByDevice  map[string]int  `json:"viewsByDevice"`
	ViewsByBrowser map[string]int  `json:"viewsByBrowser"`
	TopReferrers   []ReferrerCount `json:"topReferrers"`
	TopLinks       []TopLink       `json:"topLinks"`
	GlobeMarkers   []GlobeMarker   `json:"globeMarkers"`
	RecentActivity []ActivityItem  `json:"recentActivity"`
}

const recentActivityPerKind = 20
const recentActivityLimit = 30

// BuildReport assembles the aggregated report for one link and period in a
// single pass over each event table. The current- and previous-window reads
// are independent and fan out concurrently. A previous-window failure is
// tolerated (deltas render neutral); a current-window failure is fatal.
func BuildReport(ctx context.Context, db *gorm.DB, logger *slog.Logger, linkID uint, period timeframe.Period) (*Report, error) {
	now := time.Now().UTC()
	queryStart := period.QueryStart(now)
	currentStart := period.CurrentStart(now)
	previousStart := period.PreviousStart(now)
	linkIDs := []uint{linkID}

	pool := async.NewPool(3)
	results := pool.Execute(ctx, []async.Task{
		{
			Name: "views",
			Execute: func() (interface{}, error) {
				return loadPageViews(db, linkIDs, queryStart)
			},
		},
		{
			Name: "clicks",
			Execute: func() (interface{}, error) {
				return loadLinkClicks(db, linkIDs, queryStart)
			},
		},
		{
			Name: "previous",
			Execute: func() (interface{}, error) {
				return loadPreviousWindow(db, linkIDs, previousStart, currentStart)
			},
		},
	})

	viewsResult, ok := results["views"]
	if !ok || viewsResult.Err != nil {
		err := fmt.Errorf("report aggregation failed: %w", resultErr(viewsResult))
		logger.Error("Failed to load page views for report",
			slog.Uint64("link_id", uint64(linkID)),
			slog.String("period", period.Label),
			slog.Any("error", err))
		return nil, err
	}
	clicksResult, ok := results["clicks"]
	if !ok || clicksResult.Err != nil {
		err := fmt.Errorf("report aggregation failed: %w", resultErr(clicksResult))
		logger.Error("Failed to load link clicks for report",
			slog.Uint64("link_id", uint64(linkID)),
			slog.String("period", period.Label),
			slog.Any("error", err))
		return nil, err
	}

	views := viewsResult.Data.([]events.PageViewEvent)
	clicks := clicksResult.Data.([]events.LinkClickEvent)

	report := &Report{
		Summary:        buildSummary(views, clicks),
		ViewsByDay:     make(map[string]int),
		ClicksByDay:    make(map[string]int),
		ViewsByCountry: make(map[string]int),
		ViewsByDevice:  make(map[string]int),
		ViewsByBrowser: make(map[string]int),
	}

	// Deltas are a secondary feature: if the comparison window could not be
	// loaded, the report still renders with neutral changes.
	previousResult, ok := results["previous"]
	if !ok || previousResult.Err != nil {
		logger.Warn("Previous-window comparison query failed, rendering neutral deltas",
			slog.Uint64("link_id", uint64(linkID)),
			slog.String("period", period.Label),
			slog.Any("error", resultErr(previousResult)))
		report.Changes = Changes{Views: NeutralChange(), Visitors: NeutralChange(), Clicks: NeutralChange()}
	} else {
		previous := previousResult.Data.(previousWindowCounts)
		report.Changes = Changes{
			Views:    CalculateChange(int64(report.Summary.TotalViews), previous.Views),
			Visitors: CalculateChange(int64(report.Summary.UniqueVisitors), previous.UniqueVisitors),
			Clicks:   CalculateChange(int64(report.Summary.TotalClicks), previous.Clicks),
		}
	}

	for _, view := range views {
		report.ViewsByDay[timeframe.Day(view.CreatedAt)]++
		report.ViewsByCountry[bucketOr(view.Country, events.UnknownLocation)]++
		report.ViewsByDevice[bucketOr(view.DeviceType, "unknown")]++
		report.ViewsByBrowser[bucketOr(view.Browser, "unknown")]++
	}
	for _, click := range clicks {
		report.ClicksByDay[timeframe.Day(click.CreatedAt)]++
	}

	cfg := config.GetConfig()
	report.TopReferrers = TopReferrers(views, cfg.PlatformDomains)
	report.TopLinks = buildTopLinks(clicks)
	report.GlobeMarkers = GlobeMarkers(report.ViewsByCountry)
	report.RecentActivity = buildRecentActivity(views, clicks)

	return report, nil
}

func resultErr(r async.Result) error {
	if r.Err != nil {
		return r.Err
	}
	return context.Canceled
}

func bucketOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// buildSummary computes the headline counters. Unique visitors are the set
// cardinality of (visitorId ?? ipHash) across views; events carrying neither
// collapse into one shared bucket.
func buildSummary(views []events.PageViewEvent, clicks []events.LinkClickEvent) Summary {
	visitorSet := make(map[string]struct{}, len(views))
	for _, view := range views {
		visitorSet[visitors.Key(view.VisitorID, view.IPHash)] = struct{}{}
	}

	summary := Summary{
		TotalViews:       len(views),
		UniqueVisitors:   len(visitorSet),
		TotalClicks:      len(clicks),
		ClickThroughRate: "0",
	}
	if summary.TotalViews > 0 {
		rate := float64(summary.TotalClicks) / float64(summary.TotalViews) * 100
		summary.ClickThroughRate = fmt.Sprintf("%.1f", rate)
	}
	return summary
}

// buildTopLinks groups clicks by label, keeping the first-seen URL per label,
// sorted by count descending.
func buildTopLinks(clicks []events.LinkClickEvent) []TopLink {
	counts := make(map[string]int)
	urls := make(map[string]string)
	for _, click := range clicks {
		counts[click.LinkLabel]++
		if _, seen := urls[click.LinkLabel]; !seen {
			urls[click.LinkLabel] = click.LinkURL
		}
	}

	result := make([]TopLink, 0, len(counts))
	for label, count := range counts {
		result = append(result, TopLink{Label: label, URL: urls[label], Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Label < result[j].Label
	})
	return result
}

// buildRecentActivity merges the newest views and clicks into one feed:
// up to 20 of each, tagged by type, re-sorted newest first, truncated to 30.
// Inputs are already newest-first from the load queries.
func buildRecentActivity(views []events.PageViewEvent, clicks []events.LinkClickEvent) []ActivityItem {
	items := make([]ActivityItem, 0, recentActivityPerKind*2)

	for i, view := range views {
		if i == recentActivityPerKind {
			break
		}
		items = append(items, ActivityItem{
			Type:       events.EventTypePageView,
			Country:    view.Country,
			DeviceType: view.DeviceType,
			Referrer:   view.Referrer,
			CreatedAt:  view.CreatedAt,
		})
	}
	for i, click := range clicks {
		if i == recentActivityPerKind {
			break
		}
		items = append(items, ActivityItem{
			Type:       events.EventTypeLinkClick,
			Country:    click.Country,
			DeviceType: click.DeviceType,
			Referrer:   click.Referrer,
			LinkLabel:  click.LinkLabel,
			LinkURL:    click.LinkURL,
			CreatedAt:  click.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > recentActivityLimit {
		items = items[:recentActivityLimit]
	}
	return items
}
