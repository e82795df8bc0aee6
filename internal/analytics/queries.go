package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"lovdash/internal/events"
	"lovdash/internal/visitors"
)

// loadPageViews returns all page views for the link set from the given lower
// bound, newest first. One query regardless of how many links are passed.
func loadPageViews(db *gorm.DB, linkIDs []uint, from time.Time) ([]events.PageViewEvent, error) {
	var views []events.PageViewEvent
	err := db.Where("link_id IN ?", linkIDs).
		Where("created_at >= ?", from).
		Order("created_at DESC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load page views: %w", err)
	}
	return views, nil
}

// loadLinkClicks returns all link clicks for the link set from the given
// lower bound, newest first.
func loadLinkClicks(db *gorm.DB, linkIDs []uint, from time.Time) ([]events.LinkClickEvent, error) {
	var clicks []events.LinkClickEvent
	err := db.Where("link_id IN ?", linkIDs).
		Where("created_at >= ?", from).
		Order("created_at DESC").
		Find(&clicks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load link clicks: %w", err)
	}
	return clicks, nil
}

// previousWindowCounts carries the minimal comparison-window projections used
// for delta computation. Never exposed in breakdowns.
type previousWindowCounts struct {
	Views          int64
	UniqueVisitors int64
	Clicks         int64
}

// viewProjection is the minimal per-view projection loaded for the previous
// window: enough to count rows and distinct visitors, nothing more.
type viewProjection struct {
	ID        uint
	VisitorID *string
	IPHash    string
}

// loadPreviousWindow loads delta context for the half-open window [from, to).
func loadPreviousWindow(db *gorm.DB, linkIDs []uint, from, to time.Time) (previousWindowCounts, error) {
	var projections []viewProjection
	err := db.Model(&events.PageViewEvent{}).
		Select("id", "visitor_id", "ip_hash").
		Where("link_id IN ?", linkIDs).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&projections).Error
	if err != nil {
		return previousWindowCounts{}, fmt.Errorf("failed to load previous-window views: %w", err)
	}

	visitorSet := make(map[string]struct{}, len(projections))
	for _, p := range projections {
		visitorSet[visitors.Key(p.VisitorID, p.IPHash)] = struct{}{}
	}

	var clicks int64
	err = db.Model(&events.LinkClickEvent{}).
		Where("link_id IN ?", linkIDs).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&clicks).Error
	if err != nil {
		return previousWindowCounts{}, fmt.Errorf("failed to count previous-window clicks: %w", err)
	}

	return previousWindowCounts{
		Views:          int64(len(projections)),
		UniqueVisitors: int64(len(visitorSet)),
		Clicks:         clicks,
	}, nil
}
