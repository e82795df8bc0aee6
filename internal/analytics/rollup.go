package analytics

import (
	"fmt"
	"sort"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"lovdash/internal/links"
	"lovdash/internal/timeframe"
	"lovdash/internal/users"
	"lovdash/internal/visitors"
)

// CreatorStats is one row of the cross-creator leaderboard.
type CreatorStats struct {
	CreatorID      uint   `json:"creatorId"`
	Username       string `json:"username"`
	Views          int    `json:"views"`
	Clicks         int    `json:"clicks"`
	UniqueVisitors int    `json:"uniqueVisitors"`
}

// Rollup aggregates every bio link of every creator an operator manages.
// Global unique visitors are the union cardinality across creators, so a
// visitor seen on two creators' pages counts once.
type Rollup struct {
	TotalViews          int            `json:"totalViews"`
	TotalClicks         int            `json:"totalClicks"`
	TotalUniqueVisitors int            `json:"totalUniqueVisitors"`
	ModelStats          []CreatorStats `json:"modelStats"`
}

func emptyRollup() *Rollup {
	return &Rollup{ModelStats: []CreatorStats{}}
}

// BuildRollup fans the aggregation out across the operator's managed-creator
// roster and reduces to a per-creator leaderboard plus grand totals. Creators
// resolve to links resolve to events strictly in that order; events load in
// two batched reads keyed by the full link-id set, so the number of round
// trips stays constant regardless of roster size.
func BuildRollup(db *gorm.DB, logger *slog.Logger, operator *users.User, period timeframe.Period) (*Rollup, error) {
	creators, err := users.ManagedCreators(db, operator)
	if err != nil {
		return nil, fmt.Errorf("rollup aggregation failed: %w", err)
	}
	if len(creators) == 0 {
		return emptyRollup(), nil
	}

	creatorIDs := make([]uint, len(creators))
	statsByCreator := make(map[uint]*CreatorStats, len(creators))
	for i, creator := range creators {
		creatorIDs[i] = creator.ID
		statsByCreator[creator.ID] = &CreatorStats{CreatorID: creator.ID, Username: creator.Username}
	}

	linkRows, err := links.ForCreators(db, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("rollup aggregation failed: %w", err)
	}

	rollup := emptyRollup()
	// Creators without a bio link still appear on the leaderboard, zeroed.
	if len(linkRows) == 0 {
		for _, creator := range creators {
			rollup.ModelStats = append(rollup.ModelStats, *statsByCreator[creator.ID])
		}
		return rollup, nil
	}

	creatorByLink := make(map[uint]uint, len(linkRows))
	linkIDs := make([]uint, len(linkRows))
	for i, link := range linkRows {
		linkIDs[i] = link.ID
		creatorByLink[link.ID] = link.CreatorID
	}

	now := time.Now().UTC()
	queryStart := period.QueryStart(now)

	views, err := loadPageViews(db, linkIDs, queryStart)
	if err != nil {
		logger.Error("Failed to load page views for rollup",
			slog.String("period", period.Label),
			slog.Any("error", err))
		return nil, fmt.Errorf("rollup aggregation failed: %w", err)
	}
	clicks, err := loadLinkClicks(db, linkIDs, queryStart)
	if err != nil {
		logger.Error("Failed to load link clicks for rollup",
			slog.String("period", period.Label),
			slog.Any("error", err))
		return nil, fmt.Errorf("rollup aggregation failed: %w", err)
	}

	visitorSets := make(map[uint]map[string]struct{}, len(creators))
	globalVisitors := make(map[string]struct{})

	for _, view := range views {
		creatorID, ok := creatorByLink[view.LinkID]
		if !ok {
			continue
		}
		statsByCreator[creatorID].Views++

		key := visitors.Key(view.VisitorID, view.IPHash)
		set, ok := visitorSets[creatorID]
		if !ok {
			set = make(map[string]struct{})
			visitorSets[creatorID] = set
		}
		set[key] = struct{}{}
		globalVisitors[key] = struct{}{}
	}
	for _, click := range clicks {
		if creatorID, ok := creatorByLink[click.LinkID]; ok {
			statsByCreator[creatorID].Clicks++
		}
	}

	for _, creator := range creators {
		stats := statsByCreator[creator.ID]
		stats.UniqueVisitors = len(visitorSets[creator.ID])
		rollup.TotalViews += stats.Views
		rollup.TotalClicks += stats.Clicks
		rollup.ModelStats = append(rollup.ModelStats, *stats)
	}
	rollup.TotalUniqueVisitors = len(globalVisitors)

	sort.SliceStable(rollup.ModelStats, func(i, j int) bool {
		return rollup.ModelStats[i].Views > rollup.ModelStats[j].Views
	})
	return rollup, nil
}
