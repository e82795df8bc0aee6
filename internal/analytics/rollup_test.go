package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovdash/internal/analytics"
	"lovdash/internal/testsupport"
	"lovdash/internal/timeframe"
)

func TestBuildRollupAdminSeesEveryone(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	admin := testsupport.CreateTestAdmin(t, db, "admin@example.com")

	luna := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")
	max := testsupport.CreateTestCreator(t, db, "max@example.com", "max")
	lunaLink := testsupport.CreateTestBioLink(t, db, luna.ID, "luna")
	maxLink := testsupport.CreateTestBioLink(t, db, max.ID, "max")

	testsupport.CreateTestPageView(t, db, lunaLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("a")})
	testsupport.CreateTestPageView(t, db, lunaLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("b")})
	testsupport.CreateTestPageView(t, db, maxLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("c")})
	testsupport.CreateTestLinkClick(t, db, maxLink.ID, testsupport.LinkClickOpts{VisitorID: strPtr("c")})

	rollup, err := analytics.BuildRollup(db, logger, admin, timeframe.Parse("7d"))
	require.NoError(t, err)

	assert.Equal(t, 3, rollup.TotalViews)
	assert.Equal(t, 1, rollup.TotalClicks)
	assert.Equal(t, 3, rollup.TotalUniqueVisitors)

	// Leaderboard sorted by views descending.
	require.Len(t, rollup.ModelStats, 2)
	assert.Equal(t, "luna", rollup.ModelStats[0].Username)
	assert.Equal(t, 2, rollup.ModelStats[0].Views)
	assert.Equal(t, "max", rollup.ModelStats[1].Username)
	assert.Equal(t, 1, rollup.ModelStats[1].Clicks)
}

func TestBuildRollupSharedVisitorCountedOnceGlobally(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	admin := testsupport.CreateTestAdmin(t, db, "admin@example.com")

	luna := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")
	max := testsupport.CreateTestCreator(t, db, "max@example.com", "max")
	lunaLink := testsupport.CreateTestBioLink(t, db, luna.ID, "luna")
	maxLink := testsupport.CreateTestBioLink(t, db, max.ID, "max")

	// The same visitor hits both creators' pages.
	testsupport.CreateTestPageView(t, db, lunaLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("shared")})
	testsupport.CreateTestPageView(t, db, maxLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("shared")})

	rollup, err := analytics.BuildRollup(db, logger, admin, timeframe.Parse("7d"))
	require.NoError(t, err)

	// Per-creator counts see the visitor each; the global total is the union.
	assert.Equal(t, 1, rollup.TotalUniqueVisitors)
	for _, stats := range rollup.ModelStats {
		assert.Equal(t, 1, stats.UniqueVisitors)
	}
}

func TestBuildRollupAgencyScoped(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	agency := testsupport.CreateTestAgency(t, db, "agency@example.com", "agency")

	managed := testsupport.CreateTestCreator(t, db, "managed@example.com", "managed")
	testsupport.AssignAgency(t, db, managed, agency)
	outside := testsupport.CreateTestCreator(t, db, "outside@example.com", "outside")

	managedLink := testsupport.CreateTestBioLink(t, db, managed.ID, "managed")
	outsideLink := testsupport.CreateTestBioLink(t, db, outside.ID, "outside")

	testsupport.CreateTestPageView(t, db, managedLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("a")})
	testsupport.CreateTestPageView(t, db, outsideLink.ID, testsupport.PageViewOpts{VisitorID: strPtr("b")})

	rollup, err := analytics.BuildRollup(db, logger, agency, timeframe.Parse("7d"))
	require.NoError(t, err)

	require.Len(t, rollup.ModelStats, 1)
	assert.Equal(t, "managed", rollup.ModelStats[0].Username)
	assert.Equal(t, 1, rollup.TotalViews)
}

func TestBuildRollupCreatorForbidden(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	creator := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")

	_, err := analytics.BuildRollup(db, logger, creator, timeframe.Parse("7d"))
	assert.Error(t, err)
}

func TestBuildRollupEmptyRoster(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	agency := testsupport.CreateTestAgency(t, db, "agency@example.com", "agency")

	rollup, err := analytics.BuildRollup(db, logger, agency, timeframe.Parse("7d"))
	require.NoError(t, err)

	assert.Zero(t, rollup.TotalViews)
	assert.Zero(t, rollup.TotalClicks)
	assert.Zero(t, rollup.TotalUniqueVisitors)
	assert.NotNil(t, rollup.ModelStats)
	assert.Empty(t, rollup.ModelStats)
}

func TestBuildRollupCreatorWithoutLinks(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	admin := testsupport.CreateTestAdmin(t, db, "admin@example.com")

	linkless := testsupport.CreateTestCreator(t, db, "new@example.com", "newcomer")

	rollup, err := analytics.BuildRollup(db, logger, admin, timeframe.Parse("7d"))
	require.NoError(t, err)

	require.Len(t, rollup.ModelStats, 1)
	assert.Equal(t, linkless.ID, rollup.ModelStats[0].CreatorID)
	assert.Zero(t, rollup.ModelStats[0].Views)
	assert.Zero(t, rollup.ModelStats[0].UniqueVisitors)
}
