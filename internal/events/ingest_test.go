package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovdash/internal/config"
	"lovdash/internal/events"
	"lovdash/internal/testsupport"
	"lovdash/internal/visitors"
)

const testUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"

func strPtr(s string) *string { return &s }

func TestRecordEventPageView(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "luna")

	result, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:      events.EventTypePageView,
		LinkID:    "1",
		VisitorID: strPtr("vis-1"),
		Referrer:  strPtr("https://instagram.com/"),
		IPAddress: "203.0.113.7",
		UserAgent: testUserAgent,
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	var row events.PageViewEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&row).Error)

	assert.Equal(t, "vis-1", *row.VisitorID)
	assert.Equal(t, "https://instagram.com/", *row.Referrer)
	assert.Equal(t, "mobile", row.DeviceType)
	assert.Equal(t, "Safari", row.Browser)
	assert.Equal(t, "macOS", row.OS)

	// The raw IP is never persisted, only the truncated salted hash.
	expectedHash := visitors.HashIP("203.0.113.7", config.GetConfig().PrivateKey)
	assert.Equal(t, expectedHash, row.IPHash)
	assert.Len(t, row.IPHash, 16)
	assert.NotContains(t, row.IPHash, "203.0.113.7")
}

func TestRecordEventLinkClick(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "max@example.com", "max")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "max")

	itemID := uint(42)
	result, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:        events.EventTypeLinkClick,
		CreatorSlug: "max",
		LinkItemID:  &itemID,
		LinkLabel:   "Training Plans",
		LinkURL:     "https://plans.example.com/max",
		IPAddress:   "203.0.113.8",
		UserAgent:   testUserAgent,
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	var row events.LinkClickEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&row).Error)
	assert.Equal(t, itemID, *row.LinkItemID)
	assert.Equal(t, "Training Plans", row.LinkLabel)
	assert.Equal(t, "mobile", row.DeviceType)
}

func TestRecordEventSlugResolution(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "ari@example.com", "ari")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "ari-codes")

	// Slug matching is case-insensitive.
	result, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:        events.EventTypePageView,
		CreatorSlug: "ARI-Codes",
		UserAgent:   testUserAgent,
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	var count int64
	require.NoError(t, db.Model(&events.PageViewEvent{}).Where("link_id = ?", link.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordEventCustomDomainResolution(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "ivy@example.com", "ivy")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "ivy")
	domain := "links.ivy.example"
	link.CustomDomain = &domain
	require.NoError(t, db.Save(link).Error)

	result, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:        events.EventTypePageView,
		CreatorSlug: "Links.Ivy.Example",
		UserAgent:   testUserAgent,
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestRecordEventSoftSkip(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	// A legacy creator with no bio link row must not produce an error.
	result, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:        events.EventTypePageView,
		CreatorSlug: "unknown-legacy-user",
		UserAgent:   testUserAgent,
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	var count int64
	require.NoError(t, db.Model(&events.PageViewEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordEventUnknownType(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	_, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type: "conversion",
	})
	assert.ErrorIs(t, err, events.ErrUnknownEventType)
}

func TestRecordEventReferrerPrecedence(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "rex@example.com", "rex")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "rex")

	// Header is the fallback when the payload has no referrer.
	_, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:          events.EventTypePageView,
		LinkID:        "1",
		RefererHeader: "https://t.co/xyz",
		UserAgent:     testUserAgent,
	})
	require.NoError(t, err)

	var row events.PageViewEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&row).Error)
	require.NotNil(t, row.Referrer)
	assert.Equal(t, "https://t.co/xyz", *row.Referrer)

	// Neither payload nor header stores null.
	_, err = events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:      events.EventTypePageView,
		LinkID:    "1",
		UserAgent: testUserAgent,
	})
	require.NoError(t, err)

	var rows []events.PageViewEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1].Referrer)
}

func TestRecordEventPrivateIPSkipsGeo(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	creator := testsupport.CreateTestCreator(t, db, "kai@example.com", "kai")
	link := testsupport.CreateTestBioLink(t, db, creator.ID, "kai")

	_, err := events.RecordEvent(dbManager, logger, &events.RecordEventInput{
		Type:      events.EventTypePageView,
		LinkID:    "1",
		IPAddress: "192.168.1.20",
		UserAgent: testUserAgent,
	})
	require.NoError(t, err)

	var row events.PageViewEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&row).Error)
	assert.Equal(t, events.UnknownLocation, row.Country)
	assert.Equal(t, events.UnknownLocation, row.City)
	assert.Equal(t, events.UnknownLocation, row.Region)
	// Private addresses still hash; they are skipped for geo only.
	assert.NotEmpty(t, row.IPHash)
}

func TestLookupLocationEdgeCases(t *testing.T) {
	logger := testsupport.GetLogger()

	for _, ip := range []string{"", "not-an-ip", "127.0.0.1", "::1", "192.168.0.5", "169.254.1.1"} {
		loc := events.LookupLocation(logger, ip)
		assert.Equal(t, events.UnknownLocation, loc.Country, "ip %q", ip)
	}
}
