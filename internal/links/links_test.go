package links_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovdash/internal/links"
	"lovdash/internal/testsupport"
)

func TestGetByID(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	creator := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")
	created := testsupport.CreateTestBioLink(t, db, creator.ID, "luna")

	link, err := links.GetByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "luna", link.Slug)

	_, err = links.GetByID(db, 999)
	var notFound *links.LinkNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestResolveBySlug(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	creator := testsupport.CreateTestCreator(t, db, "ari@example.com", "ari")
	created := testsupport.CreateTestBioLink(t, db, creator.ID, "Ari-Codes")

	for _, handle := range []string{"ari-codes", "ARI-CODES", "  Ari-Codes  "} {
		link, err := links.Resolve(db, handle)
		require.NoError(t, err, "handle %q", handle)
		assert.Equal(t, created.ID, link.ID)
	}
}

func TestResolveByCustomDomain(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	creator := testsupport.CreateTestCreator(t, db, "ivy@example.com", "ivy")
	created := testsupport.CreateTestBioLink(t, db, creator.ID, "ivy")
	domain := "links.ivy.example"
	created.CustomDomain = &domain
	require.NoError(t, db.Save(created).Error)

	link, err := links.Resolve(db, "Links.Ivy.Example")
	require.NoError(t, err)
	assert.Equal(t, created.ID, link.ID)
}

func TestResolveSlugWinsOverDomain(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	creator := testsupport.CreateTestCreator(t, db, "max@example.com", "max")

	slugLink := testsupport.CreateTestBioLink(t, db, creator.ID, "shared-handle")
	domainLink := testsupport.CreateTestBioLink(t, db, creator.ID, "max")
	domain := "shared-handle"
	domainLink.CustomDomain = &domain
	require.NoError(t, db.Save(domainLink).Error)

	link, err := links.Resolve(db, "shared-handle")
	require.NoError(t, err)
	assert.Equal(t, slugLink.ID, link.ID)
}

func TestResolveUnknown(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	var notFound *links.LinkNotFoundError

	_, err := links.Resolve(db, "nobody")
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nobody", notFound.Handle)

	_, err = links.Resolve(db, "   ")
	assert.True(t, errors.As(err, &notFound))
}

func TestForCreators(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	luna := testsupport.CreateTestCreator(t, db, "luna@example.com", "luna")
	max := testsupport.CreateTestCreator(t, db, "max@example.com", "max")
	testsupport.CreateTestBioLink(t, db, luna.ID, "luna")
	testsupport.CreateTestBioLink(t, db, luna.ID, "luna-alt")
	testsupport.CreateTestBioLink(t, db, max.ID, "max")

	result, err := links.ForCreators(db, []uint{luna.ID})
	require.NoError(t, err)
	assert.Len(t, result, 2)

	result, err = links.ForCreators(db, []uint{luna.ID, max.ID})
	require.NoError(t, err)
	assert.Len(t, result, 3)

	result, err = links.ForCreators(db, nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}
