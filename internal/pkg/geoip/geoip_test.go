package geoip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lovdash/internal/pkg/geoip"
	"lovdash/internal/testsupport"
)

func TestGetGeoDBWithoutDatabaseFile(t *testing.T) {
	geoip.InitLogger(testsupport.GetLogger())

	// The default path points at a file that does not exist here; lookups
	// degrade to Unknown rather than failing.
	assert.Nil(t, geoip.GetGeoDB())
}

func TestReloadGeoDBWithoutDatabaseFile(t *testing.T) {
	geoip.InitLogger(testsupport.GetLogger())

	geoip.ReloadGeoDB()
	assert.Nil(t, geoip.GetGeoDB())
}
