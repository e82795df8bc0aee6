package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovdash/internal/events"
)

func TestGlobeMarkers(t *testing.T) {
	markers := GlobeMarkers(map[string]int{
		"Germany":              5,
		"Japan":                12,
		"United States":        12,
		"Narnia":               3, // unresolvable, dropped
		events.UnknownLocation: 40,
	})

	require.Len(t, markers, 3)

	// Ordered by count descending, name ascending on ties.
	assert.Equal(t, "Japan", markers[0].Country)
	assert.Equal(t, "United States", markers[1].Country)
	assert.Equal(t, "Germany", markers[2].Country)

	for _, m := range markers {
		assert.NotZero(t, m.Lat)
		assert.NotZero(t, m.Lng)
	}
}

func TestGlobeMarkersCaseInsensitive(t *testing.T) {
	markers := GlobeMarkers(map[string]int{"germany": 2})
	require.Len(t, markers, 1)
	assert.Equal(t, "germany", markers[0].Country)
	assert.InDelta(t, 51.0, markers[0].Lat, 1.0)
}

func TestGlobeMarkersZeroCountExcluded(t *testing.T) {
	assert.Empty(t, GlobeMarkers(map[string]int{"Germany": 0}))
}

func TestGlobeMarkersEmpty(t *testing.T) {
	assert.Empty(t, GlobeMarkers(nil))
}
