package analytics

import (
	"sort"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lovdash/internal/events"
)

// GlobeMarker is one plotted country on the dashboard's globe visualization.
type GlobeMarker struct {
	Country string  `json:"country"`
	Count   int     `json:"count"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

var (
	countryQuery = gountries.New()
	titleCaser   = cases.Title(language.AmericanEnglish)
)

// GlobeMarkers attaches static country coordinates to the per-country view
// counts. Countries that cannot be resolved, or whose coordinates come back
// as zero, are excluded from the marker list rather than zero-plotted at the
// gulf of Guinea.
func GlobeMarkers(viewsByCountry map[string]int) []GlobeMarker {
	markers := make([]GlobeMarker, 0, len(viewsByCountry))
	for country, count := range viewsByCountry {
		if count == 0 || country == events.UnknownLocation {
			continue
		}

		lat, lng, ok := countryCoordinates(country)
		if !ok {
			continue
		}
		markers = append(markers, GlobeMarker{Country: country, Count: count, Lat: lat, Lng: lng})
	}

	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Count != markers[j].Count {
			return markers[i].Count > markers[j].Count
		}
		return markers[i].Country < markers[j].Country
	})
	return markers
}

// countryCoordinates resolves a stored country string to lat/lng. Historical
// rows carry inconsistent casing, so an exact-name miss retries title-cased
// and as an ISO code.
func countryCoordinates(country string) (lat, lng float64, ok bool) {
	c, err := countryQuery.FindCountryByName(country)
	if err != nil {
		c, err = countryQuery.FindCountryByName(titleCaser.String(country))
	}
	if err != nil && len(country) == 2 {
		c, err = countryQuery.FindCountryByAlpha(country)
	}
	if err != nil {
		return 0, 0, false
	}

	if c.Latitude == 0 && c.Longitude == 0 {
		return 0, 0, false
	}
	return c.Latitude, c.Longitude, true
}
