package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovdash/internal/events"
)

var testPlatformDomains = []string{"lovebite.bio", "lovdash.com", "localhost"}

func ref(s string) *string { return &s }

func viewsWithReferrers(referrers ...*string) []events.PageViewEvent {
	views := make([]events.PageViewEvent, len(referrers))
	for i, r := range referrers {
		views[i] = events.PageViewEvent{Referrer: r}
	}
	return views
}

func TestClassifyReferrer(t *testing.T) {
	tests := []struct {
		name     string
		raw      *string
		hostname string
		direct   bool
	}{
		{name: "nil is direct", raw: nil, direct: true},
		{name: "empty is direct", raw: ref(""), direct: true},
		{name: "schemeless junk is direct", raw: ref("not a url"), direct: true},
		{name: "platform domain is direct", raw: ref("https://lovebite.bio/luna"), direct: true},
		{name: "platform subdomain is direct", raw: ref("https://www.lovdash.com/"), direct: true},
		{name: "external host", raw: ref("https://www.instagram.com/p/abc"), hostname: "www.instagram.com"},
		{name: "host is lowercased", raw: ref("https://WWW.Instagram.COM/"), hostname: "www.instagram.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, direct := ClassifyReferrer(tt.raw, testPlatformDomains)
			assert.Equal(t, tt.direct, direct)
			assert.Equal(t, tt.hostname, host)
		})
	}
}

func TestTopReferrers(t *testing.T) {
	views := viewsWithReferrers(
		nil,
		ref("https://lovebite.bio/luna"),
		ref("https://instagram.com/"),
		ref("https://instagram.com/"),
		ref("https://t.co/x"),
	)

	result := TopReferrers(views, testPlatformDomains)
	require.Len(t, result, 3)

	// Direct first (nil + platform self-referral), then externals by count.
	assert.Equal(t, ReferrerCount{Referrer: DirectReferrer, Count: 2}, result[0])
	assert.Equal(t, ReferrerCount{Referrer: "instagram.com", Count: 2}, result[1])
	assert.Equal(t, ReferrerCount{Referrer: "t.co", Count: 1}, result[2])
}

func TestTopReferrersNoDirect(t *testing.T) {
	views := viewsWithReferrers(ref("https://instagram.com/"))

	result := TopReferrers(views, testPlatformDomains)
	require.Len(t, result, 1)
	assert.Equal(t, "instagram.com", result[0].Referrer)
}

func TestTopReferrersCap(t *testing.T) {
	var referrers []*string
	for i := 0; i < 15; i++ {
		referrers = append(referrers, ref(fmt.Sprintf("https://site-%02d.example/", i)))
	}
	referrers = append(referrers, nil)

	result := TopReferrers(viewsWithReferrers(referrers...), testPlatformDomains)

	// Direct plus at most ten externals.
	require.Len(t, result, 11)
	assert.Equal(t, DirectReferrer, result[0].Referrer)

	// Equal counts tie-break alphabetically, so the listing is deterministic.
	for i := 1; i < len(result)-1; i++ {
		assert.Less(t, result[i].Referrer, result[i+1].Referrer)
	}
}

func TestTopReferrersEmpty(t *testing.T) {
	assert.Empty(t, TopReferrers(nil, testPlatformDomains))
}
