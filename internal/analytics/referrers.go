package analytics

import (
	"net/url"
	"sort"
	"strings"

	"lovdash/internal/events"
)

// DirectReferrer labels traffic without an attributable external referrer:
// no referrer at all, an unparseable one, or a self-referral from one of the
// platform's own hosting domains.
const DirectReferrer = "Direct"

// ReferrerCount is one entry in the referrer table.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
}

// maximum external referrers listed; Direct is prepended outside the cap.
const topReferrerLimit = 10

// ClassifyReferrer resolves a raw referrer value to an external hostname.
// It returns direct=true for missing or unparseable referrers and for
// self-referrals (hostnames containing any of the platform's own domains).
func ClassifyReferrer(raw *string, platformDomains []string) (hostname string, direct bool) {
	if raw == nil || *raw == "" {
		return "", true
	}

	parsed, err := url.Parse(*raw)
	if err != nil {
		return "", true
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", true
	}

	for _, domain := range platformDomains {
		if strings.Contains(host, domain) {
			return "", true
		}
	}
	return host, false
}

// TopReferrers builds the ordered referrer table for a set of page views:
// up to ten external hostnames by descending count, with Direct prepended
// whenever its count is greater than zero. Direct is not subject to the cap.
func TopReferrers(views []events.PageViewEvent, platformDomains []string) []ReferrerCount {
	directCount := 0
	counts := make(map[string]int)
	for _, view := range views {
		host, direct := ClassifyReferrer(view.Referrer, platformDomains)
		if direct {
			directCount++
			continue
		}
		counts[host]++
	}

	external := make([]ReferrerCount, 0, len(counts))
	for host, count := range counts {
		external = append(external, ReferrerCount{Referrer: host, Count: count})
	}
	sort.Slice(external, func(i, j int) bool {
		if external[i].Count != external[j].Count {
			return external[i].Count > external[j].Count
		}
		return external[i].Referrer < external[j].Referrer
	})
	if len(external) > topReferrerLimit {
		external = external[:topReferrerLimit]
	}

	result := make([]ReferrerCount, 0, len(external)+1)
	if directCount > 0 {
		result = append(result, ReferrerCount{Referrer: DirectReferrer, Count: directCount})
	}
	return append(result, external...)
}
