// Package useragent classifies raw User-Agent strings into the coarse
// device/browser/OS buckets the dashboard charts. The rules are deliberately
// simple token matches, compatible with the values already stored in the
// event tables.
package useragent

import (
	"go.elara.ws/pcre"
)

// Bucket values for unclassifiable agents.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	Unknown       = "unknown"
)

// Classification holds the derived fields persisted with each event.
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
}

var (
	mobileRe  = pcre.MustCompile(`(?i)mobile`)
	tabletRe  = pcre.MustCompile(`(?i)tablet|ipad`)
	chromeRe  = pcre.MustCompile(`(?i)chrome`)
	edgeRe    = pcre.MustCompile(`(?i)edge|edg/`)
	firefoxRe = pcre.MustCompile(`(?i)firefox`)
	safariRe  = pcre.MustCompile(`(?i)safari`)
	operaRe   = pcre.MustCompile(`(?i)opera|opr/`)

	windowsRe = pcre.MustCompile(`(?i)windows`)
	macRe     = pcre.MustCompile(`(?i)mac os|macintosh`)
	linuxRe   = pcre.MustCompile(`(?i)linux`)
	androidRe = pcre.MustCompile(`(?i)android`)
	iosRe     = pcre.MustCompile(`(?i)iphone|ipad|ios`)
)

// Classify derives device type, browser and OS from a raw User-Agent string.
// Pure function, no I/O.
func Classify(userAgent string) Classification {
	return Classification{
		DeviceType: DeviceType(userAgent),
		Browser:    Browser(userAgent),
		OS:         OS(userAgent),
	}
}

// DeviceType buckets an agent as mobile, tablet or desktop. Mobile wins over
// tablet so Android tablets reporting "Mobile" stay consistent with the
// historical rows.
func DeviceType(userAgent string) string {
	switch {
	case mobileRe.MatchString(userAgent):
		return DeviceMobile
	case tabletRe.MatchString(userAgent):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// Browser resolves the browser family by first match in priority order:
// Chrome (excluding Edge tokens), Firefox, Safari (excluding Chrome), Edge,
// Opera. Chromium-based browsers advertise both "Chrome" and "Safari", hence
// the exclusions.
func Browser(userAgent string) string {
	switch {
	case chromeRe.MatchString(userAgent) && !edgeRe.MatchString(userAgent):
		return "Chrome"
	case firefoxRe.MatchString(userAgent):
		return "Firefox"
	case safariRe.MatchString(userAgent) && !chromeRe.MatchString(userAgent):
		return "Safari"
	case edgeRe.MatchString(userAgent):
		return "Edge"
	case operaRe.MatchString(userAgent):
		return "Opera"
	default:
		return Unknown
	}
}

// OS resolves the operating system by first match in priority order:
// Windows, macOS, Linux, Android, iOS. Android agents also carry a "Linux"
// token and therefore bucket as Linux; the stored historical rows follow the
// same precedence, so changing it would split the breakdowns.
func OS(userAgent string) string {
	switch {
	case windowsRe.MatchString(userAgent):
		return "Windows"
	case macRe.MatchString(userAgent):
		return "macOS"
	case linuxRe.MatchString(userAgent):
		return "Linux"
	case androidRe.MatchString(userAgent):
		return "Android"
	case iosRe.MatchString(userAgent):
		return "iOS"
	default:
		return Unknown
	}
}
