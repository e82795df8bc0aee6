package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	uaEdgeWindows   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0"
	uaSafariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	uaSafariMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
	uaFirefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0"
	uaChromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36"
	uaSafariIPad    = "Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	uaOpera         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36 OPR/111.0.0.0"
)

func TestDeviceType(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{name: "desktop chrome", ua: uaChromeWindows, expected: DeviceDesktop},
		{name: "iphone is mobile", ua: uaSafariIPhone, expected: DeviceMobile},
		{name: "android phone is mobile", ua: uaChromeAndroid, expected: DeviceMobile},
		// iPad agents carry "Mobile" too; the mobile token wins on purpose.
		{name: "ipad with mobile token", ua: uaSafariIPad, expected: DeviceMobile},
		{name: "plain tablet token", ua: "Mozilla/5.0 (Tablet; rv:127.0) Gecko Firefox/127.0", expected: DeviceTablet},
		{name: "empty agent is desktop", ua: "", expected: DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeviceType(tt.ua))
		})
	}
}

func TestBrowser(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{name: "chrome", ua: uaChromeWindows, expected: "Chrome"},
		// Edge advertises Chrome and Safari tokens as well.
		{name: "edge not chrome", ua: uaEdgeWindows, expected: "Edge"},
		{name: "firefox", ua: uaFirefoxLinux, expected: "Firefox"},
		{name: "safari", ua: uaSafariMac, expected: "Safari"},
		// Chrome advertises Safari; the Chrome token must win.
		{name: "chrome not safari", ua: uaChromeAndroid, expected: "Chrome"},
		{name: "opera resolves as chrome first", ua: uaOpera, expected: "Chrome"},
		{name: "opera without chrome token", ua: "Opera/9.80 (Windows NT 6.1) Presto/2.12.388 Version/12.18", expected: "Opera"},
		{name: "unknown agent", ua: "curl/8.5.0", expected: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Browser(tt.ua))
		})
	}
}

func TestOS(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{name: "windows", ua: uaChromeWindows, expected: "Windows"},
		{name: "macos", ua: uaSafariMac, expected: "macOS"},
		{name: "linux", ua: uaFirefoxLinux, expected: "Linux"},
		// Android agents carry a Linux token and bucket as Linux by precedence.
		{name: "android buckets as linux", ua: uaChromeAndroid, expected: "Linux"},
		// iPhone agents say "like Mac OS X" and bucket as macOS by precedence.
		{name: "iphone buckets as macos", ua: uaSafariIPhone, expected: "macOS"},
		{name: "bare ios token", ua: "MyApp/1.0 iOS/17.4", expected: "iOS"},
		{name: "unknown agent", ua: "curl/8.5.0", expected: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OS(tt.ua))
		})
	}
}

func TestClassify(t *testing.T) {
	c := Classify(uaChromeAndroid)
	assert.Equal(t, DeviceMobile, c.DeviceType)
	assert.Equal(t, "Chrome", c.Browser)
	assert.Equal(t, "Linux", c.OS)
}
