package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// getClientIP extracts the originating client address from reverse-proxy
// headers. Returns an empty string when nothing usable is present; downstream
// hashing and geolocation treat that as an unknown visitor.
func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the original client, the rest are proxies.
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	return ""
}
