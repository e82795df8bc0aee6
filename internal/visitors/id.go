package visitors

import (
	"crypto/sha256"
	"encoding/hex"
)

// UnknownKey is the shared bucket for events carrying neither a client-supplied
// visitor id nor an IP hash. Collapsing them undercounts true uniques, which is
// accepted imprecision.
const UnknownKey = "unknown"

// HashIP computes the salted one-way pseudo-identity stored in place of a raw
// client IP. The raw address is never persisted; only the first 16 hex
// characters of SHA-256(ip + salt) are kept.
func HashIP(ipAddress, salt string) string {
	if ipAddress == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(ipAddress + salt))
	return hex.EncodeToString(hash[:])[:16]
}

// Key returns the dedup identity for one event: the client-supplied visitor id
// when present, else the IP hash, else the shared unknown bucket.
func Key(visitorID *string, ipHash string) string {
	if visitorID != nil && *visitorID != "" {
		return *visitorID
	}
	if ipHash != "" {
		return ipHash
	}
	return UnknownKey
}
