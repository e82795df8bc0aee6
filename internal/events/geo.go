package events

import (
	"net"

	"log/slog"

	"lovdash/internal/pkg/geoip"
)

// UnknownLocation is the default for every geo field when enrichment is
// skipped or fails. Geolocation is best-effort and must never fail a request.
const UnknownLocation = "Unknown"

// Location holds the coarse geo fields persisted with an event.
type Location struct {
	Country string
	City    string
	Region  string
}

func unknownLocation() Location {
	return Location{Country: UnknownLocation, City: UnknownLocation, Region: UnknownLocation}
}

// LookupLocation resolves a client IP to coarse geolocation. Loopback,
// private and unparseable addresses are skipped entirely; a missing GeoLite2
// database or a failed lookup degrades to Unknown rather than erroring.
func LookupLocation(logger *slog.Logger, ipAddress string) Location {
	if ipAddress == "" {
		return unknownLocation()
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return unknownLocation()
	}

	geoDB := geoip.GetGeoDB()
	if geoDB == nil {
		return unknownLocation()
	}

	record, err := geoDB.City(ip)
	if err != nil {
		logger.Debug("GeoLite2 lookup failed", slog.Any("error", err))
		return unknownLocation()
	}

	loc := unknownLocation()
	if name := record.Country.Names["en"]; name != "" {
		loc.Country = name
	}
	if name := record.City.Names["en"]; name != "" {
		loc.City = name
	}
	if len(record.Subdivisions) > 0 {
		if name := record.Subdivisions[0].Names["en"]; name != "" {
			loc.Region = name
		}
	}
	return loc
}
