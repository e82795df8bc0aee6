package events

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"lovdash/internal/config"
	"lovdash/internal/links"
	"lovdash/internal/pkg/useragent"
	"lovdash/internal/visitors"
)

// ErrUnknownEventType is returned for a payload whose type field names
// neither a page view nor a link click.
var ErrUnknownEventType = errors.New("unknown event type")

// RecordEventInput defines the input required to record one tracking event.
// IPAddress and the header fields are extracted by the HTTP layer.
type RecordEventInput struct {
	Type          EventType
	LinkID        string // raw bioLinkId from the payload, may be empty
	CreatorSlug   string
	LinkItemID    *uint
	LinkLabel     string
	LinkURL       string
	VisitorID     *string
	Referrer      *string // explicit referrer from the payload
	RefererHeader string  // fallback from the Referer request header
	IPAddress     string
	UserAgent     string
}

// RecordResult reports the outcome of a successful RecordEvent call.
type RecordResult struct {
	// Skipped is set when the link identity could not be resolved and no row
	// was written. Tracking must never surface an error to a public bio page.
	Skipped bool
}

// RecordEvent converts an inbound tracking request into exactly one persisted
// page-view or link-click row, enriched with derived fields. Unresolvable
// link identities soft-skip; only a failed database write returns an error.
func RecordEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *RecordEventInput) (*RecordResult, error) {
	if !input.Type.Valid() {
		return nil, ErrUnknownEventType
	}

	db := dbManager.GetConnection()

	linkID, ok := resolveLinkID(db, logger, input)
	if !ok {
		// Legacy creators without a bio link row land here. Swallow silently:
		// the visitor-facing page must keep rendering.
		logger.Debug("Skipping event for unresolved link identity",
			slog.String("creator_slug", input.CreatorSlug),
			slog.String("link_id", input.LinkID))
		return &RecordResult{Skipped: true}, nil
	}

	cfg := config.GetConfig()
	ipHash := visitors.HashIP(input.IPAddress, cfg.PrivateKey)
	ua := useragent.Classify(input.UserAgent)
	location := LookupLocation(logger, input.IPAddress)
	referrer := pickReferrer(input)
	now := time.Now().UTC()

	var write func(tx *gorm.DB) error
	switch input.Type {
	case EventTypePageView:
		row := &PageViewEvent{
			LinkID:     linkID,
			VisitorID:  input.VisitorID,
			IPHash:     ipHash,
			Country:    location.Country,
			City:       location.City,
			Region:     location.Region,
			Referrer:   referrer,
			UserAgent:  input.UserAgent,
			DeviceType: ua.DeviceType,
			Browser:    ua.Browser,
			OS:         ua.OS,
			CreatedAt:  now,
		}
		write = func(tx *gorm.DB) error { return tx.Create(row).Error }
	case EventTypeLinkClick:
		row := &LinkClickEvent{
			LinkID:     linkID,
			LinkItemID: input.LinkItemID,
			LinkLabel:  input.LinkLabel,
			LinkURL:    input.LinkURL,
			VisitorID:  input.VisitorID,
			IPHash:     ipHash,
			Country:    location.Country,
			Referrer:   referrer,
			DeviceType: ua.DeviceType,
			CreatedAt:  now,
		}
		write = func(tx *gorm.DB) error { return tx.Create(row).Error }
	}

	if err := sqlite.PerformWrite(logger, db, write); err != nil {
		logger.Error("Failed to store tracking event",
			slog.String("type", string(input.Type)),
			slog.Uint64("link_id", uint64(linkID)),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to store tracking event: %w", err)
	}

	return &RecordResult{}, nil
}

// resolveLinkID resolves the logical link identity for an event: a well-formed
// explicit link id wins, otherwise the creator slug is matched against slugs
// and then custom domains.
func resolveLinkID(db *gorm.DB, logger *slog.Logger, input *RecordEventInput) (uint, bool) {
	if input.LinkID != "" {
		if id, err := strconv.ParseUint(input.LinkID, 10, 32); err == nil && id > 0 {
			return uint(id), true
		}
		logger.Debug("Malformed link id in payload, falling back to slug",
			slog.String("link_id", input.LinkID))
	}

	if input.CreatorSlug == "" {
		return 0, false
	}

	link, err := links.Resolve(db, input.CreatorSlug)
	if err != nil {
		var notFound *links.LinkNotFoundError
		if !errors.As(err, &notFound) {
			logger.Error("Error resolving bio link for event", slog.Any("error", err))
		}
		return 0, false
	}
	return link.ID, true
}

// pickReferrer applies the referrer precedence: explicit payload field, then
// the Referer header, then null.
func pickReferrer(input *RecordEventInput) *string {
	if input.Referrer != nil && *input.Referrer != "" {
		return input.Referrer
	}
	if input.RefererHeader != "" {
		header := input.RefererHeader
		return &header
	}
	return nil
}
