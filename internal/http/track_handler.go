package http

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"lovdash/internal/events"
)

// TrackEventParams is the public tracking payload posted by bio pages.
type TrackEventParams struct {
	Type        string  `json:"type"`
	BioLinkID   string  `json:"bioLinkId"`
	CreatorSlug string  `json:"creatorSlug"`
	LinkItemID  *uint   `json:"linkItemId"`
	LinkLabel   string  `json:"linkLabel"`
	LinkURL     string  `json:"linkUrl"`
	VisitorID   *string `json:"visitorId"`
	Referrer    *string `json:"referrer"`
}

// TrackEventAction ingests one page-view or link-click event from a public
// bio page. Unresolvable link identities are reported as a skipped success so
// the calling page never sees an error.
func TrackEventAction(ctx *cartridge.Context) error {
	var params TrackEventParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse tracking payload", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	input := &events.RecordEventInput{
		Type:          events.EventType(params.Type),
		LinkID:        params.BioLinkID,
		CreatorSlug:   params.CreatorSlug,
		LinkItemID:    params.LinkItemID,
		LinkLabel:     params.LinkLabel,
		LinkURL:       params.LinkURL,
		VisitorID:     params.VisitorID,
		Referrer:      params.Referrer,
		RefererHeader: ctx.Get("Referer"),
		IPAddress:     getClientIP(ctx.Ctx),
		UserAgent:     ctx.Get("User-Agent"),
	}

	result, err := events.RecordEvent(ctx.DBManager, ctx.Logger, input)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEventType) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown event type",
			})
		}
		ctx.Logger.Error("Failed to record event",
			slog.String("type", params.Type),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record event",
		})
	}

	if result.Skipped {
		return ctx.JSON(fiber.Map{"success": true, "skipped": true})
	}
	return ctx.JSON(fiber.Map{"success": true})
}
