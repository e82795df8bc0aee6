package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"lovdash/internal/analytics"
	"lovdash/internal/auth"
	"lovdash/internal/links"
	"lovdash/internal/timeframe"
	"lovdash/internal/users"
)

// BioAnalyticsAction serves the per-link analytics report. Access requires
// admin role, ownership of the link, or agency management of the owning
// creator. Authorization resolves before any aggregation work starts.
func BioAnalyticsAction(ctx *cartridge.Context) error {
	operator := auth.CurrentUser(ctx.Ctx)
	if operator == nil {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	linkID, err := strconv.ParseUint(ctx.Params("linkId"), 10, 32)
	if err != nil || linkID == 0 {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Link not found",
		})
	}

	db := ctx.DBManager.GetConnection()
	link, err := links.GetByID(db, uint(linkID))
	if err != nil {
		var notFound *links.LinkNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": "Link not found",
			})
		}
		ctx.Logger.Error("Failed to load link",
			slog.Uint64("link_id", linkID),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	if !canReadLink(db, operator, link) {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	period := timeframe.Parse(ctx.Query("period"))
	report, err := analytics.BuildReport(context.Background(), db, ctx.Logger, link.ID, period)
	if err != nil {
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	return ctx.JSON(report)
}

// canReadLink implements the report access rules: platform admins see
// everything, creators see their own links, agencies see links owned by the
// creators they manage.
func canReadLink(db *gorm.DB, operator *users.User, link *links.BioLink) bool {
	if operator.IsAdmin() {
		return true
	}
	if operator.IsCreator() {
		return link.CreatorID == operator.ID
	}
	if operator.IsAgency() {
		owner, err := users.FindByID(db, link.CreatorID)
		if err != nil {
			return false
		}
		return owner.AgencyID != nil && *owner.AgencyID == operator.ID
	}
	return false
}
