package http

import (
	"net/http"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"lovdash/internal/analytics"
	"lovdash/internal/auth"
	"lovdash/internal/timeframe"
)

// ModelsAnalyticsAction serves the cross-creator rollup for admin and agency
// operators. Creators get a 403; their per-link reports live on the bio
// endpoint.
func ModelsAnalyticsAction(ctx *cartridge.Context) error {
	operator := auth.CurrentUser(ctx.Ctx)
	if operator == nil {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	if !operator.IsAdmin() && !operator.IsAgency() {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	period := timeframe.Parse(ctx.Query("period"))
	db := ctx.DBManager.GetConnection()
	rollup, err := analytics.BuildRollup(db, ctx.Logger, operator, period)
	if err != nil {
		ctx.Logger.Error("Failed to build rollup",
			slog.Any("user_id", operator.ID),
			slog.String("period", period.Label),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	return ctx.JSON(rollup)
}
