package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"lovdash/internal/auth"
	"lovdash/internal/config"
	"lovdash/internal/http"
)

// publicCORSConfig is the permissive CORS setup shared by the public tracking
// endpoint. Bio pages post events cross-origin from arbitrary custom domains.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API.
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only in production; in development and test it would
	// interfere with seeding and the integration suite.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 120/min per IP absorbs a busy bio page without letting a single client
	// flood the ingest path.
	trackRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{trackRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	analyticsConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			auth.RequireAuth(db, logger),
		},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC TRACKING API ===
	srv.Post("/track", http.TrackEventAction, publicAPIConfig)
	srv.Options("/track", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === AUTHENTICATED ANALYTICS API ===
	// Rollup first: the fiber router would otherwise swallow "models" as a
	// :linkId parameter.
	srv.Get("/analytics/bio/models", http.ModelsAnalyticsAction, analyticsConfig)
	srv.Get("/analytics/bio/:linkId", http.BioAnalyticsAction, analyticsConfig)
}
