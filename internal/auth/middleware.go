package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lovdash/internal/users"
)

// CurrentUserKey is the fiber locals key the authenticated user is stored under.
const CurrentUserKey = "current_user"

// RequireAuth validates the Bearer token and loads the authenticated user
// into locals. Requests without a valid token get a 401 before the handler
// runs.
func RequireAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <token>",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ValidateToken(tokenString)
		if err != nil {
			logger.Debug("Token validation failed", slog.Any("error", err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := users.FindByID(db, claims.UserID)
		if err != nil {
			logger.Warn("Token references unknown user", slog.Any("user_id", claims.UserID))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(CurrentUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth, or nil when the
// request went through an unauthenticated route.
func CurrentUser(c *fiber.Ctx) *users.User {
	user, _ := c.Locals(CurrentUserKey).(*users.User)
	return user
}
