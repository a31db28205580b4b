package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/services"
	"userapi/pkg/jsend"
)

// unauthorizedMessage is deliberately identical for a missing header, a
// malformed header and a bad token, so a client cannot tell the cases
// apart.
const unauthorizedMessage = "unauthorized: missing or invalid token"

// AuthRequired is a Fiber middleware that gates a route behind a valid
// bearer token. On success the authenticated user id is stored in
// c.Locals("user_id") and the downstream handler runs; otherwise the
// request is rejected with a 401 fail envelope and never forwarded.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return jsend.Fail(c, fiber.StatusUnauthorized, unauthorizedMessage)
		}

		userID, err := authService.ValidateToken(parts[1])
		if err != nil {
			return jsend.Fail(c, fiber.StatusUnauthorized, unauthorizedMessage)
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
