package middleware

import (
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth rejects requests without a resolved session with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentActor(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}
