package middleware

import (
	"context"
	"strings"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	actorLocal = "actor"
	tokenLocal = "token"
)

// Resolver turns a bearer token into the actor behind it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*access.Actor, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Session loads the actor for the request's bearer token into Locals. Unknown
// tokens leave the request anonymous; RequireAuth rejects it later. A session
// store outage fails the request with 503 so clients treat it as transient.
func Session(r Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		actor, err := r.Resolve(c.UserContext(), token)
		if err != nil {
			if apperr.IsTransient(err) {
				return response.Failure(c, err)
			}
			return c.Next()
		}
		c.Locals(actorLocal, *actor)
		c.Locals(tokenLocal, token)
		return c.Next()
	}
}

// CurrentActor returns the authenticated actor; ok is false for anonymous requests.
func CurrentActor(c *fiber.Ctx) (access.Actor, bool) {
	a, ok := c.Locals(actorLocal).(access.Actor)
	return a, ok
}

// SessionToken returns the bearer token of an authenticated request.
func SessionToken(c *fiber.Ctx) string {
	t, _ := c.Locals(tokenLocal).(string)
	return t
}
