package auth

import (
	authsvc "lifelines-backend/internal/application/auth"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers serves /api/auth.
type Handlers struct {
	Auth *authsvc.Service
}

// Login POST /api/auth/login returns {token, user}.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Failure(c, authsvc.ErrEmailPasswordRequired)
	}
	res, err := h.Auth.Login(c.UserContext(), req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuthorization {
			log.Info().Str("path", "/auth/login").Str("trace_id", middleware.GetTraceID(c)).Msg("login rejected")
		}
		return response.Failure(c, err)
	}
	return response.Success(c, "Login successful", res, nil)
}

// Register POST /api/auth/register creates a non-admin actor and signs it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req authsvc.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.Failure(c, authsvc.ErrMissingFields)
	}
	res, err := h.Auth.Register(c.UserContext(), req)
	if err != nil {
		return response.Failure(c, err)
	}
	log.Info().Str("user_id", res.User.ID).Str("role", res.User.Role).Msg("user registered")
	return response.SuccessCreated(c, "User created successfully", res, nil)
}

// Me GET /api/auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Failure(c, authsvc.ErrNotAuthenticated)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": actor}, nil)
}

// Logout DELETE /api/auth/logout. Idempotent; an unknown token still succeeds.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	token := middleware.BearerToken(c)
	if token != "" {
		if err := h.Auth.Logout(c.UserContext(), token); err != nil {
			return response.Failure(c, err)
		}
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}
