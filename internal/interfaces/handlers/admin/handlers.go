package admin

import (
	"context"

	"lifelines-backend/internal/application/seed"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Handlers serves the admin-only dataset operations.
type Handlers struct {
	DB       *gorm.DB
	Sessions seed.SessionFlusher
	Hash     func(string) (string, error)
}

// Reset reloads the demo dataset and signs out everyone but the caller.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	ctx := context.Background()
	if err := seed.Reset(ctx, h.DB, h.Sessions, actor.ID, middleware.SessionToken(c), h.Hash); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			log.Error().Err(err).Str("actor", actor.ID).Msg("dataset reset failed")
		}
		return response.Failure(c, err)
	}
	log.Info().Str("actor", actor.ID).Msg("dataset reset")
	return response.Success(c, "Dataset reset", fiber.Map{"ok": true}, nil)
}
