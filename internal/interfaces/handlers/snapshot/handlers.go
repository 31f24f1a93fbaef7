package snapshot

import (
	snapsvc "lifelines-backend/internal/application/snapshot"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	DB *gorm.DB
}

// Public is the unauthenticated view of public projects.
func (h *Handlers) Public(c *fiber.Ctx) error {
	snap, err := snapsvc.Public(c.UserContext(), h.DB)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Public snapshot", snap, nil)
}

// Mine returns everything the caller may read, used by clients to reset their local store.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	snap, err := snapsvc.Build(c.UserContext(), h.DB, actor)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Snapshot", snap, nil)
}
