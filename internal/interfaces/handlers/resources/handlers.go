package resources

import (
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the salvaged inventory under /api/resources.
type Handlers struct {
	Core *lifecycle.Service
}

func (h *Handlers) List(c *fiber.Ctx) error {
	out, err := h.Core.Resources(c.UserContext())
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Resources", out, fiber.Map{"count": len(out)})
}

func (h *Handlers) Reserve(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.ReserveInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return response.Failure(c, apperr.Validation("Invalid request body"))
		}
	}
	r, err := h.Core.Reserve(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Resource reserved", r, nil)
}

func (h *Handlers) Release(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	r, err := h.Core.Release(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Resource released", r, nil)
}
