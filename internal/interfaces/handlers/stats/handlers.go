package stats

import (
	statssvc "lifelines-backend/internal/application/stats"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Stats *statssvc.Service
}

func (h *Handlers) Contractors(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Stats.Contractors(c.UserContext(), actor)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Contractor statistics", out, nil)
}

func (h *Handlers) Materials(c *fiber.Ctx) error {
	out, err := h.Stats.Materials(c.UserContext())
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Material statistics", out, nil)
}

func (h *Handlers) Damage(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Stats.Damage(c.UserContext(), actor)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Damage statistics", out, nil)
}
