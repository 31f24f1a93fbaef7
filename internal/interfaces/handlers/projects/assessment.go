package projects

import (
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SaveDamageReport accepts a full report, or just images to run the producer on.
func (h *Handlers) SaveDamageReport(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.DamageReportInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	r, err := h.Assessor.SaveDamageReport(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Damage report saved", r, nil)
}

// LatestDamageReport returns data null when the project has none.
func (h *Handlers) LatestDamageReport(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	r, err := h.Core.LatestDamageReport(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Damage report", r, nil)
}

func (h *Handlers) SavePlan(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.PlanInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	p, err := h.Assessor.SavePlan(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Plan saved", p, nil)
}

func (h *Handlers) LatestPlan(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	p, err := h.Core.LatestPlan(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Plan", p, nil)
}

func (h *Handlers) Plans(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Core.Plans(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Plans", out, fiber.Map{"count": len(out)})
}

func (h *Handlers) Matches(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Core.Matches(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Matches", out, fiber.Map{"count": len(out)})
}
