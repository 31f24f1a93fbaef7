package projects

import (
	"lifelines-backend/internal/application/assessment"
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the project lifecycle routes under /api/projects.
type Handlers struct {
	Core     *lifecycle.Service
	Assessor *assessment.Assessor
}

func parse(c *fiber.Ctx, into interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(into); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Core.ListProjects(c.UserContext(), actor)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Projects", out, fiber.Map{"count": len(out)})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	p, err := h.Core.GetProject(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Project", p, nil)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.CreateProjectInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	p, err := h.Core.CreateProject(c.UserContext(), actor, in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Project created", p, nil)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.UpdateProjectInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	p, err := h.Core.UpdateProject(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Project updated", p, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	if err := h.Core.DeleteProject(c.UserContext(), actor, c.Params("id")); err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Project deleted", fiber.Map{"id": c.Params("id")}, nil)
}

func (h *Handlers) Publish(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	p, err := h.Core.Publish(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Project published", p, nil)
}

func (h *Handlers) Complete(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	p, err := h.Core.Complete(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Project completed", p, nil)
}

func (h *Handlers) CommunityInput(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.CommunityInputInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	p, err := h.Core.AddCommunityInput(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Feedback recorded", p, nil)
}
