package user

import (
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/users.
type Handlers struct {
	Core *lifecycle.Service
}

// UpdateRegion PUT /api/users/:id/region. Self or admin; empty fields keep their value.
func (h *Handlers) UpdateRegion(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.RegionInput
	if err := c.BodyParser(&in); err != nil {
		return response.Failure(c, apperr.Validation("Invalid request body"))
	}
	u, err := h.Core.UpdateRegion(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Region updated", fiber.Map{
		"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role,
		"regionId": u.RegionID, "regionName": u.RegionName,
	}, nil)
}
