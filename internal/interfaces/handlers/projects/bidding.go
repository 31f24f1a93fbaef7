package projects

import (
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/middleware"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) Bids(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	out, err := h.Core.Bids(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Bids", out, fiber.Map{"count": len(out)})
}

func (h *Handlers) SubmitBid(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.BidInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	b, err := h.Core.SubmitBid(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Bid submitted", b, nil)
}

func (h *Handlers) Award(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.AwardInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	res, err := h.Core.Award(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Bid awarded", res, nil)
}

func (h *Handlers) IssueLicense(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in lifecycle.LicenseInput
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	lic, err := h.Core.IssueLicense(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "License issued", lic, nil)
}

func (h *Handlers) License(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	lic, err := h.Core.License(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "License", lic, nil)
}

type previewRequest struct {
	ProjectID string `json:"projectId"`
	lifecycle.BidInput
}

// PreviewScore scores a hypothetical bid without storing it.
func (h *Handlers) PreviewScore(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	var in previewRequest
	if err := parse(c, &in); err != nil {
		return response.Failure(c, err)
	}
	if in.ProjectID == "" {
		return response.Failure(c, apperr.Validation("projectId is required"))
	}
	res, err := h.Core.PreviewScore(c.UserContext(), actor, in.ProjectID, in.BidInput)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Score preview", res, nil)
}
