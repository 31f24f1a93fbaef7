package middleware

import (
	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission checks the caller's role against PermissionRoles before
// the handler runs. Project-scoped refinements stay in the lifecycle core.
// An unconfigured permission is a 500 so a typo never opens a route.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if roles, ok := constants.PermissionRoles[permission]; !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if err := access.Check(actor, permission, nil).Err(); err != nil {
			return response.Failure(c, err)
		}
		return c.Next()
	}
}
