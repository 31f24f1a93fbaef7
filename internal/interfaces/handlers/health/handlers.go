package health

import (
	"context"
	"time"

	healthsvc "lifelines-backend/internal/application/health"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	HealthAdminKey string
}

// Ping is the reachability probe the sync engine polls. It touches no dependency.
func (h *Handlers) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "ts": time.Now().UTC()})
}

// JSON returns dependency status, runtime and traffic counters.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	r := healthsvc.Collect(context.Background(), h.Rdb, h.DB)
	return c.JSON(fiber.Map{
		"service":      "lifelines-api",
		"status":       r.Status,
		"runtime":      r.Runtime,
		"traffic":      r.Traffic,
		"dependencies": r.Dependencies,
	})
}

// Reset clears traffic counters. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Rdb == nil {
		return response.Error(c, "Redis not configured", fiber.StatusServiceUnavailable, nil)
	}
	if err := healthsvc.Reset(context.Background(), h.Rdb); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// Errors returns the newest logged 5xx entries.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return c.JSON([]healthsvc.ErrorEntry{})
	}
	out, err := healthsvc.Errors(context.Background(), h.Rdb)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]healthsvc.ErrorEntry{})
	}
	return c.JSON(out)
}

// Dashboard renders the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	r := healthsvc.Collect(context.Background(), h.Rdb, h.DB)
	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	return c.SendString(healthsvc.RenderDashboardHTML(r))
}
