package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs one line per request with status, duration, trace id and actor.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		ev := log.Info()
		if c.Response().StatusCode() >= 500 || err != nil {
			ev = log.Warn()
		}
		actorID := "-"
		if a, ok := CurrentActor(c); ok {
			actorID = a.ID
		}
		ev.Str("trace_id", GetTraceID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("actor", actorID).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("request")
		return err
	}
}
