package middleware

import (
	"context"
	"errors"
	"time"

	"lifelines-backend/internal/application/health"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Typed errors keep their status,
// anything else is a 500 logged with the trace id and pushed to the health
// error log when rdb is set.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Message, fe.Code, nil)
		}
		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("request failed")
			if rdb != nil {
				entry := health.ErrorEntry{Time: time.Now().UTC(), Method: c.Method(), Path: c.Path(), Message: err.Error()}
				if lerr := health.LogError(context.Background(), rdb, entry); lerr != nil {
					log.Warn().Err(lerr).Msg("failed to record error log entry")
				}
			}
		}
		return response.Failure(c, err)
	}
}
