package middleware

import (
	"encoding/json"
	"errors"
	"time"

	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	IdempotencyPrefix = "idem:"
	ReplayHeader      = "Idempotent-Replay"
	// DefaultIdempotencyTTL is how long a stored response is replayed.
	DefaultIdempotencyTTL = 24 * time.Hour
	pendingTTL            = time.Minute
	// inProgressRetryAfter is the Retry-After, in seconds, sent while the first
	// request for a key is still running.
	inProgressRetryAfter = "1"
)

// inProgress answers a duplicate of a request that has not finished yet. It is
// a 503 so clients retry it like a network failure; the first request may
// still commit.
func inProgress(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, inProgressRetryAfter)
	return response.Failure(c, apperr.Transient(nil, "Request with this Idempotency-Key is in progress"))
}

type idemEntry struct {
	Pending     bool   `json:"pending,omitempty"`
	Route       string `json:"route"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating requests. The first request claims the key with a short-lived
// pending marker; a duplicate that arrives before it finishes gets 503 with
// Retry-After. 5xx and 401 responses are not stored, so the caller may retry
// them with the same key.
func Idempotency(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if key == "" || c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead || c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		ctx := c.UserContext()
		rkey := IdempotencyPrefix + key
		route := c.Method() + " " + c.Path()

		raw, err := rdb.Get(ctx, rkey).Bytes()
		switch {
		case err == nil:
			var e idemEntry
			if jerr := json.Unmarshal(raw, &e); jerr != nil {
				return response.Failure(c, apperr.Internal(jerr, "corrupt idempotency entry"))
			}
			if e.Route != route {
				return response.Failure(c, apperr.Validation("Idempotency-Key reused for a different request"))
			}
			if e.Pending {
				return inProgress(c)
			}
			c.Set(ReplayHeader, "true")
			if e.ContentType != "" {
				c.Set(fiber.HeaderContentType, e.ContentType)
			}
			return c.Status(e.Status).Send(e.Body)
		case !errors.Is(err, redis.Nil):
			return response.Failure(c, apperr.Transient(err, "Idempotency store unavailable"))
		}

		pending, _ := json.Marshal(idemEntry{Pending: true, Route: route})
		claimed, err := rdb.SetNX(ctx, rkey, pending, pendingTTL).Result()
		if err != nil {
			return response.Failure(c, apperr.Transient(err, "Idempotency store unavailable"))
		}
		if !claimed {
			return inProgress(c)
		}

		err = c.Next()
		status := c.Response().StatusCode()
		if err != nil || status >= fiber.StatusInternalServerError || status == fiber.StatusUnauthorized {
			rdb.Del(ctx, rkey)
			return err
		}
		body := append([]byte(nil), c.Response().Body()...)
		stored, _ := json.Marshal(idemEntry{
			Route:       route,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        body,
		})
		rdb.Set(ctx, rkey, stored, ttl)
		return nil
	}
}
