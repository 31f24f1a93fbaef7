package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/health"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]access.Actor

func (s stubResolver) Resolve(_ context.Context, token string) (*access.Actor, error) {
	if token == "down" {
		return nil, apperr.Transient(nil, "Session store unavailable")
	}
	a, ok := s[token]
	if !ok {
		return nil, apperr.Unauthenticated("Invalid token")
	}
	return &a, nil
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func authed(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSessionAndPermission(t *testing.T) {
	resolver := stubResolver{
		"tok_admin":     {ID: "user_admin", Role: roles.Admin},
		"tok_community": {ID: "user_community", Role: roles.Community},
	}
	app := fiber.New()
	app.Use(Session(resolver))
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		a, _ := CurrentActor(c)
		return c.SendString(a.ID + " " + SessionToken(c))
	})
	app.Post("/reset", AuthorizePermission(constants.ResetDataset), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	app.Post("/typo", AuthorizePermission("no_such_permission"), func(c *fiber.Ctx) error { return c.SendStatus(204) })

	cases := []struct {
		method, path, token string
		status              int
	}{
		{"GET", "/me", "", 401},
		{"GET", "/me", "tok_unknown", 401},
		{"GET", "/me", "down", 503},
		{"GET", "/me", "tok_admin", 200},
		{"POST", "/reset", "tok_community", 403},
		{"POST", "/reset", "tok_admin", 204},
		{"POST", "/typo", "tok_admin", 500},
	}
	for _, tc := range cases {
		resp, err := app.Test(authed(tc.method, tc.path, tc.token))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, "%s %s %s", tc.method, tc.path, tc.token)
	}

	resp, err := app.Test(authed("GET", "/me", "tok_admin"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "user_admin tok_admin", string(body))
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	rdb, mr := newRedis(t)
	var calls int32
	app := fiber.New()
	app.Use(Idempotency(rdb, 0))
	app.Post("/projects", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(201).JSON(fiber.Map{"n": n})
	})
	app.Post("/fail", func(c *fiber.Ctx) error { return c.SendStatus(503) })

	send := func(path, key string) (int, string, string) {
		req := httptest.NewRequest("POST", path, strings.NewReader("{}"))
		req.Header.Set(IdempotencyHeader, key)
		resp, err := app.Test(req)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b), resp.Header.Get(ReplayHeader)
	}

	status, body, replay := send("/projects", "mut_1")
	assert.Equal(t, 201, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Empty(t, replay)

	status, body, replay = send("/projects", "mut_1")
	assert.Equal(t, 201, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Equal(t, "true", replay)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists(IdempotencyPrefix+"mut_1"))

	status, _, _ = send("/fail", "mut_1")
	assert.Equal(t, 400, status)

	status, _, _ = send("/fail", "mut_2")
	assert.Equal(t, 503, status)
	assert.False(t, mr.Exists(IdempotencyPrefix+"mut_2"))

	require.NoError(t, rdb.Set(context.Background(), IdempotencyPrefix+"mut_3", `{"pending":true,"route":"POST /projects"}`, 0).Err())
	req := httptest.NewRequest("POST", "/projects", strings.NewReader("{}"))
	req.Header.Set(IdempotencyHeader, "mut_3")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode, "duplicate of an unfinished request is retryable")
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHealthMarkerAndErrorHandler(t *testing.T) {
	rdb, mr := newRedis(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(rdb)})
	app.Use(Tracing(), HealthMarker(rdb))
	app.Get("/api/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/boom", func(c *fiber.Ctx) error { return apperr.Internal(nil, "boom") })
	app.Get("/api/conflict", func(c *fiber.Ctx) error { return apperr.Conflict("taken") })
	app.Get("/api/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for _, p := range []string{"/api/ok", "/api/boom", "/api/conflict", "/api/health"} {
		req := httptest.NewRequest("GET", p, nil)
		req.Header.Set(TraceIDHeader, "trace-"+p)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "trace-"+p, resp.Header.Get(TraceIDHeader))
		if p == "/api/conflict" {
			assert.Equal(t, 409, resp.StatusCode)
		}
	}
	total, _ := mr.Get(health.KeyReqTotal)
	assert.Equal(t, "3", total)
	errs, _ := mr.Get(health.KeyReqErrors)
	assert.Equal(t, "1", errs)

	entries, err := health.Errors(context.Background(), rdb)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/boom", entries[0].Path)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".lifelines.app", DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	try := func(method, origin, pw string) int {
		req := httptest.NewRequest(method, "/", nil)
		req.Header.Set("Origin", origin)
		if pw != "" {
			req.Header.Set("dev-password", pw)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, 200, try("GET", "https://web.lifelines.app", ""))
	assert.Equal(t, 204, try("OPTIONS", "http://localhost:5173", ""))
	assert.Equal(t, 200, try("GET", "https://evil.example", "letmein"))
	assert.Equal(t, 403, try("GET", "https://evil.example", ""))
}
