package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lifelines-backend/internal/application/seed"
	"lifelines-backend/internal/config"
	"lifelines-backend/internal/infrastructure/database"
	"lifelines-backend/internal/metrics"
	"lifelines-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	hash := func(p string) (string, error) {
		b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.MinCost)
		return string(b), err
	}
	require.NoError(t, seed.Load(context.Background(), db, seed.SystemActor, hash))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewApp(Deps{
		DB:             db,
		Rdb:            rdb,
		Metrics:        metrics.New(),
		Config:         &config.Config{Env: "test", HealthAdminKey: "k"},
		AssessmentSeed: 7,
		BcryptCost:     bcrypt.MinCost,
	})
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func dataID(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestHealthPing(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestAuthStatusCodes(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, http.MethodPost, "/api/projects", "", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	community := login(t, app, "community@example.com", "community123")
	status, _ = call(t, app, http.MethodPost, "/api/projects", community, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "community@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", community, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodDelete, "/api/auth/logout", community, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/auth/me", community, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "N", "email": "new@example.com", "password": "pw123456", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "N", "email": "new@example.com", "password": "pw123456", "role": "contractor",
	})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "N", "email": "new@example.com", "password": "pw123456", "role": "contractor",
	})
	assert.Equal(t, http.StatusConflict, status)
}

// Library Rebuild: create, assess, publish, bid, award, license, complete.
func TestProjectLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	official := login(t, app, "official@example.com", "official123")
	contractor := login(t, app, "contractor@example.com", "contractor123")

	status, env := call(t, app, http.MethodPost, "/api/projects", official, map[string]interface{}{
		"title": "Library Rebuild", "description": "Public library", "visibility": "public",
		"location": map[string]interface{}{"lat": 25.29, "lng": 51.53, "address": "Doha"},
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	projectID := dataID(t, env)
	base := "/api/projects/" + projectID

	status, _ = call(t, app, http.MethodPost, base+"/bids", contractor, map[string]interface{}{
		"cost": 100000, "timelineMonths": 6, "experienceCount": 3, "recycledPercent": 40,
	})
	assert.Equal(t, http.StatusConflict, status, "bids require a published project")

	status, env = call(t, app, http.MethodPost, base+"/damage-report", official, map[string]interface{}{"images": []string{"a.jpg", "b.jpg"}})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	status, env = call(t, app, http.MethodPost, base+"/plan", official, map[string]interface{}{})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)

	status, env = call(t, app, http.MethodPost, base+"/publish", official, nil)
	require.Equal(t, http.StatusOK, status, env.Error.Message)

	status, env = call(t, app, http.MethodPost, base+"/bids", contractor, map[string]interface{}{
		"cost": 100000, "timelineMonths": 6, "experienceCount": 3, "recycledPercent": 40,
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	bidID := dataID(t, env)

	status, _ = call(t, app, http.MethodPost, base+"/award", contractor, map[string]string{"bidId": bidID})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPost, base+"/award", official, map[string]string{"bidId": bidID})
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	status, _ = call(t, app, http.MethodPost, base+"/award", official, map[string]string{"bidId": bidID})
	assert.Equal(t, http.StatusOK, status, "re-awarding the same bid is a no-op")

	status, env = call(t, app, http.MethodPost, base+"/license", official, map[string]interface{}{"conditions": []string{"Site safety"}})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)

	status, env = call(t, app, http.MethodPost, base+"/complete", official, nil)
	require.Equal(t, http.StatusOK, status, env.Error.Message)

	status, env = call(t, app, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, status)
	var p struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "Completed", p.Status)

	status, _ = call(t, app, http.MethodGet, "/api/audit?entityId="+projectID, official, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/audit", contractor, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestIdempotentCreateReplays(t *testing.T) {
	app := newTestApp(t)
	official := login(t, app, "official@example.com", "official123")
	body := map[string]interface{}{"title": "Clinic annex", "description": "d"}

	status, first := call(t, app, http.MethodPost, "/api/projects", official, body, middleware.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusCreated, status)
	status, second := call(t, app, http.MethodPost, "/api/projects", official, body, middleware.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, dataID(t, first), dataID(t, second))

	status, env := call(t, app, http.MethodGet, "/api/projects", official, nil)
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	n := 0
	for _, p := range list {
		if p.Title == "Clinic annex" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestResourcesAndMatches(t *testing.T) {
	app := newTestApp(t)
	official := login(t, app, "official@example.com", "official123")

	status, env := call(t, app, http.MethodGet, "/api/resources", "", nil)
	require.Equal(t, http.StatusOK, status)
	var resources []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resources))
	require.NotEmpty(t, resources)

	path := "/api/resources/" + resources[0].ID
	status, env = call(t, app, http.MethodPost, path+"/reserve", official, map[string]interface{}{"projectId": "proj_alnoor"})
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	status, _ = call(t, app, http.MethodPost, path+"/release", official, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, path+"/release", official, nil)
	assert.Equal(t, http.StatusOK, status, "release is idempotent")

	status, _ = call(t, app, http.MethodGet, "/api/projects/proj_alnoor/matches", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSnapshotsAndStats(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, http.MethodGet, "/api/public/snapshot", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/snapshot", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := login(t, app, "admin@example.com", seed.DemoIdentities[0].Password)
	status, _ = call(t, app, http.MethodGet, "/api/snapshot", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	for _, p := range []string{"/api/stats/contractors", "/api/stats/materials", "/api/stats/damage"} {
		status, _ = call(t, app, http.MethodGet, p, admin, nil)
		assert.Equal(t, http.StatusOK, status, p)
	}
}

func TestAdminResetKeepsCallerSession(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin@example.com", seed.DemoIdentities[0].Password)
	official := login(t, app, "official@example.com", "official123")

	status, _ := call(t, app, http.MethodPost, "/api/admin/reset", official, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := call(t, app, http.MethodPost, "/api/admin/reset", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error.Message)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", admin, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/auth/me", official, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
