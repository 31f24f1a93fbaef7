package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lifelines-backend/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "error",
		"error":  map[string]interface{}{"message": msg, "statusCode": status},
	})
}

func TestDo_ClassifiesStatus(t *testing.T) {
	var gotKey, gotAuth, gotTrace string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(IdempotencyHeader)
		gotAuth = r.Header.Get("Authorization")
		gotTrace = r.Header.Get(TraceIDHeader)
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"id":"proj_1"}}`))
		case "/validation":
			fail(w, 400, "Title is required")
		case "/unauth":
			fail(w, 401, "Unauthorized")
		case "/forbidden":
			fail(w, 403, "Forbidden")
		case "/missing":
			fail(w, 404, "Project not found")
		case "/conflict":
			fail(w, 409, "Project not open for bidding")
		case "/busy":
			fail(w, 429, "Too many requests")
		default:
			fail(w, 503, "Session store unavailable")
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, time.Second)
	c.SetToken("tok_1")
	ctx := context.Background()

	data, err := c.Do(ctx, http.MethodPost, "/ok", json.RawMessage(`{"title":"x"}`), "key-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"proj_1"}`, string(data))
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "Bearer tok_1", gotAuth)
	assert.NotEmpty(t, gotTrace)

	cases := map[string]apperr.Kind{
		"/validation": apperr.KindValidation,
		"/unauth":     apperr.KindAuthorization,
		"/forbidden":  apperr.KindAuthorization,
		"/missing":    apperr.KindNotFound,
		"/conflict":   apperr.KindConflict,
		"/busy":       apperr.KindTransient,
		"/down":       apperr.KindTransient,
	}
	for path, kind := range cases {
		_, err := c.Do(ctx, http.MethodPost, path, nil, "")
		require.Error(t, err, path)
		assert.Equal(t, kind, apperr.KindOf(err), path)
	}
	_, err = c.Do(ctx, http.MethodPost, "/conflict", nil, "")
	assert.Equal(t, "Project not open for bidding", apperr.Message(err))
}

func TestDo_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 200*time.Millisecond, 200*time.Millisecond)
	_, err := c.Do(context.Background(), http.MethodPost, "/projects", nil, "k")
	assert.True(t, apperr.IsTransient(err))
	assert.True(t, apperr.IsTransient(c.Ping(context.Background())))
}

func TestDo_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, 50*time.Millisecond)
	_, err := c.Do(context.Background(), http.MethodPost, "/slow", nil, "")
	assert.True(t, apperr.IsTransient(err))
}
