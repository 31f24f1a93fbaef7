// Package remote is the HTTP boundary of the sync engine. Every failure is
// classified into an apperr kind so the engine can tell transient from final.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	authsvc "lifelines-backend/internal/application/auth"
	"lifelines-backend/internal/application/snapshot"
	"lifelines-backend/internal/pkg/apperr"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	TraceIDHeader     = "X-Trace-Id"
)

// envelope mirrors the server's success/error body.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

type Client struct {
	http         *resty.Client
	probeTimeout time.Duration

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL (e.g. http://localhost:8080/api). timeout
// bounds every call; probeTimeout bounds Ping.
func New(baseURL string, timeout, probeTimeout time.Duration) *Client {
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c, probeTimeout: probeTimeout}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx).SetHeader(TraceIDHeader, uuid.NewString())
	if t := c.Token(); t != "" {
		r.SetAuthToken(t)
	}
	return r
}

// classify turns a transport result into the data payload or an apperr.
func classify(resp *resty.Response, err error) (json.RawMessage, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperr.Transient(err, "Server unreachable")
	}
	var env envelope
	_ = json.Unmarshal(resp.Body(), &env)
	if resp.IsError() {
		msg := ""
		if env.Error != nil {
			msg = env.Error.Message
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return nil, apperr.Unauthenticated("%s", firstNonEmpty(msg, "Unauthorized"))
		}
		return nil, apperr.FromHTTPStatus(resp.StatusCode(), msg)
	}
	return env.Data, nil
}

// Do sends one mutation. key is sent as Idempotency-Key so a retry after a lost
// response replays the first result.
func (c *Client) Do(ctx context.Context, method, path string, body json.RawMessage, key string) (json.RawMessage, error) {
	r := c.request(ctx)
	if key != "" {
		r.SetHeader(IdempotencyHeader, key)
	}
	if len(body) > 0 {
		r.SetBody([]byte(body))
	}
	return classify(r.Execute(method, path))
}

func (c *Client) Get(ctx context.Context, path string, into interface{}) error {
	data, err := classify(c.request(ctx).Get(path))
	if err != nil {
		return err
	}
	if into == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return apperr.Internal(err, "invalid server response")
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*authsvc.Result, error) {
	data, err := classify(c.request(ctx).
		SetBody(authsvc.LoginInput{Email: email, Password: password}).
		Post("/auth/login"))
	if err != nil {
		return nil, err
	}
	var res authsvc.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, apperr.Internal(err, "invalid login response")
	}
	return &res, nil
}

// Snapshot fetches the caller's server truth.
func (c *Client) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := c.Get(ctx, "/snapshot", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Ping probes GET /health within the probe timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return apperr.Transient(err, "Server unreachable")
	}
	if resp.IsError() {
		return apperr.Transient(nil, "Health probe failed (%d)", resp.StatusCode())
	}
	return nil
}

func firstNonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
