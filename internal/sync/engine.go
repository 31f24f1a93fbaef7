// Package sync keeps the client working while the server is unreachable.
// Writes go to the server first; a transient failure applies them to the local
// snapshot and queues them for replay in FIFO order. Once the queue drains the
// local snapshot is replaced with server truth.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	stdsync "sync"
	"time"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/assessment"
	authsvc "lifelines-backend/internal/application/auth"
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/application/snapshot"
	"lifelines-backend/internal/config"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/infrastructure/database"
	"lifelines-backend/internal/metrics"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/sync/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// LocalIDPrefix marks ids minted offline; they are rewritten during drain.
	LocalIDPrefix       = "local_"
	DefaultSyncInterval = 8 * time.Second
	sessionSlot         = "current"
)

// ErrNoSession is returned by operations that need a signed-in actor.
var ErrNoSession = apperr.Unauthenticated("Not signed in")

// Remote is the server as seen by the engine. *remote.Client implements it.
type Remote interface {
	Do(ctx context.Context, method, path string, body json.RawMessage, key string) (json.RawMessage, error)
	Login(ctx context.Context, email, password string) (*authsvc.Result, error)
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)
	Ping(ctx context.Context) error
	SetToken(token string)
}

type Options struct {
	SyncInterval time.Duration
	Metrics      *metrics.Metrics
	// BcryptCost is used for the local credential registry; zero means bcrypt.DefaultCost.
	BcryptCost     int
	AssessmentSeed int64
	Now            func() time.Time
}

type Session struct {
	Token string       `json:"token"`
	User  access.Actor `json:"user"`
	// Local sessions were issued from the credential registry while offline.
	Local bool `json:"local"`
}

// Result is what a mutation hands back. PendingSync marks a locally applied
// write that has not reached the server yet.
type Result struct {
	Data        json.RawMessage `json:"data"`
	PendingSync bool            `json:"pendingSync"`
	MutationID  string          `json:"mutationId,omitempty"`
}

func (r *Result) Decode(into interface{}) error {
	return json.Unmarshal(r.Data, into)
}

type Status struct {
	Online     bool       `json:"online"`
	LastError  string     `json:"lastError,omitempty"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	Pending    int64      `json:"pending"`
	Rejected   int64      `json:"rejected"`
	Session    *Session   `json:"session,omitempty"`
}

type credentials struct {
	email, password string
}

type Engine struct {
	db       *gorm.DB
	remote   Remote
	local    *Local
	metrics  *metrics.Metrics
	interval time.Duration
	cost     int
	now      func() time.Time

	// draining serializes drains and snapshot refreshes.
	draining stdsync.Mutex

	mu        stdsync.Mutex
	online    bool
	lastError string
	lastSync  *time.Time
	session   *Session
	creds     *credentials
}

// LocalID mints an offline id, e.g. local_proj_<uuid>.
func LocalID(prefix string) string {
	return LocalIDPrefix + prefix + "_" + uuid.NewString()
}

// Open builds an engine from client config: local SQLite file plus resty remote.
func Open(ctx context.Context, cfg *config.ClientConfig, m *metrics.Metrics) (*Engine, error) {
	db, err := database.OpenSQLite(cfg.LocalDB, nil)
	if err != nil {
		return nil, err
	}
	rc := remote.New(cfg.APIURL, cfg.RemoteTimeout, cfg.ProbeTimeout)
	return New(ctx, db, rc, Options{SyncInterval: cfg.SyncInterval, Metrics: m, AssessmentSeed: time.Now().UnixNano()})
}

// New migrates the local store, requeues mutations left in flight by a crash,
// seeds the credential registry and restores the persisted session.
func New(ctx context.Context, db *gorm.DB, rc Remote, opts Options) (*Engine, error) {
	if err := db.WithContext(ctx).AutoMigrate(append(domain.Models(), Models()...)...); err != nil {
		return nil, err
	}
	core := lifecycle.New(db, opts.Metrics)
	core.NewID = LocalID
	e := &Engine{
		db:       db,
		remote:   rc,
		local:    &Local{Core: core, Assessor: assessment.NewAssessor(core, opts.AssessmentSeed)},
		metrics:  opts.Metrics,
		interval: opts.SyncInterval,
		cost:     opts.BcryptCost,
		now:      opts.Now,
	}
	if e.interval <= 0 {
		e.interval = DefaultSyncInterval
	}
	if e.cost == 0 {
		e.cost = bcrypt.DefaultCost
	}
	if e.now == nil {
		e.now = time.Now
	}
	if err := db.WithContext(ctx).Model(&PendingMutation{}).Where("state = ?", StateInFlight).
		Update("state", StateQueued).Error; err != nil {
		return nil, err
	}
	if err := e.seedCredentials(ctx); err != nil {
		return nil, err
	}
	if err := e.loadSession(ctx); err != nil {
		return nil, err
	}
	e.updateDepth(ctx)
	return e, nil
}

// Local is the lifecycle core over the local snapshot, for offline reads.
func (e *Engine) Local() *lifecycle.Service { return e.local.Core }

func (e *Engine) DB() *gorm.DB { return e.db }

// Close releases the local store.
func (e *Engine) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	s := *e.session
	return &s
}

func (e *Engine) markOnline() {
	e.mu.Lock()
	e.online = true
	e.lastError = ""
	e.mu.Unlock()
}

func (e *Engine) markOffline(err error) {
	e.mu.Lock()
	e.online = false
	e.lastError = apperr.Message(err)
	e.mu.Unlock()
}

func (e *Engine) noteError(err error) {
	e.mu.Lock()
	e.lastError = apperr.Message(err)
	e.mu.Unlock()
}

func (e *Engine) isOnline() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

func (e *Engine) pendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&PendingMutation{}).Count(&n).Error
	return n, err
}

func (e *Engine) updateDepth(ctx context.Context) {
	if n, err := e.pendingCount(ctx); err == nil {
		e.metrics.SetQueueDepth(int(n))
	}
}

// Execute runs m against the server, or locally plus queued when the server
// is unreachable. While older mutations are queued, m is queued behind them.
// Non-transient failures are returned unchanged and nothing is queued.
func (e *Engine) Execute(ctx context.Context, m Mutation) (*Result, error) {
	s := e.Session()
	if s == nil {
		return nil, ErrNoSession
	}
	var body json.RawMessage
	if m.Body != nil {
		b, err := json.Marshal(m.Body)
		if err != nil {
			return nil, apperr.Validation("Invalid request body")
		}
		body = b
	}
	id := uuid.NewString()

	pending, err := e.pendingCount(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to read sync queue")
	}
	if pending == 0 && !s.Local {
		// A refresh that failed after a drain leaves local_ ids in the snapshot.
		path, payload, err := e.rewrite(ctx, m.Path, body)
		if err != nil {
			return nil, err
		}
		data, err := e.remote.Do(ctx, m.Method, path, payload, id)
		if err == nil {
			e.markOnline()
			e.refreshBestEffort(ctx)
			return &Result{Data: data, MutationID: id}, nil
		}
		if !apperr.IsTransient(err) {
			return nil, err
		}
		e.markOffline(err)
	}

	out, created, err := m.Apply(ctx, e.local, s.User)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode local result")
	}
	row := PendingMutation{
		ID:         id,
		Method:     m.Method,
		Path:       m.Path,
		Payload:    []byte(body),
		EnqueuedAt: e.now().UTC(),
		State:      StateQueued,
		LocalRef:   created,
	}
	if err := e.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperr.Internal(err, "failed to queue mutation")
	}
	e.metrics.LocalFallback()
	e.updateDepth(ctx)
	log.Info().Str("mutation_id", id).Str("method", m.Method).Str("path", m.Path).Msg("queued for sync")
	return &Result{Data: data, PendingSync: true, MutationID: id}, nil
}

// refreshBestEffort pulls server truth unless a drain is running.
func (e *Engine) refreshBestEffort(ctx context.Context) {
	if !e.draining.TryLock() {
		return
	}
	defer e.draining.Unlock()
	if n, err := e.pendingCount(ctx); err != nil || n > 0 {
		return
	}
	if err := e.refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot refresh failed")
	}
}

// refresh replaces the local snapshot with the caller's server truth.
func (e *Engine) refresh(ctx context.Context) error {
	snap, err := e.remote.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := snapshot.Restore(ctx, e.db, snap); err != nil {
		return err
	}
	now := e.now().UTC()
	e.mu.Lock()
	e.lastSync = &now
	e.mu.Unlock()
	return e.db.WithContext(ctx).Model(&SessionRecord{}).Where("slot = ?", sessionSlot).
		Update("last_sync_at", now).Error
}

// Status reports connectivity, queue sizes and the current session.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	db := e.db.WithContext(ctx)
	st := &Status{}
	if err := db.Model(&PendingMutation{}).Count(&st.Pending).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&RejectedMutation{}).Count(&st.Rejected).Error; err != nil {
		return nil, err
	}
	e.mu.Lock()
	st.Online = e.online
	st.LastError = e.lastError
	st.LastSyncAt = e.lastSync
	e.mu.Unlock()
	st.Session = e.Session()
	return st, nil
}

// Pending lists queued mutations oldest first.
func (e *Engine) Pending(ctx context.Context) ([]PendingMutation, error) {
	var out []PendingMutation
	err := e.db.WithContext(ctx).Order("seq").Find(&out).Error
	return out, err
}

// Rejected lists the dead-letter mutations oldest first.
func (e *Engine) Rejected(ctx context.Context) ([]RejectedMutation, error) {
	var out []RejectedMutation
	err := e.db.WithContext(ctx).Order("seq").Find(&out).Error
	return out, err
}

// Run probes the server every SyncInterval and drains when it is reachable.
// It returns when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick is one probe. A drain runs when the server came back or work is queued.
func (e *Engine) Tick(ctx context.Context) {
	was := e.isOnline()
	if err := e.remote.Ping(ctx); err != nil {
		e.markOffline(err)
		return
	}
	e.markOnline()
	n, err := e.pendingCount(ctx)
	if err != nil {
		log.Error().Err(err).Msg("read sync queue")
		return
	}
	if was && n == 0 {
		return
	}
	if e.Session() == nil {
		return
	}
	if _, err := e.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("drain stopped")
	}
}
