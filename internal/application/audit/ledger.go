// Package audit is the append-only ledger every mutating operation writes to.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"lifelines-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Service appends to and reads from the ledger.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Entry is what a caller records.
type Entry struct {
	EntityType string
	EntityID   string
	Action     string
	ActorID    string
	Details    interface{}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Record appends e. When tx is non-nil the record joins the caller's transaction.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, e Entry) (*domain.AuditRecord, error) {
	db := tx
	if db == nil {
		db = s.DB.WithContext(ctx)
	}
	details := []byte("{}")
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		details = b
	}
	rec := &domain.AuditRecord{
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		Timestamp:  s.now(),
		Details:    datatypes.JSON(details),
	}
	if err := db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordBestEffort appends e inside tx behind a savepoint. A failed write is rolled
// back to the savepoint and logged, so the caller's transaction still commits.
// A nil Service records nothing.
func (s *Service) RecordBestEffort(ctx context.Context, tx *gorm.DB, e Entry) {
	if s == nil {
		return
	}
	if err := tx.SavePoint("audit").Error; err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit savepoint failed")
		return
	}
	if _, err := s.Record(ctx, tx, e); err != nil {
		tx.RollbackTo("audit")
		log.Warn().Err(err).
			Str("action", e.Action).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID).
			Msg("audit record failed, mutation kept")
	}
}

// Filter narrows Latest. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Since      *time.Time
	Until      *time.Time
	BeforeSeq  uint64 // page cursor: only records older than this seq
	Limit      int
}

// ClampLimit applies the pagination policy: DefaultLimit when unset, MaxLimit at most.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return min(n, MaxLimit)
}

// Latest returns matching records newest-first (timestamp, then seq).
func (s *Service) Latest(ctx context.Context, f Filter) ([]domain.AuditRecord, error) {
	q := s.DB.WithContext(ctx).Model(&domain.AuditRecord{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Since != nil {
		q = q.Where("timestamp >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		q = q.Where("timestamp <= ?", f.Until.UTC())
	}
	if f.BeforeSeq > 0 {
		q = q.Where("seq < ?", f.BeforeSeq)
	}
	var out []domain.AuditRecord
	err := q.Order("timestamp DESC").Order("seq DESC").Limit(ClampLimit(f.Limit)).Find(&out).Error
	return out, err
}

// Tail returns the newest n records in chronological order, for snapshots.
func (s *Service) Tail(ctx context.Context, n int) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	if err := s.DB.WithContext(ctx).Order("timestamp DESC").Order("seq DESC").Limit(n).Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
