// Package lifecycle is the project state machine and every mutating operation around it.
// Each operation runs in one transaction and appends exactly one audit record when it
// changes state.
package lifecycle

import (
	"context"
	"time"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/metrics"
	"lifelines-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit action tags.
const (
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionPublish          = "publish"
	ActionSubmitBid        = "submitBid"
	ActionAward            = "award"
	ActionIssueLicense     = "issueLicense"
	ActionComplete         = "complete"
	ActionDelete           = "delete"
	ActionSaveDamageReport = "saveDamageReport"
	ActionSavePlan         = "savePlan"
	ActionReserve          = "reserve"
	ActionRelease          = "release"
	ActionCommunityInput   = "communityInput"
	ActionUpdateRegion     = "updateRegion"
)

// Audit entity types.
const (
	EntityProject      = "Project"
	EntityBid          = "Bid"
	EntityLicense      = "License"
	EntityDamageReport = "DamageReport"
	EntityPlan         = "Plan"
	EntityResource     = "Resource"
	EntityUser         = "User"
)

type Service struct {
	DB      *gorm.DB
	Audit   *audit.Service
	Metrics *metrics.Metrics
	// NewID returns a fresh entity id for prefix ("proj", "bid", ...).
	NewID func(prefix string) string
	// NewLicenseID defaults to a random LIC- id.
	NewLicenseID func() string
	Now          func() time.Time
}

// New returns a Service writing its audit trail to the same database.
func New(db *gorm.DB, m *metrics.Metrics) *Service {
	return &Service{DB: db, Audit: &audit.Service{DB: db}, Metrics: m}
}

// ServerID is the default id scheme.
func ServerID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (s *Service) id(prefix string) string {
	if s.NewID != nil {
		return s.NewID(prefix)
	}
	return ServerID(prefix)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

// transition runs fn in a transaction and audits the entry it returns under action.
// A nil entry means the call was a replay and nothing changed.
func (s *Service) transition(ctx context.Context, action string, fn func(tx *gorm.DB) (*audit.Entry, error)) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := fn(tx)
		if err != nil || entry == nil {
			return err
		}
		entry.Action = action
		s.Audit.RecordBestEffort(ctx, tx, *entry)
		return nil
	})
	s.Metrics.Transition(action, outcome(err))
	return err
}

// loadProject authorizes capability against the stored project.
func loadProject(tx *gorm.DB, actor access.Actor, capability, projectID string) (*domain.Project, error) {
	if err := access.Check(actor, capability, nil).Err(); err != nil {
		return nil, err
	}
	p, err := store.Project(tx, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor, capability, p).Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// advance moves p from one status to the next with a conditional update.
func (s *Service) advance(tx *gorm.DB, p *domain.Project, from, to string, extra map[string]interface{}) error {
	if p.Status != from {
		return apperr.Conflict("Project not in %s state", from)
	}
	now := s.now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&domain.Project{}).Where("id = ? AND status = ?", p.ID, from).Updates(updates)
	if res.Error != nil {
		return store.Write(res.Error, "Project")
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Project not in %s state", from)
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}
