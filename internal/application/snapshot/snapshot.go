// Package snapshot exports server truth per caller and restores it into a local store.
package snapshot

import (
	"context"
	"time"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// Version is bumped when the snapshot shape changes.
const Version = 1

// AuditTail is how many audit records a snapshot carries.
const AuditTail = 400

type Snapshot struct {
	Version       int                   `json:"version"`
	CreatedAt     time.Time             `json:"createdAt"`
	Actors        []domain.Actor        `json:"actors,omitempty"`
	Projects      []domain.Project      `json:"projects"`
	DamageReports []domain.DamageReport `json:"damageReports"`
	Plans         []domain.Plan         `json:"plans"`
	Resources     []domain.Resource     `json:"resources,omitempty"`
	Bids          []domain.Bid          `json:"bids,omitempty"`
	Licenses      []domain.License      `json:"licenses,omitempty"`
	Audit         []domain.AuditRecord  `json:"audit,omitempty"`
}

func load(db *gorm.DB, projectIDs []string, dest interface{}) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return db.Where("project_id IN ?", projectIDs).Order("created_at").Find(dest).Error
}

func visibleProjects(db *gorm.DB, keep func(*domain.Project) bool) ([]domain.Project, []string, error) {
	var all []domain.Project
	if err := db.Order("created_at DESC").Order("id").Find(&all).Error; err != nil {
		return nil, nil, err
	}
	projects := make([]domain.Project, 0, len(all))
	ids := make([]string, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			projects = append(projects, all[i])
			ids = append(ids, all[i].ID)
		}
	}
	return projects, ids, nil
}

// Build returns what actor may see: projects by the per-role read rules, their
// dependents, all actors and resources, and the audit tail.
func Build(ctx context.Context, db *gorm.DB, actor access.Actor) (*Snapshot, error) {
	db = db.WithContext(ctx)
	projects, ids, err := visibleProjects(db, func(p *domain.Project) bool { return access.CanRead(actor, p) })
	if err != nil {
		return nil, apperr.Internal(err, "failed to build snapshot")
	}
	snap := &Snapshot{
		Version:       Version,
		CreatedAt:     time.Now().UTC(),
		Projects:      projects,
		DamageReports: []domain.DamageReport{},
		Plans:         []domain.Plan{},
		Bids:          []domain.Bid{},
		Licenses:      []domain.License{},
	}
	steps := []func() error{
		func() error { return db.Order("created_at").Find(&snap.Actors).Error },
		func() error { return load(db, ids, &snap.DamageReports) },
		func() error { return load(db, ids, &snap.Plans) },
		func() error { return load(db, ids, &snap.Bids) },
		func() error { return db.Where("project_id IN ?", nonEmpty(ids)).Find(&snap.Licenses).Error },
		func() error { return db.Order("id").Find(&snap.Resources).Error },
		func() error {
			tail, err := (&audit.Service{DB: db}).Tail(ctx, AuditTail)
			snap.Audit = tail
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, apperr.Internal(err, "failed to build snapshot")
		}
	}
	return snap, nil
}

// Dump is the unfiltered store contents, used for offline packs.
func Dump(ctx context.Context, db *gorm.DB) (*Snapshot, error) {
	return Build(ctx, db, access.Actor{ID: "dump", Role: roles.Admin})
}

// nonEmpty keeps "IN ?" valid for an empty id list.
func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}

// Public is the unauthenticated view: public projects with their reports and plans.
func Public(ctx context.Context, db *gorm.DB) (*Snapshot, error) {
	db = db.WithContext(ctx)
	projects, ids, err := visibleProjects(db, func(p *domain.Project) bool { return p.Visibility == roles.VisibilityPublic })
	if err != nil {
		return nil, apperr.Internal(err, "failed to build snapshot")
	}
	snap := &Snapshot{
		Version:       Version,
		CreatedAt:     time.Now().UTC(),
		Projects:      projects,
		DamageReports: []domain.DamageReport{},
		Plans:         []domain.Plan{},
	}
	if err := load(db, ids, &snap.DamageReports); err != nil {
		return nil, apperr.Internal(err, "failed to build snapshot")
	}
	if err := load(db, ids, &snap.Plans); err != nil {
		return nil, apperr.Internal(err, "failed to build snapshot")
	}
	return snap, nil
}

// Restore replaces every row of db with the snapshot contents in one transaction.
// Actor password hashes are never exported, so restored actors cannot log in locally;
// the client keeps its own credential registry for that.
func Restore(ctx context.Context, db *gorm.DB, snap *Snapshot) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		models := domain.Models()
		for i := len(models) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
				return apperr.Internal(err, "failed to clear local store")
			}
		}
		inserts := []func() error{
			func() error { return createAll(tx, snap.Actors) },
			func() error { return createAll(tx, snap.Projects) },
			func() error { return createAll(tx, snap.DamageReports) },
			func() error { return createAll(tx, snap.Plans) },
			func() error { return createAll(tx, snap.Resources) },
			func() error { return createAll(tx, snap.Bids) },
			func() error { return createAll(tx, snap.Licenses) },
			func() error { return createAll(tx, snap.Audit) },
		}
		for _, insert := range inserts {
			if err := insert(); err != nil {
				return apperr.Internal(err, "failed to restore snapshot")
			}
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 100).Error
}
