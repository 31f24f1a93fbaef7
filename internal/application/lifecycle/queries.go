package lifecycle

import (
	"context"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/matching"
	"lifelines-backend/internal/application/scoring"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"

	"gorm.io/gorm"
)

// readable loads a project the actor may see. Unreadable projects look missing.
func (s *Service) readable(db *gorm.DB, actor access.Actor, projectID string) (*domain.Project, error) {
	p, err := store.Project(db, projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(actor, p) {
		return nil, apperr.NotFound("Project not found")
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, actor access.Actor, projectID string) (*domain.Project, error) {
	return s.readable(s.DB.WithContext(ctx), actor, projectID)
}

// ListProjects returns the projects visible to actor, newest first.
func (s *Service) ListProjects(ctx context.Context, actor access.Actor) ([]domain.Project, error) {
	all, err := store.Projects(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(all))
	for i := range all {
		if access.CanRead(actor, &all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// LatestDamageReport returns nil when the project has no report.
func (s *Service) LatestDamageReport(ctx context.Context, actor access.Actor, projectID string) (*domain.DamageReport, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.readable(db, actor, projectID); err != nil {
		return nil, err
	}
	return store.LatestReport(db, projectID)
}

// LatestPlan returns nil when the project has no plan.
func (s *Service) LatestPlan(ctx context.Context, actor access.Actor, projectID string) (*domain.Plan, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.readable(db, actor, projectID); err != nil {
		return nil, err
	}
	return store.LatestPlan(db, projectID)
}

func (s *Service) Plans(ctx context.Context, actor access.Actor, projectID string) ([]domain.Plan, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.readable(db, actor, projectID); err != nil {
		return nil, err
	}
	return store.Plans(db, projectID)
}

func (s *Service) Bids(ctx context.Context, actor access.Actor, projectID string) ([]domain.Bid, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.readable(db, actor, projectID); err != nil {
		return nil, err
	}
	return store.BidsForProject(db, projectID)
}

// License returns nil when none has been issued.
func (s *Service) License(ctx context.Context, actor access.Actor, projectID string) (*domain.License, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.readable(db, actor, projectID); err != nil {
		return nil, err
	}
	return store.LicenseForProject(db, projectID)
}

func (s *Service) Resources(ctx context.Context) ([]domain.Resource, error) {
	return store.Resources(s.DB.WithContext(ctx))
}

// Matches pairs the latest plan's material needs with usable inventory.
func (s *Service) Matches(ctx context.Context, actor access.Actor, projectID string) ([]matching.Candidate, error) {
	db := s.DB.WithContext(ctx)
	p, err := s.readable(db, actor, projectID)
	if err != nil {
		return nil, err
	}
	plan, err := store.LatestPlan(db, projectID)
	if err != nil {
		return nil, err
	}
	resources, err := store.Resources(db)
	if err != nil {
		return nil, err
	}
	return matching.Match(*p, plan, resources), nil
}

// PreviewScore scores a hypothetical bid against the project's current cohort.
func (s *Service) PreviewScore(ctx context.Context, actor access.Actor, projectID string, in BidInput) (*scoring.Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cohort, err := s.Bids(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	res := scoring.Preview(cohort, scoring.Inputs{
		Cost:            in.Cost,
		TimelineMonths:  in.TimelineMonths,
		ExperienceCount: float64(in.ExperienceCount),
		RecycledPercent: in.RecycledPercent,
	})
	return &res, nil
}
