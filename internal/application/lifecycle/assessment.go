package lifecycle

import (
	"context"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recoveredCondition labels inventory created from a damage report.
const recoveredCondition = "Recovered"

// SaveDamageReport stores an immutable report. Its recoverables join the inventory as
// unreserved Identified resources sourced from the project.
func (s *Service) SaveDamageReport(ctx context.Context, actor access.Actor, projectID string, in DamageReportInput) (*domain.DamageReport, error) {
	if !roles.IsValidSeverity(in.Severity) {
		return nil, apperr.Validation("Invalid severity")
	}
	for _, r := range in.Recoverables {
		if r.Qty < 0 {
			return nil, apperr.Validation("Recoverable quantity cannot be negative")
		}
	}
	var report *domain.DamageReport
	err := s.transition(ctx, ActionSaveDamageReport, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.SaveAssessment, projectID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		confidence := datatypes.JSONMap{}
		for k, v := range in.ConfidenceScores {
			confidence[k] = v
		}
		report = &domain.DamageReport{
			ID:               s.id("dr"),
			ProjectID:        p.ID,
			Images:           nonNil(in.Images),
			Severity:         in.Severity,
			Issues:           nonNil(in.Issues),
			DebrisVolume:     in.DebrisVolume,
			Recoverables:     nonNil(in.Recoverables),
			ConfidenceScores: confidence,
			ProducerVersion:  in.ProducerVersion,
			CreatedAt:        now,
		}
		if err := tx.Create(report).Error; err != nil {
			return nil, store.Write(err, "Damage report")
		}
		source := p.ID
		for _, r := range in.Recoverables {
			if r.Qty == 0 {
				continue
			}
			res := &domain.Resource{
				ID:              s.id("res"),
				Type:            r.Type,
				Condition:       recoveredCondition,
				Qty:             r.Qty,
				Unit:            r.Unit,
				Location:        p.Location.Point(),
				SourceProjectID: &source,
				Status:          roles.ResourceIdentified,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(res).Error; err != nil {
				return nil, store.Write(err, "Resource")
			}
		}
		return &audit.Entry{EntityType: EntityDamageReport, EntityID: report.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"projectId": p.ID, "severity": report.Severity}}, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SavePlan stores a new plan version; the version is always assigned here.
func (s *Service) SavePlan(ctx context.Context, actor access.Actor, projectID string, in PlanInput) (*domain.Plan, error) {
	if in.TimelineMonths < 0 {
		return nil, apperr.Validation("Timeline cannot be negative")
	}
	for _, m := range in.Materials {
		if m.Qty < 0 {
			return nil, apperr.Validation("Material quantity cannot be negative")
		}
	}
	var plan *domain.Plan
	err := s.transition(ctx, ActionSavePlan, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.SaveAssessment, projectID)
		if err != nil {
			return nil, err
		}
		version, err := store.NextPlanVersion(tx, p.ID)
		if err != nil {
			return nil, err
		}
		plan = &domain.Plan{
			ID:                    s.id("plan"),
			ProjectID:             p.ID,
			Version:               version,
			BuildingSpec:          in.BuildingSpec,
			Materials:             nonNil(in.Materials),
			CostBreakdown:         nonNil(in.CostBreakdown),
			TimelineMonths:        in.TimelineMonths,
			SustainabilityOptions: in.SustainabilityOptions,
			SustainabilityMetrics: in.SustainabilityMetrics,
			CreatedAt:             s.now(),
		}
		if err := tx.Create(plan).Error; err != nil {
			return nil, store.Write(err, "Plan version")
		}
		return &audit.Entry{EntityType: EntityPlan, EntityID: plan.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"projectId": p.ID, "version": version}}, nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
