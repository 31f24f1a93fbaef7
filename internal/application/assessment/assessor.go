package assessment

import (
	"context"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/domain"
)

// DefaultSeverity drives plan generation when a project has no damage report yet.
const DefaultSeverity = "Medium"

// Assessor saves reports and plans, generating whatever the caller omitted.
type Assessor struct {
	Core     *lifecycle.Service
	Producer Producer
	Planner  *Planner
}

// NewAssessor wires the seeded stand-ins.
func NewAssessor(core *lifecycle.Service, seed int64) *Assessor {
	return &Assessor{Core: core, Producer: NewStub(seed), Planner: NewPlanner(seed)}
}

// SaveDamageReport runs the producer when in has no severity, keeping the
// caller's images.
func (a *Assessor) SaveDamageReport(ctx context.Context, actor access.Actor, projectID string, in lifecycle.DamageReportInput) (*domain.DamageReport, error) {
	if in.Severity == "" && a.Producer != nil {
		// Check access before spending a producer run.
		if _, err := a.Core.GetProject(ctx, actor, projectID); err != nil {
			return nil, err
		}
		gen, err := a.Producer.Assess(ctx, in.Images)
		if err != nil {
			return nil, err
		}
		in = gen
	}
	return a.Core.SaveDamageReport(ctx, actor, projectID, in)
}

// SavePlan generates materials, costs and timeline from the latest damage
// report when in carries no materials. The caller's sustainability options
// are kept.
func (a *Assessor) SavePlan(ctx context.Context, actor access.Actor, projectID string, in lifecycle.PlanInput) (*domain.Plan, error) {
	if len(in.Materials) == 0 && a.Planner != nil {
		p, err := a.Core.GetProject(ctx, actor, projectID)
		if err != nil {
			return nil, err
		}
		severity := DefaultSeverity
		report, err := a.Core.LatestDamageReport(ctx, actor, projectID)
		if err != nil {
			return nil, err
		}
		if report != nil {
			severity = report.Severity
		}
		gen := a.Planner.GeneratePlan(*p, severity, in.SustainabilityOptions)
		if in.BuildingSpec != (domain.BuildingSpec{}) {
			gen.BuildingSpec = in.BuildingSpec
			gen.Materials = Materials(in.BuildingSpec, severity)
			gen.CostBreakdown = Costs(gen.Materials, in.SustainabilityOptions)
			gen.TimelineMonths = Timeline(in.BuildingSpec, severity, in.SustainabilityOptions)
		}
		in = gen
	}
	return a.Core.SavePlan(ctx, actor, projectID, in)
}
