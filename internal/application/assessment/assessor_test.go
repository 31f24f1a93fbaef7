package assessment

import (
	"context"
	"testing"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/infrastructure/database"
	roles "lifelines-backend/internal/pkg/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAssessor(t *testing.T) (*Assessor, access.Actor, *domain.Project) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	u := &domain.Actor{ID: "user_official", Name: "Urban Planner", Email: "official@example.com", Role: roles.Official, RegionID: "doha", RegionName: "Doha"}
	require.NoError(t, db.Create(u).Error)
	official := access.FromDomain(u)

	a := NewAssessor(lifecycle.New(db, nil), 11)
	p, err := a.Core.CreateProject(context.Background(), official, lifecycle.CreateProjectInput{Title: "Seaside Clinic Wing"})
	require.NoError(t, err)
	return a, official, p
}

func TestAssessor_GeneratesOmittedReport(t *testing.T) {
	a, official, p := setupAssessor(t)
	ctx := context.Background()

	r, err := a.SaveDamageReport(ctx, official, p.ID, lifecycle.DamageReportInput{Images: []string{"/uploads/1.png"}})
	require.NoError(t, err)
	assert.True(t, roles.IsValidSeverity(r.Severity))
	assert.Equal(t, ProducerVersion, r.ProducerVersion)
	assert.Equal(t, []string{"/uploads/1.png"}, []string(r.Images))

	given, err := a.SaveDamageReport(ctx, official, p.ID, lifecycle.DamageReportInput{Severity: "Low", Issues: []string{"Minor cracking"}})
	require.NoError(t, err)
	assert.Equal(t, "Low", given.Severity)
	assert.Empty(t, given.ProducerVersion)
}

func TestAssessor_PlanFollowsLatestSeverity(t *testing.T) {
	a, official, p := setupAssessor(t)
	ctx := context.Background()

	_, err := a.SaveDamageReport(ctx, official, p.ID, lifecycle.DamageReportInput{Severity: "Critical"})
	require.NoError(t, err)

	opts := domain.SustainabilityOptions{SolarPanels: true}
	plan, err := a.SavePlan(ctx, official, p.ID, lifecycle.PlanInput{SustainabilityOptions: opts})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Version)
	assert.Equal(t, "Clinic", plan.BuildingSpec.BuildingType)
	assert.Equal(t, opts, plan.SustainabilityOptions)

	spec := plan.BuildingSpec
	assert.Equal(t, Materials(spec, "Critical"), []domain.Material(plan.Materials))
	assert.Equal(t, Timeline(spec, "Critical", opts), plan.TimelineMonths)
}

func TestAssessor_DeniesUnreadableProject(t *testing.T) {
	a, _, p := setupAssessor(t)
	stranger := access.Actor{ID: "user_x", Role: roles.Community}
	_, err := a.SaveDamageReport(context.Background(), stranger, p.ID, lifecycle.DamageReportInput{})
	assert.Error(t, err)
}
