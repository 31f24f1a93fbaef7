package lifecycle

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/infrastructure/database"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc         *Service
	db          *gorm.DB
	admin       access.Actor
	official    access.Actor
	other       access.Actor
	contractorA access.Actor
	contractorB access.Actor
	community   access.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	return fixtureOn(t, db)
}

// setupShared uses a file store with several connections so transitions can
// run at the same time.
func setupShared(t *testing.T) *fixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "lifecycle.db") + "?_txlock=immediate&_pragma=journal_mode(WAL)"
	db, err := database.OpenSQLite(dsn, nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return fixtureOn(t, db)
}

func fixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	require.NoError(t, database.AutoMigrate(db))

	mk := func(id, role string) access.Actor {
		a := &domain.Actor{ID: id, Name: id, Email: id + "@example.com", Role: role, RegionID: "doha", RegionName: "Doha"}
		require.NoError(t, db.Create(a).Error)
		return access.FromDomain(a)
	}
	return &fixture{
		svc:         New(db, nil),
		db:          db,
		admin:       mk("user_admin", roles.Admin),
		official:    mk("user_official", roles.Official),
		other:       mk("user_official_2", roles.Official),
		contractorA: mk("user_contractor_a", roles.Contractor),
		contractorB: mk("user_contractor_b", roles.Contractor),
		community:   mk("user_community", roles.Community),
	}
}

func (f *fixture) auditCount(t *testing.T, action string) int64 {
	var n int64
	require.NoError(t, f.db.Model(&domain.AuditRecord{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func (f *fixture) draft(t *testing.T, title string) *domain.Project {
	p, err := f.svc.CreateProject(context.Background(), f.official, CreateProjectInput{Title: title})
	require.NoError(t, err)
	return p
}

func (f *fixture) published(t *testing.T, title string) *domain.Project {
	p := f.draft(t, title)
	p, err := f.svc.Publish(context.Background(), f.official, p.ID)
	require.NoError(t, err)
	return p
}

func TestLibraryRebuildScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := f.draft(t, "Library Rebuild")
	assert.Equal(t, roles.StatusDraft, p.Status)
	assert.Equal(t, roles.VisibilityPrivate, p.Visibility)

	p, err := f.svc.Publish(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.StatusPublished, p.Status)
	assert.Equal(t, roles.VisibilityPublic, p.Visibility)

	ledger := &audit.Service{DB: f.db}
	recs, err := ledger.Latest(ctx, audit.Filter{EntityID: p.ID, Action: ActionPublish})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	bidA, err := f.svc.SubmitBid(ctx, f.contractorA, p.ID, BidInput{Cost: 150000, TimelineMonths: 6, ExperienceCount: 8, RecycledPercent: 30})
	require.NoError(t, err)
	bidB, err := f.svc.SubmitBid(ctx, f.contractorB, p.ID, BidInput{Cost: 170000, TimelineMonths: 5, ExperienceCount: 3, RecycledPercent: 10})
	require.NoError(t, err)

	bids, err := f.svc.Bids(ctx, f.official, p.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	scores := map[string]float64{}
	for _, b := range bids {
		scores[b.ID] = b.Score
	}
	assert.InDelta(t, 0.66, scores[bidA.ID], 1e-9)
	assert.InDelta(t, 0.22, scores[bidB.ID], 1e-9)
	assert.Greater(t, scores[bidA.ID], scores[bidB.ID])

	res, err := f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: bidA.ID})
	require.NoError(t, err)
	assert.Equal(t, roles.StatusAwarded, res.Project.Status)
	for _, b := range res.Bids {
		if b.ID == bidA.ID {
			assert.Equal(t, roles.BidAwarded, b.Status)
		} else {
			assert.Equal(t, roles.BidRejected, b.Status)
		}
	}

	lic, err := f.svc.IssueLicense(ctx, f.official, p.ID, LicenseInput{Conditions: []string{"Weekly site report"}})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^LIC-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{8}$`), lic.ID)
	assert.Equal(t, f.contractorA.ID, lic.ContractorID)
	assert.Equal(t, domain.SignaturePlaceholder, lic.Signature)
	assert.Equal(t, lic.ValidFrom, lic.ValidTo)

	p, err = f.svc.GetProject(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.StatusLicensed, p.Status)

	p, err = f.svc.Complete(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.StatusCompleted, p.Status)

	_, err = f.svc.Publish(ctx, f.official, p.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.svc.Complete(ctx, f.official, p.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAward_ExclusiveAndReplayable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.published(t, "Seaside Clinic Wing")

	var ids []string
	for _, c := range []access.Actor{f.contractorA, f.contractorB, f.contractorA} {
		b, err := f.svc.SubmitBid(ctx, c, p.ID, BidInput{Cost: 100000, TimelineMonths: 4})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	_, err := f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: ids[1]})
	require.NoError(t, err)
	before := f.auditCount(t, ActionAward)

	again, err := f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: ids[1]})
	require.NoError(t, err)
	assert.Equal(t, ids[1], again.Bid.ID)
	assert.Equal(t, before, f.auditCount(t, ActionAward))

	_, err = f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: ids[0]})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	var awarded int64
	require.NoError(t, f.db.Model(&domain.Bid{}).Where("project_id = ? AND status = ?", p.ID, roles.BidAwarded).Count(&awarded).Error)
	assert.EqualValues(t, 1, awarded)
}

func TestAward_RequiresPublishedAndOwnBid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.published(t, "Block B")
	other := f.published(t, "Road Segment")
	b, err := f.svc.SubmitBid(ctx, f.contractorA, other.ID, BidInput{Cost: 1, TimelineMonths: 1})
	require.NoError(t, err)

	_, err = f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	draft := f.draft(t, "Draft only")
	_, err = f.svc.Award(ctx, f.official, draft.ID, AwardInput{BidID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Award(ctx, f.other, other.ID, AwardInput{BidID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.svc.Award(ctx, f.admin, other.ID, AwardInput{BidID: b.ID})
	assert.NoError(t, err)
}

func TestGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, f.contractorA, CreateProjectInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = f.svc.CreateProject(ctx, f.official, CreateProjectInput{Title: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.CreateProject(ctx, access.Actor{}, CreateProjectInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	p := f.draft(t, "Al Noor Community Center")
	_, err = f.svc.Publish(ctx, f.other, p.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.svc.SubmitBid(ctx, f.contractorA, p.ID, BidInput{Cost: 10, TimelineMonths: 2})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.IssueLicense(ctx, f.official, p.ID, LicenseInput{})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	status := roles.StatusCompleted
	_, err = f.svc.UpdateProject(ctx, f.official, p.ID, UpdateProjectInput{Status: &status})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Complete(ctx, f.official, p.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	p = f.published(t, "Open project")
	for _, in := range []BidInput{
		{Cost: 0, TimelineMonths: 3},
		{Cost: 10, TimelineMonths: 0},
		{Cost: 10, TimelineMonths: 3, ExperienceCount: -1},
		{Cost: 10, TimelineMonths: 3, RecycledPercent: 101},
	} {
		_, err = f.svc.SubmitBid(ctx, f.contractorA, p.ID, in)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", in)
	}
	_, err = f.svc.SubmitBid(ctx, f.official, p.ID, BidInput{Cost: 10, TimelineMonths: 3})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.svc.Publish(ctx, f.official, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.draft(t, "Old title")

	title := "New title"
	enabled := true
	p, err := f.svc.UpdateProject(ctx, f.official, p.ID, UpdateProjectInput{Title: &title, CommunityFeedbackEnabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, "New title", p.Title)
	assert.True(t, p.CommunityFeedbackEnabled)
	assert.EqualValues(t, 1, f.auditCount(t, ActionUpdate))

	same := roles.StatusDraft
	_, err = f.svc.UpdateProject(ctx, f.official, p.ID, UpdateProjectInput{Status: &same})
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.auditCount(t, ActionUpdate))

	bad := "secret"
	_, err = f.svc.UpdateProject(ctx, f.official, p.ID, UpdateProjectInput{Visibility: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReserveRelease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.draft(t, "A")
	b := f.draft(t, "B")
	r := &domain.Resource{ID: "res_bricks_01", Type: "Bricks", Qty: 8600, Unit: "units", Status: roles.ResourceIdentified}
	require.NoError(t, f.db.Create(r).Error)

	got, err := f.svc.Reserve(ctx, f.official, r.ID, ReserveInput{ProjectID: a.ID})
	require.NoError(t, err)
	require.NotNil(t, got.ReservedForProjectID)
	assert.Equal(t, a.ID, *got.ReservedForProjectID)
	assert.Equal(t, roles.ResourceAllocated, got.Status)

	_, err = f.svc.Reserve(ctx, f.official, r.ID, ReserveInput{ProjectID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.Reserve(ctx, f.official, r.ID, ReserveInput{ProjectID: a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.auditCount(t, ActionReserve))

	got, err = f.svc.Release(ctx, f.official, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReservedForProjectID)
	assert.Equal(t, roles.ResourceCertified, got.Status)

	_, err = f.svc.Release(ctx, f.official, r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.auditCount(t, ActionRelease))

	_, err = f.svc.Reserve(ctx, f.official, r.ID, ReserveInput{ProjectID: b.ID})
	assert.NoError(t, err)

	_, err = f.svc.Reserve(ctx, f.contractorA, r.ID, ReserveInput{ProjectID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = f.svc.Reserve(ctx, f.official, "missing", ReserveInput{ProjectID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReserve_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := setupShared(t)
	ctx := context.Background()
	const n = 6
	projects := make([]string, n)
	for i := range projects {
		projects[i] = f.draft(t, "Claimant").ID
	}
	r := &domain.Resource{ID: "res_bricks_01", Type: "Bricks", Qty: 8600, Unit: "units", Status: roles.ResourceIdentified}
	require.NoError(t, f.db.Create(r).Error)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Reserve(ctx, f.admin, r.ID, ReserveInput{ProjectID: projects[i]})
		}(i)
	}
	close(start)
	wg.Wait()

	winner := ""
	for i, err := range errs {
		if err == nil {
			assert.Empty(t, winner, "two claims succeeded")
			winner = projects[i]
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	require.NotEmpty(t, winner)

	var stored domain.Resource
	require.NoError(t, f.db.First(&stored, "id = ?", r.ID).Error)
	require.NotNil(t, stored.ReservedForProjectID)
	assert.Equal(t, winner, *stored.ReservedForProjectID)
	assert.EqualValues(t, 1, f.auditCount(t, ActionReserve))
}

func TestSavePlan_VersionsIncrease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.draft(t, "Clinic")
	for want := 1; want <= 3; want++ {
		plan, err := f.svc.SavePlan(ctx, f.official, p.ID, PlanInput{
			TimelineMonths: 6,
			Materials:      []domain.Material{{Type: "Steel", Qty: 4.6, Unit: "tons"}},
		})
		require.NoError(t, err)
		assert.Equal(t, want, plan.Version)
	}
	latest, err := f.svc.LatestPlan(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)

	history, err := f.svc.Plans(ctx, f.official, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Version)

	_, err = f.svc.SavePlan(ctx, f.other, p.ID, PlanInput{})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
}

func TestSaveDamageReport_AddsInventory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, f.official, CreateProjectInput{
		Title:    "Al Noor",
		Location: &domain.Location{Lat: 25.2859, Lng: 51.5352, Address: "Al Noor District, Doha"},
	})
	require.NoError(t, err)
	assert.Equal(t, "doha", p.Location.RegionID)

	rep, err := f.svc.SaveDamageReport(ctx, f.official, p.ID, DamageReportInput{
		Severity: "Medium",
		Issues:   []string{"Wall cracking"},
		Recoverables: []domain.Recoverable{
			{Type: "Bricks", Unit: "units", Qty: 5200},
			{Type: "Steel", Unit: "tons", Qty: 2.8},
		},
		ConfidenceScores: map[string]float64{"severity": 0.79},
	})
	require.NoError(t, err)

	latest, err := f.svc.LatestDamageReport(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, latest.ID)

	var found []domain.Resource
	require.NoError(t, f.db.Where("source_project_id = ?", p.ID).Find(&found).Error)
	require.Len(t, found, 2)
	for _, r := range found {
		assert.Equal(t, roles.ResourceIdentified, r.Status)
		assert.Nil(t, r.ReservedForProjectID)
		assert.Equal(t, 25.2859, r.Location.Lat)
	}
	assert.EqualValues(t, 1, f.auditCount(t, ActionSaveDamageReport))

	_, err = f.svc.SaveDamageReport(ctx, f.official, p.ID, DamageReportInput{Severity: "Apocalyptic"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteProject_Cascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.published(t, "Doomed")
	_, err := f.svc.SubmitBid(ctx, f.contractorA, p.ID, BidInput{Cost: 5, TimelineMonths: 5})
	require.NoError(t, err)
	_, err = f.svc.SavePlan(ctx, f.official, p.ID, PlanInput{})
	require.NoError(t, err)
	r := &domain.Resource{ID: "res_steel_01", Type: "Steel", Qty: 3.2, Unit: "tons"}
	require.NoError(t, f.db.Create(r).Error)
	_, err = f.svc.Reserve(ctx, f.official, r.ID, ReserveInput{ProjectID: p.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteProject(ctx, f.official, p.ID), apperr.ErrAuthorization)
	require.NoError(t, f.svc.DeleteProject(ctx, f.admin, p.ID))

	for _, m := range []interface{}{&domain.Project{}, &domain.Bid{}, &domain.Plan{}} {
		var n int64
		require.NoError(t, f.db.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
	var freed domain.Resource
	require.NoError(t, f.db.First(&freed, "id = ?", r.ID).Error)
	assert.Nil(t, freed.ReservedForProjectID)
	assert.EqualValues(t, 1, f.auditCount(t, ActionDelete))
}

func TestAddCommunityInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.published(t, "Feedback")

	_, err := f.svc.AddCommunityInput(ctx, f.community, p.ID, CommunityInputInput{Comment: "Great"})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	enabled := true
	_, err = f.svc.UpdateProject(ctx, f.official, p.ID, UpdateProjectInput{CommunityFeedbackEnabled: &enabled})
	require.NoError(t, err)

	p, err = f.svc.AddCommunityInput(ctx, f.community, p.ID, CommunityInputInput{ID: "ci_1", Comment: "Great", ApprovalSignal: "support"})
	require.NoError(t, err)
	require.Len(t, p.CommunityInputs, 1)

	p, err = f.svc.AddCommunityInput(ctx, f.community, p.ID, CommunityInputInput{ID: "ci_1", Comment: "Great", ApprovalSignal: "support"})
	require.NoError(t, err)
	assert.Len(t, p.CommunityInputs, 1)
	assert.EqualValues(t, 1, f.auditCount(t, ActionCommunityInput))

	_, err = f.svc.AddCommunityInput(ctx, f.community, p.ID, CommunityInputInput{Comment: "hm", ApprovalSignal: "meh"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateRegion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.svc.UpdateRegion(ctx, f.community, f.community.ID, RegionInput{RegionID: "wakrah", RegionName: "Al Wakrah"})
	require.NoError(t, err)
	assert.Equal(t, "wakrah", a.RegionID)

	_, err = f.svc.UpdateRegion(ctx, f.community, f.official.ID, RegionInput{RegionID: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	a, err = f.svc.UpdateRegion(ctx, f.admin, f.official.ID, RegionInput{RegionName: "Greater Doha"})
	require.NoError(t, err)
	assert.Equal(t, "doha", a.RegionID)
	assert.Equal(t, "Greater Doha", a.RegionName)
}

func TestReadVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	draft := f.draft(t, "Private draft")
	pub := f.published(t, "Public")

	list, err := f.svc.ListProjects(ctx, f.community)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pub.ID, list[0].ID)

	_, err = f.svc.GetProject(ctx, f.contractorA, draft.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err = f.svc.ListProjects(ctx, f.other)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAuditFailureKeepsMutation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.draft(t, "Resilient")
	require.NoError(t, f.db.Migrator().DropTable(&domain.AuditRecord{}))

	p, err := f.svc.Publish(ctx, f.official, p.ID)
	require.NoError(t, err)

	stored, err := f.svc.GetProject(ctx, f.official, p.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.StatusPublished, stored.Status)
}

func TestExactlyOneAuditPerTransition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.published(t, "Counting")
	b, err := f.svc.SubmitBid(ctx, f.contractorA, p.ID, BidInput{Cost: 5, TimelineMonths: 5})
	require.NoError(t, err)
	_, err = f.svc.Award(ctx, f.official, p.ID, AwardInput{BidID: b.ID})
	require.NoError(t, err)
	_, err = f.svc.IssueLicense(ctx, f.official, p.ID, LicenseInput{ValidFrom: "2026-01-01", ValidTo: "2026-12-31"})
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.official, p.ID)
	require.NoError(t, err)

	for _, action := range []string{ActionCreate, ActionPublish, ActionSubmitBid, ActionAward, ActionIssueLicense, ActionComplete} {
		assert.EqualValues(t, 1, f.auditCount(t, action), action)
	}
}

func TestIssueLicense_DateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.IssueLicense(ctx, f.official, "any", LicenseInput{ValidFrom: "01/02/2026"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.IssueLicense(ctx, f.official, "any", LicenseInput{ValidFrom: "2026-03-01", ValidTo: "2026-02-01"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
