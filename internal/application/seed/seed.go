// Package seed loads the demo dataset, on first start and on admin reset.
package seed

import (
	"context"
	"encoding/json"
	"time"

	"lifelines-backend/internal/application/scoring"
	"lifelines-backend/internal/application/snapshot"
	"lifelines-backend/internal/domain"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	regionID   = "doha"
	regionName = "Doha"
	// ActionReset tags the single audit record of a seeded dataset.
	ActionReset = "reset"
	SystemActor = "system"
)

// Identity is a demo login.
type Identity struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     string
}

// DemoIdentities are the seeded actors and their passwords.
var DemoIdentities = []Identity{
	{"user_admin", "Admin", "admin@example.com", "0vk2-kBf-UF2y-oThrvec#", roles.Admin},
	{"user_official", "Urban Planner", "official@example.com", "official123", roles.Official},
	{"user_contractor", "ReBuild Co.", "contractor@example.com", "contractor123", roles.Contractor},
	{"user_community", "Community Rep", "community@example.com", "community123", roles.Community},
}

func strPtr(s string) *string { return &s }

func loc(lat, lng float64, address string) domain.Location {
	return domain.Location{Lat: lat, Lng: lng, Address: address, RegionID: regionID, RegionName: regionName}
}

// Dataset builds the demo dataset. hash turns a password into the stored hash.
func Dataset(now time.Time, actorID string, hash func(string) (string, error)) (*snapshot.Snapshot, error) {
	now = now.UTC()
	actors := make([]domain.Actor, 0, len(DemoIdentities))
	for _, id := range DemoIdentities {
		h, err := hash(id.Password)
		if err != nil {
			return nil, err
		}
		actors = append(actors, domain.Actor{
			ID: id.ID, Name: id.Name, Email: id.Email, PasswordHash: h, Role: id.Role,
			RegionID: regionID, RegionName: regionName, CreatedAt: now,
		})
	}

	project := func(id, title, desc string, l domain.Location, status, visibility string, feedback bool) domain.Project {
		return domain.Project{
			ID: id, Title: title, Description: desc, Location: l, Status: status,
			Visibility: visibility, CommunityFeedbackEnabled: feedback, OwnerID: "user_official",
			CommunityInputs: datatypes.JSONSlice[domain.CommunityInput]{}, CreatedAt: now, UpdatedAt: now,
		}
	}
	projects := []domain.Project{
		project("proj_alnoor", "Al Noor Community Center",
			"Multi-purpose center supporting temporary shelter and services. Structural damage observed after flooding.",
			loc(25.2859, 51.5352, "Al Noor District, Doha"), roles.StatusPublished, roles.VisibilityPublic, true),
		project("proj_seaside_clinic", "Seaside Clinic Wing",
			"Small clinic wing requiring repairs and retrofit. Focus on resilient materials and safer access.",
			loc(25.2742, 51.5480, "Corniche Area, Doha"), roles.StatusDraft, roles.VisibilityPrivate, false),
		project("proj_school_blockb", "Al Bayan School – Block B",
			"School classroom block with roof and masonry issues. Priority reconstruction before next term.",
			loc(25.2958, 51.5204, "Al Bayan, Doha"), roles.StatusPublished, roles.VisibilityPublic, true),
	}

	reports := []domain.DamageReport{{
		ID: "dr_alnoor_v1", ProjectID: "proj_alnoor",
		Images:   datatypes.JSONSlice[string]{"/samples/damage_medium.png"},
		Severity: "Medium",
		Issues:   datatypes.JSONSlice[string]{"Wall cracking", "Water intrusion", "Electrical safety risk"},
		DebrisVolume: domain.DebrisVolume{EstimateM3: 38, MarginPct: 18, MinM3: 31, MaxM3: 45},
		Recoverables: datatypes.JSONSlice[domain.Recoverable]{
			{Type: "Bricks", Qty: 5200, Unit: "units", MarginPct: 12, MinQty: 4576, MaxQty: 5824, QualityScore: 0.72},
			{Type: "Steel", Qty: 2.8, Unit: "tons", MarginPct: 15, MinQty: 2.38, MaxQty: 3.22, QualityScore: 0.66},
		},
		ConfidenceScores: datatypes.JSONMap{"severity": 0.79, "issues": 0.74, "debris": 0.69, "recoverables": 0.71},
		ProducerVersion:  "tfjs-stub-1.0",
		CreatedAt:        now,
	}}

	plans := []domain.Plan{{
		ID: "plan_alnoor_v1", ProjectID: "proj_alnoor", Version: 1,
		BuildingSpec: domain.BuildingSpec{BuildingType: "Community Center", Floors: 2, AreaSqm: 980},
		Materials: datatypes.JSONSlice[domain.Material]{
			{Type: "Concrete", Qty: 85, Unit: "m³", Notes: "Foundation and slab repairs"},
			{Type: "Steel", Qty: 4.6, Unit: "tons", Notes: "Reinforcement"},
			{Type: "Bricks", Qty: 8000, Unit: "units", Notes: "Masonry replacement"},
		},
		CostBreakdown: datatypes.JSONSlice[domain.CostItem]{
			{Item: "Materials", Cost: 92000},
			{Item: "Labor", Cost: 64000},
			{Item: "Transport", Cost: 12500},
			{Item: "Permits & inspections", Cost: 6500},
		},
		TimelineMonths:        6,
		SustainabilityOptions: domain.SustainabilityOptions{SolarPanels: true, Insulation: true, SeismicReinforcement: true},
		SustainabilityMetrics: domain.SustainabilityMetrics{CO2SavedKg: 3200, RecycledPercent: 28, EnergyKwhSaved: 18000},
		CreatedAt:             now,
	}}

	resource := func(id, kind, condition string, qty float64, unit string, lat, lng float64, source *string, status string) domain.Resource {
		return domain.Resource{
			ID: id, Type: kind, Condition: condition, Qty: qty, Unit: unit,
			Location: domain.GeoPoint{Lat: lat, Lng: lng}, SourceProjectID: source,
			Status: status, CreatedAt: now, UpdatedAt: now,
		}
	}
	resources := []domain.Resource{
		resource("res_bricks_01", "Bricks", "Good", 8600, "units", 25.2866, 51.5321, strPtr("proj_alnoor"), roles.ResourceIdentified),
		resource("res_steel_01", "Steel", "Fair", 3.2, "tons", 25.2801, 51.5446, strPtr("proj_alnoor"), roles.ResourceSampled),
		resource("res_timber_01", "Timber", "Good", 24, "m³", 25.3002, 51.5172, strPtr("proj_school_blockb"), roles.ResourceCertified),
		resource("res_insulation_01", "Insulation", "New", 140, "rolls", 25.2920, 51.5275, nil, roles.ResourceCertified),
		resource("res_solar_01", "Solar Panels", "New", 40, "panels", 25.2721, 51.5520, nil, roles.ResourceCertified),
	}

	bids := scoring.Rescore([]domain.Bid{{
		ID: "bid_01", ProjectID: "proj_alnoor", ContractorID: "user_contractor",
		Cost: 168500, TimelineMonths: 6, ExperienceCount: 8, RecycledPercent: 30,
		Status: roles.BidSubmitted, CreatedAt: now, UpdatedAt: now,
	}})

	if actorID == "" {
		actorID = SystemActor
	}
	details, _ := json.Marshal(map[string]interface{}{
		"message": "Seed dataset created",
		"counts": map[string]int{
			"actors": len(actors), "projects": len(projects), "damageReports": len(reports),
			"plans": len(plans), "resources": len(resources), "bids": len(bids), "licenses": 0,
		},
	})
	return &snapshot.Snapshot{
		Version:       snapshot.Version,
		CreatedAt:     now,
		Actors:        actors,
		Projects:      projects,
		DamageReports: reports,
		Plans:         plans,
		Resources:     resources,
		Bids:          bids,
		Licenses:      []domain.License{},
		Audit: []domain.AuditRecord{{
			ID: "evt_seed", EntityType: "System", EntityID: "seed", Action: ActionReset,
			ActorID: actorID, Timestamp: now, Details: datatypes.JSON(details),
		}},
	}, nil
}

// Load replaces the store contents with the demo dataset.
func Load(ctx context.Context, db *gorm.DB, actorID string, hash func(string) (string, error)) error {
	snap, err := Dataset(time.Now(), actorID, hash)
	if err != nil {
		return err
	}
	return snapshot.Restore(ctx, db, snap)
}

// IsEmpty reports whether the store has no actors yet.
func IsEmpty(ctx context.Context, db *gorm.DB) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Actor{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

// SessionFlusher drops every session but one.
type SessionFlusher interface {
	FlushExcept(ctx context.Context, keep string) error
}

// Reset reloads the demo dataset on behalf of actorID and then revokes every
// session except keepToken.
func Reset(ctx context.Context, db *gorm.DB, sessions SessionFlusher, actorID, keepToken string, hash func(string) (string, error)) error {
	if err := Load(ctx, db, actorID, hash); err != nil {
		return err
	}
	if sessions == nil {
		return nil
	}
	return sessions.FlushExcept(ctx, keepToken)
}
