package matching

import (
	"testing"

	"lifelines-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func ptr(s string) *string { return &s }

func TestHaversine_IdentityAndSymmetry(t *testing.T) {
	doha := domain.GeoPoint{Lat: 25.2859, Lng: 51.5352}
	clinic := domain.GeoPoint{Lat: 25.2742, Lng: 51.5480}

	assert.Equal(t, 0.0, Haversine(doha, doha))
	assert.InDelta(t, Haversine(doha, clinic), Haversine(clinic, doha), 1e-12)
	assert.InDelta(t, 1.85, Haversine(doha, clinic), 0.05)
}

func TestHaversine_QuarterMeridian(t *testing.T) {
	d := Haversine(domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 90, Lng: 0})
	assert.InDelta(t, EarthRadiusKm*3.141592653589793/2, d, 1e-6)
}

func TestMatch_FiltersTypeAndReservation(t *testing.T) {
	project := domain.Project{ID: "p1", Location: domain.Location{Lat: 25.2859, Lng: 51.5352}}
	plan := &domain.Plan{Materials: datatypes.JSONSlice[domain.Material]{
		{Type: "Bricks", Qty: 8000, Unit: "units"},
		{Type: "Steel", Qty: 4.6, Unit: "tons"},
	}}
	resources := []domain.Resource{
		{ID: "bricks", Type: "Bricks", Qty: 8600, Location: domain.GeoPoint{Lat: 25.2866, Lng: 51.5321}},
		{ID: "steel", Type: "Steel", Qty: 3.2, Location: domain.GeoPoint{Lat: 25.2801, Lng: 51.5446}},
		{ID: "steel-taken", Type: "Steel", Qty: 10, ReservedForProjectID: ptr("other")},
		{ID: "steel-mine", Type: "Steel", Qty: 1, ReservedForProjectID: ptr("p1"), Location: domain.GeoPoint{Lat: 26, Lng: 52}},
		{ID: "timber", Type: "Timber", Qty: 24},
	}

	got := Match(project, plan, resources)
	require.Len(t, got, 3)
	assert.Equal(t, "bricks", got[0].Resource.ID)
	assert.Equal(t, "steel", got[1].Resource.ID)
	assert.Equal(t, "steel-mine", got[2].Resource.ID)

	bricks := got[0]
	assert.Equal(t, 8000.0, bricks.QtyUsed)
	assert.InDelta(t, 8000*1.1, bricks.SavingsUSD, 1e-6)
	assert.InDelta(t, 8000*0.00035*1000, bricks.CO2ReductionKg, 1e-6)

	steel := got[1]
	assert.Equal(t, 3.2, steel.QtyUsed)
	assert.InDelta(t, 3.2*6800, steel.SavingsUSD, 1e-6)
	assert.InDelta(t, 3.2*1.8*1000, steel.CO2ReductionKg, 1e-6)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}
}

func TestMatch_TieBrokenByReferenceCost(t *testing.T) {
	here := domain.GeoPoint{Lat: 10, Lng: 10}
	project := domain.Project{ID: "p", Location: domain.Location{Lat: 10, Lng: 10}}
	plan := &domain.Plan{Materials: datatypes.JSONSlice[domain.Material]{
		{Type: "Steel", Qty: 1},
		{Type: "Bricks", Qty: 1},
	}}
	resources := []domain.Resource{
		{ID: "s", Type: "Steel", Qty: 1, Location: here},
		{ID: "b", Type: "Bricks", Qty: 1, Location: here},
	}
	got := Match(project, plan, resources)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Resource.ID)
	assert.Equal(t, "s", got[1].Resource.ID)
}

func TestMatch_UnknownTypeUsesDefaults(t *testing.T) {
	project := domain.Project{ID: "p"}
	plan := &domain.Plan{Materials: datatypes.JSONSlice[domain.Material]{{Type: "Glass", Qty: 2}}}
	got := Match(project, plan, []domain.Resource{{ID: "g", Type: "Glass", Qty: 5}})
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].SavingsUSD)
	assert.InDelta(t, 2*0.2*1000, got[0].CO2ReductionKg, 1e-9)
}

func TestMatch_NilPlan(t *testing.T) {
	assert.Empty(t, Match(domain.Project{}, nil, []domain.Resource{{Type: "Bricks"}}))
}
