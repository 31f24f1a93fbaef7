// Package matching pairs a plan's material needs with salvaged inventory.
package matching

import (
	"math"
	"sort"

	"lifelines-backend/internal/domain"
)

// EarthRadiusKm is the sphere radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// defaultCO2Factor applies to material types missing from the reference table.
const defaultCO2Factor = 0.2

// Reference holds per-unit figures for one material type. CO2Factor is in
// tonnes per unit, so kilograms are CO2Factor * qty * 1000.
type Reference struct {
	UnitCostNew      float64
	UnitCostRecycled float64
	CO2Factor        float64
}

// References is the reference table keyed by material type.
var References = map[string]Reference{
	"Bricks":       {UnitCostNew: 2.2, UnitCostRecycled: 1.1, CO2Factor: 0.00035},
	"Concrete":     {UnitCostNew: 520, UnitCostRecycled: 260, CO2Factor: 0.95},
	"Steel":        {UnitCostNew: 16000, UnitCostRecycled: 9200, CO2Factor: 1.8},
	"Timber":       {UnitCostNew: 650, UnitCostRecycled: 360, CO2Factor: 0.12},
	"Insulation":   {UnitCostNew: 80, UnitCostRecycled: 55, CO2Factor: 0.02},
	"Solar Panels": {UnitCostNew: 260, UnitCostRecycled: 220, CO2Factor: 0.04},
}

// ReferenceFor returns the table entry for materialType, falling back to zero
// costs and the default emissions factor.
func ReferenceFor(materialType string) Reference {
	if ref, ok := References[materialType]; ok {
		return ref
	}
	return Reference{CO2Factor: defaultCO2Factor}
}

// Candidate is one (need, resource) pairing.
type Candidate struct {
	Need           domain.Material `json:"need"`
	Resource       domain.Resource `json:"resource"`
	DistanceKm     float64         `json:"distanceKm"`
	QtyUsed        float64         `json:"qtyUsed"`
	SavingsUSD     float64         `json:"savingsUsd"`
	CO2ReductionKg float64         `json:"co2ReductionKg"`
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(min(1, h)))
}

// Available reports whether r can serve projectID: unreserved, or already reserved by it.
func Available(r domain.Resource, projectID string) bool {
	return r.ReservedForProjectID == nil || *r.ReservedForProjectID == projectID
}

// Match returns every candidate pairing for the plan's materials, nearest first.
// Ties on distance go to the material with the lower reference cost.
func Match(project domain.Project, plan *domain.Plan, resources []domain.Resource) []Candidate {
	if plan == nil {
		return []Candidate{}
	}
	origin := project.Location.Point()
	out := make([]Candidate, 0)
	for _, need := range plan.Materials {
		ref := ReferenceFor(need.Type)
		for _, r := range resources {
			if r.Type != need.Type || !Available(r, project.ID) {
				continue
			}
			used := min(r.Qty, need.Qty)
			out = append(out, Candidate{
				Need:           need,
				Resource:       r,
				DistanceKm:     Haversine(origin, r.Location),
				QtyUsed:        used,
				SavingsUSD:     max(0, used*(ref.UnitCostNew-ref.UnitCostRecycled)),
				CO2ReductionKg: max(0, used*ref.CO2Factor*1000),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return ReferenceFor(out[i].Need.Type).UnitCostNew < ReferenceFor(out[j].Need.Type).UnitCostNew
	})
	return out
}
