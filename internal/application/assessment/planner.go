package assessment

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/domain"
)

var buildingTypes = []string{"Residential", "Clinic", "School", "Community Center", "Road Segment", "Facility"}

var materialSeverityFactor = map[string]float64{"Low": 0.65, "Medium": 1.0, "High": 1.35, "Critical": 1.6}

var timelineSeverityFactor = map[string]float64{"Low": 0.8, "Medium": 1.0, "High": 1.25, "Critical": 1.45}

const permitsCost = 6500

func factor(table map[string]float64, severity string) float64 {
	if f, ok := table[severity]; ok {
		return f
	}
	return 1
}

// Planner drafts a default plan from the project and its damage severity.
type Planner struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPlanner(seed int64) *Planner {
	return &Planner{rnd: rand.New(rand.NewSource(seed))}
}

// GeneratePlan returns a plan draft. The store assigns its version when saved.
func (p *Planner) GeneratePlan(project domain.Project, severity string, options domain.SustainabilityOptions) lifecycle.PlanInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	spec := p.buildingSpec(project.Title)
	materials := Materials(spec, severity)
	return lifecycle.PlanInput{
		BuildingSpec:          spec,
		Materials:             materials,
		CostBreakdown:         Costs(materials, options),
		TimelineMonths:        Timeline(spec, severity, options),
		SustainabilityOptions: options,
		SustainabilityMetrics: p.sustainability(options),
	}
}

func (p *Planner) buildingSpec(title string) domain.BuildingSpec {
	t := strings.ToLower(title)
	var kind string
	switch {
	case strings.Contains(t, "school"):
		kind = "School"
	case strings.Contains(t, "clinic"):
		kind = "Clinic"
	case strings.Contains(t, "road"):
		kind = "Road Segment"
	case strings.Contains(t, "center"):
		kind = "Community Center"
	default:
		kind = buildingTypes[p.rnd.Intn(len(buildingTypes))]
	}
	if kind == "Road Segment" {
		return domain.BuildingSpec{BuildingType: kind, Floors: 1, AreaSqm: 1200}
	}
	floors := 1 + p.rnd.Intn(3)
	if strings.Contains(t, "wing") {
		floors = 1
	}
	return domain.BuildingSpec{
		BuildingType: kind,
		Floors:       floors,
		AreaSqm:      math.Round(450 + p.rnd.Float64()*900),
	}
}

// Materials sizes concrete, steel and bricks from floor area and severity.
func Materials(spec domain.BuildingSpec, severity string) []domain.Material {
	f := factor(materialSeverityFactor, severity)
	area := spec.AreaSqm
	return []domain.Material{
		{Type: "Concrete", Qty: math.Round(area * 0.07 * f), Unit: "m³", Notes: "Structural reinforcement & slab repairs"},
		{Type: "Steel", Qty: math.Round(area*0.0038*f*10) / 10, Unit: "tons", Notes: "Rebar & framing"},
		{Type: "Bricks", Qty: math.Round(area * 7.5 * f), Unit: "units", Notes: "Masonry replacement"},
	}
}

func qtyOf(materials []domain.Material, kind string) float64 {
	for _, m := range materials {
		if m.Type == kind {
			return m.Qty
		}
	}
	return 0
}

// Costs prices the materials and spreads sustainability uplift over the first three lines.
func Costs(materials []domain.Material, o domain.SustainabilityOptions) []domain.CostItem {
	materialsCost := math.Round(qtyOf(materials, "Concrete")*420 + qtyOf(materials, "Steel")*14500 + qtyOf(materials, "Bricks")*1.9)
	uplift := 0.0
	if o.SolarPanels {
		uplift += 12000
	}
	if o.Insulation {
		uplift += 6000
	}
	if o.SeismicReinforcement {
		uplift += 9000
	}
	return []domain.CostItem{
		{Item: "Materials", Cost: materialsCost + math.Round(uplift*0.45)},
		{Item: "Labor", Cost: math.Round(materialsCost*0.72) + math.Round(uplift*0.40)},
		{Item: "Transport", Cost: math.Round(materialsCost*0.12) + math.Round(uplift*0.15)},
		{Item: "Permits & inspections", Cost: permitsCost},
	}
}

// Timeline is in whole months, between 3 and 14.
func Timeline(spec domain.BuildingSpec, severity string, o domain.SustainabilityOptions) int {
	months := 3 + spec.AreaSqm/500*factor(timelineSeverityFactor, severity)
	if o.SolarPanels {
		months += 0.3
	}
	if o.Insulation {
		months += 0.2
	}
	if o.SeismicReinforcement {
		months += 0.4
	}
	return int(clamp(math.Round(months), 3, 14))
}

func (p *Planner) sustainability(o domain.SustainabilityOptions) domain.SustainabilityMetrics {
	recycled := 22.0
	co2 := 2400 + p.rnd.Float64()*1200
	energy := 11000 + p.rnd.Float64()*12000
	if o.SolarPanels {
		co2 += 1100
		energy += 12000
	}
	if o.Insulation {
		co2 += 700
		recycled += 6
		energy += 6000
	}
	if o.SeismicReinforcement {
		co2 += 450
		recycled += 4
	}
	return domain.SustainabilityMetrics{
		RecycledPercent: math.Round(clamp(recycled, 8, 65)),
		CO2SavedKg:      math.Round(co2),
		EnergyKwhSaved:  math.Round(energy),
	}
}
