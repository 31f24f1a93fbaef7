package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BuildingSpec struct {
	BuildingType string  `gorm:"column:building_type" json:"buildingType"`
	Floors       int     `gorm:"column:floors" json:"floors"`
	AreaSqm      float64 `gorm:"column:area_sqm" json:"areaSqm"`
}

// Material is one line of a plan's material needs.
type Material struct {
	Type  string  `json:"type"`
	Qty   float64 `json:"qty"`
	Unit  string  `json:"unit"`
	Notes string  `json:"notes,omitempty"`
}

type CostItem struct {
	Item string  `json:"item"`
	Cost float64 `json:"cost"`
}

type SustainabilityOptions struct {
	SolarPanels          bool `gorm:"column:solar_panels" json:"solarPanels"`
	Insulation           bool `gorm:"column:insulation" json:"insulation"`
	SeismicReinforcement bool `gorm:"column:seismic_reinforcement" json:"seismicReinforcement"`
}

type SustainabilityMetrics struct {
	RecycledPercent float64 `gorm:"column:recycled_percent" json:"recycledPercent"`
	CO2SavedKg      float64 `gorm:"column:co2_saved_kg" json:"co2SavedKg"`
	EnergyKwhSaved  float64 `gorm:"column:energy_kwh_saved" json:"energyKwhSaved"`
}

// Plan versions are per project, strictly increasing and assigned by the store.
type Plan struct {
	ID                    string                        `gorm:"column:id;primaryKey" json:"id"`
	ProjectID             string                        `gorm:"column:project_id;not null;uniqueIndex:idx_plans_project_version" json:"projectId"`
	Version               int                           `gorm:"column:version;not null;uniqueIndex:idx_plans_project_version" json:"version"`
	BuildingSpec          BuildingSpec                  `gorm:"embedded;embeddedPrefix:spec_" json:"buildingSpec"`
	Materials             datatypes.JSONSlice[Material] `gorm:"column:materials" json:"materials"`
	CostBreakdown         datatypes.JSONSlice[CostItem] `gorm:"column:cost_breakdown" json:"costBreakdown"`
	TimelineMonths        int                           `gorm:"column:timeline_months" json:"timelineMonths"`
	SustainabilityOptions SustainabilityOptions         `gorm:"embedded;embeddedPrefix:option_" json:"sustainabilityOptions"`
	SustainabilityMetrics SustainabilityMetrics         `gorm:"embedded;embeddedPrefix:metric_" json:"sustainabilityMetrics"`
	CreatedAt             time.Time                     `gorm:"column:created_at" json:"createdAt"`
}

func (Plan) TableName() string {
	return "plans"
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
