package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DebrisVolume struct {
	EstimateM3 float64 `gorm:"column:estimate_m3" json:"estimateM3"`
	MarginPct  float64 `gorm:"column:margin_pct" json:"marginPct"`
	MinM3      float64 `gorm:"column:min_m3" json:"minM3"`
	MaxM3      float64 `gorm:"column:max_m3" json:"maxM3"`
}

// Recoverable is a salvageable material estimate with its quantity range.
type Recoverable struct {
	Type         string  `json:"type"`
	Unit         string  `json:"unit"`
	Qty          float64 `json:"qty"`
	MarginPct    float64 `json:"marginPct"`
	MinQty       float64 `json:"minQty"`
	MaxQty       float64 `json:"maxQty"`
	QualityScore float64 `json:"qualityScore"`
}

// DamageReport is immutable. A newer report for the same project supersedes it;
// recency is created_at, ties broken by seq.
type DamageReport struct {
	Seq              uint64                           `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ID               string                           `gorm:"column:id;uniqueIndex;not null" json:"id"`
	ProjectID        string                           `gorm:"column:project_id;index;not null" json:"projectId"`
	Images           datatypes.JSONSlice[string]      `gorm:"column:images" json:"images"`
	Severity         string                           `gorm:"column:severity;type:varchar(10);not null" json:"severity"`
	Issues           datatypes.JSONSlice[string]      `gorm:"column:issues" json:"issues"`
	DebrisVolume     DebrisVolume                     `gorm:"embedded;embeddedPrefix:debris_" json:"debrisVolume"`
	Recoverables     datatypes.JSONSlice[Recoverable] `gorm:"column:recoverables" json:"recoverables"`
	ConfidenceScores datatypes.JSONMap                `gorm:"column:confidence_scores" json:"confidenceScores"`
	ProducerVersion  string                           `gorm:"column:producer_version" json:"producerVersion"`
	CreatedAt        time.Time                        `gorm:"column:created_at;index" json:"createdAt"`
}

func (DamageReport) TableName() string {
	return "damage_reports"
}

func (r *DamageReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
