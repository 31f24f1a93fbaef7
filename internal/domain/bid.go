package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid score is relative to the project's cohort and is rewritten on every new submission.
type Bid struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	ProjectID       string    `gorm:"column:project_id;not null;index" json:"projectId"`
	ContractorID    string    `gorm:"column:contractor_id;not null;index" json:"contractorId"`
	Cost            float64   `gorm:"column:cost;not null" json:"cost"`
	TimelineMonths  float64   `gorm:"column:timeline_months;not null" json:"timelineMonths"`
	ExperienceCount int       `gorm:"column:experience_count" json:"experienceCount"`
	RecycledPercent float64   `gorm:"column:recycled_percent" json:"recycledPercent"`
	Score           float64   `gorm:"column:score" json:"score"`
	Status          string    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Bid) TableName() string {
	return "bids"
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
