package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is a salvaged inventory item. ReservedForProjectID is the exclusive
// reservation claim; nil means available.
type Resource struct {
	ID                   string    `gorm:"column:id;primaryKey" json:"id"`
	Type                 string    `gorm:"column:type;not null;index" json:"type"`
	Condition            string    `gorm:"column:condition" json:"condition"`
	Qty                  float64   `gorm:"column:qty;not null" json:"qty"`
	Unit                 string    `gorm:"column:unit" json:"unit"`
	Location             GeoPoint  `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	SourceProjectID      *string   `gorm:"column:source_project_id;index" json:"sourceProjectId"`
	ReservedForProjectID *string   `gorm:"column:reserved_for_project_id;index" json:"reservedForProjectId"`
	Status               string    `gorm:"column:status;type:varchar(20)" json:"status"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
