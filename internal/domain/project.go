package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `gorm:"column:lat" json:"lat"`
	Lng float64 `gorm:"column:lng" json:"lng"`
}

// Location is where a project sits, including its administrative region.
type Location struct {
	Lat        float64 `gorm:"column:lat" json:"lat"`
	Lng        float64 `gorm:"column:lng" json:"lng"`
	Address    string  `gorm:"column:address" json:"address"`
	RegionID   string  `gorm:"column:region_id;index" json:"regionId"`
	RegionName string  `gorm:"column:region_name" json:"regionName"`
}

func (l Location) Point() GeoPoint {
	return GeoPoint{Lat: l.Lat, Lng: l.Lng}
}

// CommunityInput is one entry of a project's embedded feedback log.
type CommunityInput struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	Comment        string    `json:"comment"`
	ApprovalSignal string    `json:"approvalSignal"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Project struct {
	ID                       string                              `gorm:"column:id;primaryKey" json:"id"`
	Title                    string                              `gorm:"column:title;not null" json:"title"`
	Description              string                              `gorm:"column:description" json:"description"`
	Location                 Location                            `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Status                   string                              `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	Visibility               string                              `gorm:"column:visibility;type:varchar(10);not null" json:"visibility"`
	CommunityFeedbackEnabled bool                                `gorm:"column:community_feedback_enabled" json:"communityFeedbackEnabled"`
	OwnerID                  string                              `gorm:"column:owner_id;index" json:"ownerId"`
	CommunityInputs          datatypes.JSONSlice[CommunityInput] `gorm:"column:community_inputs" json:"communityInputs"`
	CreatedAt                time.Time                           `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt                time.Time                           `gorm:"column:updated_at" json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}

// BeforeCreate sets id if not already set.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
