package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is a registered identity. Only the region is mutable after registration.
type Actor struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(20);not null" json:"role"`
	RegionID     string    `gorm:"column:region_id" json:"regionId"`
	RegionName   string    `gorm:"column:region_name" json:"regionName"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Actor) TableName() string {
	return "actors"
}

// BeforeCreate sets id if not already set.
func (a *Actor) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
