package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditRecord is append-only. Ordering is timestamp, ties broken by seq.
type AuditRecord struct {
	Seq        uint64         `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ID         string         `gorm:"column:id;uniqueIndex;not null" json:"id"`
	EntityType string         `gorm:"column:entity_type;not null;index" json:"entityType"`
	EntityID   string         `gorm:"column:entity_id;not null;index" json:"entityId"`
	Action     string         `gorm:"column:action;not null" json:"action"`
	ActorID    string         `gorm:"column:actor_id;index" json:"actorId"`
	Timestamp  time.Time      `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Details    datatypes.JSON `gorm:"column:details" json:"details"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Models lists every entity store table, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Actor{},
		&Project{},
		&DamageReport{},
		&Plan{},
		&Resource{},
		&Bid{},
		&License{},
		&AuditRecord{},
	}
}
