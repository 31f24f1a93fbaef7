package sync

import (
	"time"

	"gorm.io/datatypes"
)

// Mutation states.
const (
	StateQueued   = "Queued"
	StateInFlight = "InFlight"
)

// KindDependencyRejected marks a dead-lettered mutation that was never sent
// because the mutation creating an entity it refers to was rejected.
const KindDependencyRejected = "dependency_rejected"

// PendingMutation is one queued write waiting for the server. Seq gives strict FIFO.
type PendingMutation struct {
	Seq        uint64         `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ID         string         `gorm:"column:id;uniqueIndex;not null" json:"id"`
	Method     string         `gorm:"column:method;not null" json:"method"`
	Path       string         `gorm:"column:path;not null" json:"path"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	EnqueuedAt time.Time      `gorm:"column:enqueued_at" json:"enqueuedAt"`
	State      string         `gorm:"column:state;not null" json:"state"`
	Attempts   int            `gorm:"column:attempts" json:"attempts"`
	LastError  string         `gorm:"column:last_error" json:"lastError,omitempty"`
	// LocalRef is the local_ id this mutation created, if any.
	LocalRef string `gorm:"column:local_ref" json:"localRef,omitempty"`
}

func (PendingMutation) TableName() string { return "pending_mutations" }

// RejectedMutation is a queued write the server refused for good.
type RejectedMutation struct {
	Seq        uint64         `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ID         string         `gorm:"column:id;index" json:"id"`
	Method     string         `gorm:"column:method" json:"method"`
	Path       string         `gorm:"column:path" json:"path"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Kind       string         `gorm:"column:kind" json:"kind"`
	Error      string         `gorm:"column:error" json:"error"`
	Attempts   int            `gorm:"column:attempts" json:"attempts"`
	RejectedAt time.Time      `gorm:"column:rejected_at" json:"rejectedAt"`
}

func (RejectedMutation) TableName() string { return "rejected_mutations" }

// IDMapping records the server id a local_ id became.
type IDMapping struct {
	LocalID  string `gorm:"column:local_id;primaryKey"`
	ServerID string `gorm:"column:server_id;not null"`
}

func (IDMapping) TableName() string { return "id_mappings" }

// LocalCredential lets an actor sign in while the server is unreachable.
type LocalCredential struct {
	Email        string    `gorm:"column:email;primaryKey"`
	ActorID      string    `gorm:"column:actor_id;not null"`
	Name         string    `gorm:"column:name"`
	Role         string    `gorm:"column:role"`
	RegionID     string    `gorm:"column:region_id"`
	RegionName   string    `gorm:"column:region_name"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (LocalCredential) TableName() string { return "local_credentials" }

// SessionRecord persists the current session between CLI runs. There is at most one row.
type SessionRecord struct {
	Slot       string     `gorm:"column:slot;primaryKey"`
	Token      string     `gorm:"column:token"`
	ActorID    string     `gorm:"column:actor_id"`
	Name       string     `gorm:"column:name"`
	Email      string     `gorm:"column:email"`
	Role       string     `gorm:"column:role"`
	RegionID   string     `gorm:"column:region_id"`
	RegionName string     `gorm:"column:region_name"`
	Local      bool       `gorm:"column:local"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at"`
}

func (SessionRecord) TableName() string { return "client_session" }

// Models are the client-only tables.
func Models() []interface{} {
	return []interface{}{&PendingMutation{}, &RejectedMutation{}, &IDMapping{}, &LocalCredential{}, &SessionRecord{}}
}
