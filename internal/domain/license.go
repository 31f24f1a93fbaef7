package domain

import (
	"time"

	"gorm.io/datatypes"
)

// SignaturePlaceholder stands in for a real digital signature.
const SignaturePlaceholder = "DIGITAL-SIGNATURE-PLACEHOLDER"

// License is immutable and issued at most once per project.
type License struct {
	ID           string                      `gorm:"column:id;primaryKey" json:"id"`
	ProjectID    string                      `gorm:"column:project_id;not null;uniqueIndex" json:"projectId"`
	ContractorID string                      `gorm:"column:contractor_id;not null" json:"contractorId"`
	ValidFrom    string                      `gorm:"column:valid_from;type:varchar(10)" json:"validFrom"`
	ValidTo      string                      `gorm:"column:valid_to;type:varchar(10)" json:"validTo"`
	Conditions   datatypes.JSONSlice[string] `gorm:"column:conditions" json:"conditions"`
	Signature    string                      `gorm:"column:signature" json:"signature"`
	IssuedBy     string                      `gorm:"column:issued_by" json:"issuedBy"`
	IssuedAt     time.Time                   `gorm:"column:issued_at" json:"issuedAt"`
}

func (License) TableName() string {
	return "licenses"
}
