package lifecycle

import "lifelines-backend/internal/domain"

// Request bodies shared by the HTTP handlers and the sync engine's local apply.

type CreateProjectInput struct {
	Title                    string           `json:"title"`
	Description              string           `json:"description"`
	Location                 *domain.Location `json:"location,omitempty"`
	Visibility               string           `json:"visibility,omitempty"`
	CommunityFeedbackEnabled bool             `json:"communityFeedbackEnabled"`
}

// UpdateProjectInput is a patch; nil fields are left alone. Status is accepted only
// when it equals the current status.
type UpdateProjectInput struct {
	Title                    *string          `json:"title,omitempty"`
	Description              *string          `json:"description,omitempty"`
	Location                 *domain.Location `json:"location,omitempty"`
	Visibility               *string          `json:"visibility,omitempty"`
	CommunityFeedbackEnabled *bool            `json:"communityFeedbackEnabled,omitempty"`
	Status                   *string          `json:"status,omitempty"`
}

type BidInput struct {
	Cost            float64 `json:"cost"`
	TimelineMonths  float64 `json:"timelineMonths"`
	ExperienceCount int     `json:"experienceCount"`
	RecycledPercent float64 `json:"recycledPercent"`
}

type AwardInput struct {
	BidID string `json:"bidId"`
}

// LicenseInput dates are YYYY-MM-DD; both default to today.
type LicenseInput struct {
	ValidFrom  string   `json:"validFrom,omitempty"`
	ValidTo    string   `json:"validTo,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

type DamageReportInput struct {
	Images           []string             `json:"images"`
	Severity         string               `json:"severity"`
	Issues           []string             `json:"issues"`
	DebrisVolume     domain.DebrisVolume  `json:"debrisVolume"`
	Recoverables     []domain.Recoverable `json:"recoverables"`
	ConfidenceScores map[string]float64   `json:"confidenceScores"`
	ProducerVersion  string               `json:"producerVersion"`
}

type PlanInput struct {
	BuildingSpec          domain.BuildingSpec          `json:"buildingSpec"`
	Materials             []domain.Material            `json:"materials"`
	CostBreakdown         []domain.CostItem            `json:"costBreakdown"`
	TimelineMonths        int                          `json:"timelineMonths"`
	SustainabilityOptions domain.SustainabilityOptions `json:"sustainabilityOptions"`
	SustainabilityMetrics domain.SustainabilityMetrics `json:"sustainabilityMetrics"`
}

// CommunityInputInput may carry a client id; resubmitting the same id is a no-op.
type CommunityInputInput struct {
	ID             string `json:"id,omitempty"`
	Comment        string `json:"comment"`
	ApprovalSignal string `json:"approvalSignal,omitempty"`
}

type ReserveInput struct {
	ProjectID string `json:"projectId"`
}

type RegionInput struct {
	RegionID   string `json:"regionId"`
	RegionName string `json:"regionName"`
}
