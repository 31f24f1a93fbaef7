package constants

// Capabilities checked by middleware.AuthorizePermission and access.Check.
const (
	CreateProject     = "create_project"
	EditProject       = "edit_project"
	PublishProject    = "publish_project"
	CompleteProject   = "complete_project"
	DeleteProject     = "delete_project"
	SaveAssessment    = "save_assessment"
	SubmitBid         = "submit_bid"
	AwardBid          = "award_bid"
	IssueLicense      = "issue_license"
	ManageResources   = "manage_resources"
	AddCommunityInput = "add_community_input"
	ViewAudit         = "view_audit"
	ResetDataset      = "reset_dataset"
	UpdateAnyRegion   = "update_any_region"
)
