package constants

import roles "lifelines-backend/internal/pkg/constants"

// PermissionRoles maps each capability to the roles allowed to perform it.
// Ownership refinements for officials live in access.Check.
var PermissionRoles = map[string][]string{
	CreateProject:     {roles.Official, roles.Admin},
	EditProject:       {roles.Official, roles.Admin},
	PublishProject:    {roles.Official, roles.Admin},
	CompleteProject:   {roles.Official, roles.Admin},
	DeleteProject:     {roles.Admin},
	SaveAssessment:    {roles.Official, roles.Admin},
	SubmitBid:         {roles.Contractor},
	AwardBid:          {roles.Official, roles.Admin},
	IssueLicense:      {roles.Official, roles.Admin},
	ManageResources:   {roles.Official, roles.Admin},
	AddCommunityInput: {roles.Community},
	ViewAudit:         {roles.Official, roles.Admin},
	ResetDataset:      {roles.Admin},
	UpdateAnyRegion:   {roles.Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	allowed, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
