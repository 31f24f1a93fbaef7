// Package access decides what an actor may do. Guards in the lifecycle core
// call Check instead of comparing role strings.
package access

import (
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"
)

// Actor is the caller of a core operation. It is passed explicitly into every
// operation; there is no process-wide current session.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RegionID   string `json:"regionId"`
	RegionName string `json:"regionName"`
}

// FromDomain builds the caller context from a stored actor.
func FromDomain(a *domain.Actor) Actor {
	return Actor{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		RegionID:   a.RegionID,
		RegionName: a.RegionName,
	}
}

func (a Actor) IsAdmin() bool { return a.Role == roles.Admin }

// Decision is the typed result of a capability check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil when allowed, an authorization error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Authorization("%s", d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// ownerScoped capabilities additionally require officials to own the project.
var ownerScoped = map[string]bool{
	constants.EditProject:     true,
	constants.PublishProject:  true,
	constants.CompleteProject: true,
	constants.SaveAssessment:  true,
	constants.AwardBid:        true,
	constants.IssueLicense:    true,
}

// Check decides whether actor may exercise capability, optionally on project.
func Check(actor Actor, capability string, project *domain.Project) Decision {
	if actor.ID == "" {
		return deny("Not authenticated")
	}
	if !constants.AllowedRole(capability, actor.Role) {
		return deny("User is Forbidden from performing this action")
	}
	if project == nil {
		return allow()
	}
	if ownerScoped[capability] && actor.Role == roles.Official && project.OwnerID != actor.ID {
		return deny("Only the project owner or an admin can perform this action")
	}
	if capability == constants.AddCommunityInput &&
		(project.Visibility != roles.VisibilityPublic || !project.CommunityFeedbackEnabled) {
		return deny("Feedback not enabled")
	}
	return allow()
}

// CanRead applies the per-role visibility rules to a project.
func CanRead(actor Actor, project *domain.Project) bool {
	switch actor.Role {
	case roles.Admin:
		return true
	case roles.Official:
		return project.OwnerID == actor.ID || project.Location.RegionID == actor.RegionID
	case roles.Contractor:
		switch project.Status {
		case roles.StatusPublished, roles.StatusAwarded, roles.StatusLicensed, roles.StatusCompleted:
			return true
		}
		return false
	default:
		return project.Visibility == roles.VisibilityPublic
	}
}
