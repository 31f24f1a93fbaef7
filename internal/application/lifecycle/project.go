package lifecycle

import (
	"context"
	"strings"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"
	"lifelines-backend/internal/pkg/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func validLocation(l domain.Location) bool {
	return validation.IsValidLatLng(l.Lat, l.Lng)
}

func validVisibility(v string) bool {
	return v == roles.VisibilityPublic || v == roles.VisibilityPrivate
}

// CreateProject opens a Draft owned by the caller.
func (s *Service) CreateProject(ctx context.Context, actor access.Actor, in CreateProjectInput) (*domain.Project, error) {
	if err := access.Check(actor, constants.CreateProject, nil).Err(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	loc := domain.Location{RegionID: actor.RegionID, RegionName: actor.RegionName}
	if in.Location != nil {
		loc = *in.Location
		if loc.RegionID == "" {
			loc.RegionID, loc.RegionName = actor.RegionID, actor.RegionName
		}
	}
	if !validLocation(loc) {
		return nil, apperr.Validation("Invalid location")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = roles.VisibilityPrivate
	}
	if !validVisibility(visibility) {
		return nil, apperr.Validation("Invalid visibility")
	}

	now := s.now()
	p := &domain.Project{
		ID:                       s.id("proj"),
		Title:                    title,
		Description:              in.Description,
		Location:                 loc,
		Status:                   roles.StatusDraft,
		Visibility:               visibility,
		CommunityFeedbackEnabled: in.CommunityFeedbackEnabled,
		OwnerID:                  actor.ID,
		CommunityInputs:          datatypes.JSONSlice[domain.CommunityInput]{},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	err := s.transition(ctx, ActionCreate, func(tx *gorm.DB) (*audit.Entry, error) {
		if err := tx.Create(p).Error; err != nil {
			return nil, store.Write(err, "Project")
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"title": p.Title}}, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject patches descriptive fields. Status only moves through transitions.
func (s *Service) UpdateProject(ctx context.Context, actor access.Actor, projectID string, in UpdateProjectInput) (*domain.Project, error) {
	var p *domain.Project
	err := s.transition(ctx, ActionUpdate, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if p, err = loadProject(tx, actor, constants.EditProject, projectID); err != nil {
			return nil, err
		}
		if in.Status != nil && *in.Status != p.Status {
			return nil, apperr.Validation("Status can only change through lifecycle transitions")
		}
		var fields []string
		if in.Title != nil {
			t := strings.TrimSpace(*in.Title)
			if t == "" {
				return nil, apperr.Validation("Title is required")
			}
			p.Title = t
			fields = append(fields, "title")
		}
		if in.Description != nil {
			p.Description = *in.Description
			fields = append(fields, "description")
		}
		if in.Location != nil {
			if !validLocation(*in.Location) {
				return nil, apperr.Validation("Invalid location")
			}
			p.Location = *in.Location
			fields = append(fields, "location")
		}
		if in.Visibility != nil {
			if !validVisibility(*in.Visibility) {
				return nil, apperr.Validation("Invalid visibility")
			}
			p.Visibility = *in.Visibility
			fields = append(fields, "visibility")
		}
		if in.CommunityFeedbackEnabled != nil {
			p.CommunityFeedbackEnabled = *in.CommunityFeedbackEnabled
			fields = append(fields, "communityFeedbackEnabled")
		}
		if len(fields) == 0 {
			return nil, nil
		}
		p.UpdatedAt = s.now()
		if err := tx.Save(p).Error; err != nil {
			return nil, store.Write(err, "Project")
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"fields": fields}}, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Publish moves Draft to Published and opens the project to the public.
func (s *Service) Publish(ctx context.Context, actor access.Actor, projectID string) (*domain.Project, error) {
	var p *domain.Project
	err := s.transition(ctx, ActionPublish, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if p, err = loadProject(tx, actor, constants.PublishProject, projectID); err != nil {
			return nil, err
		}
		if err := s.advance(tx, p, roles.StatusDraft, roles.StatusPublished,
			map[string]interface{}{"visibility": roles.VisibilityPublic}); err != nil {
			return nil, err
		}
		p.Visibility = roles.VisibilityPublic
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"status": p.Status, "visibility": p.Visibility}}, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Complete closes a Licensed project. Completed is terminal.
func (s *Service) Complete(ctx context.Context, actor access.Actor, projectID string) (*domain.Project, error) {
	var p *domain.Project
	err := s.transition(ctx, ActionComplete, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if p, err = loadProject(tx, actor, constants.CompleteProject, projectID); err != nil {
			return nil, err
		}
		if err := s.advance(tx, p, roles.StatusLicensed, roles.StatusCompleted, nil); err != nil {
			return nil, err
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"status": p.Status}}, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes the project in any state, with its reports, plans, bids and
// license. Resources reserved for it become available again.
func (s *Service) DeleteProject(ctx context.Context, actor access.Actor, projectID string) error {
	return s.transition(ctx, ActionDelete, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.DeleteProject, projectID)
		if err != nil {
			return nil, err
		}
		cascade := []interface{}{&domain.DamageReport{}, &domain.Plan{}, &domain.Bid{}, &domain.License{}}
		for _, model := range cascade {
			if err := tx.Where("project_id = ?", p.ID).Delete(model).Error; err != nil {
				return nil, apperr.Internal(err, "failed to delete project records")
			}
		}
		released := tx.Model(&domain.Resource{}).Where("reserved_for_project_id = ?", p.ID).
			Updates(map[string]interface{}{
				"reserved_for_project_id": nil,
				"status":                  roles.ResourceCertified,
				"updated_at":              s.now(),
			})
		if released.Error != nil {
			return nil, apperr.Internal(released.Error, "failed to release resources")
		}
		if err := tx.Delete(p).Error; err != nil {
			return nil, apperr.Internal(err, "failed to delete project")
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"title": p.Title, "releasedResources": released.RowsAffected}}, nil
	})
}

// AddCommunityInput appends to the project's feedback log.
func (s *Service) AddCommunityInput(ctx context.Context, actor access.Actor, projectID string, in CommunityInputInput) (*domain.Project, error) {
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, apperr.Validation("Comment is required")
	}
	signal := in.ApprovalSignal
	if signal == "" {
		signal = "neutral"
	}
	if !roles.IsValidApprovalSignal(signal) {
		return nil, apperr.Validation("Invalid approval signal")
	}
	var p *domain.Project
	err := s.transition(ctx, ActionCommunityInput, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if p, err = loadProject(tx, actor, constants.AddCommunityInput, projectID); err != nil {
			return nil, err
		}
		if in.ID != "" {
			for _, c := range p.CommunityInputs {
				if c.ID == in.ID {
					return nil, nil
				}
			}
		}
		entry := domain.CommunityInput{
			ID:             in.ID,
			AuthorID:       actor.ID,
			Comment:        comment,
			ApprovalSignal: signal,
			CreatedAt:      s.now(),
		}
		if entry.ID == "" {
			entry.ID = s.id("ci")
		}
		p.CommunityInputs = append(p.CommunityInputs, entry)
		p.UpdatedAt = entry.CreatedAt
		if err := tx.Model(p).Select("community_inputs", "updated_at").Updates(p).Error; err != nil {
			return nil, store.Write(err, "Project")
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"inputId": entry.ID, "approvalSignal": signal}}, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
