package lifecycle

import (
	"context"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// Reserve claims a resource for a project. The claim is a single conditional update,
// so two projects can never hold the same resource. Reserving again for the same
// project changes nothing.
func (s *Service) Reserve(ctx context.Context, actor access.Actor, resourceID string, in ReserveInput) (*domain.Resource, error) {
	if err := access.Check(actor, constants.ManageResources, nil).Err(); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, apperr.Validation("projectId is required")
	}
	var r *domain.Resource
	err := s.transition(ctx, ActionReserve, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if r, err = store.Resource(tx, resourceID); err != nil {
			return nil, err
		}
		if _, err := store.Project(tx, in.ProjectID); err != nil {
			return nil, err
		}
		if r.ReservedForProjectID != nil && *r.ReservedForProjectID == in.ProjectID {
			return nil, nil
		}
		now := s.now()
		res := tx.Model(&domain.Resource{}).
			Where("id = ? AND (reserved_for_project_id IS NULL OR reserved_for_project_id = ?)", r.ID, in.ProjectID).
			Updates(map[string]interface{}{
				"reserved_for_project_id": in.ProjectID,
				"status":                  roles.ResourceAllocated,
				"updated_at":              now,
			})
		if res.Error != nil {
			return nil, store.Write(res.Error, "Resource")
		}
		if res.RowsAffected == 0 {
			return nil, apperr.Conflict("Resource already reserved")
		}
		pid := in.ProjectID
		r.ReservedForProjectID = &pid
		r.Status = roles.ResourceAllocated
		r.UpdatedAt = now
		return &audit.Entry{EntityType: EntityResource, EntityID: r.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"reservedForProjectId": pid}}, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Release drops any reservation. Releasing an unreserved resource is a no-op.
func (s *Service) Release(ctx context.Context, actor access.Actor, resourceID string) (*domain.Resource, error) {
	if err := access.Check(actor, constants.ManageResources, nil).Err(); err != nil {
		return nil, err
	}
	var r *domain.Resource
	err := s.transition(ctx, ActionRelease, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if r, err = store.Resource(tx, resourceID); err != nil {
			return nil, err
		}
		if r.ReservedForProjectID == nil {
			return nil, nil
		}
		previous := *r.ReservedForProjectID
		now := s.now()
		if err := tx.Model(&domain.Resource{}).Where("id = ?", r.ID).
			Updates(map[string]interface{}{
				"reserved_for_project_id": nil,
				"status":                  roles.ResourceCertified,
				"updated_at":              now,
			}).Error; err != nil {
			return nil, store.Write(err, "Resource")
		}
		r.ReservedForProjectID = nil
		r.Status = roles.ResourceCertified
		r.UpdatedAt = now
		return &audit.Entry{EntityType: EntityResource, EntityID: r.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"releasedFromProjectId": previous}}, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
