package lifecycle

import (
	"context"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"

	"gorm.io/gorm"
)

// UpdateRegion changes an actor's region, the only mutable actor attribute.
// Actors may change their own; admins may change anyone's.
func (s *Service) UpdateRegion(ctx context.Context, actor access.Actor, actorID string, in RegionInput) (*domain.Actor, error) {
	if actor.ID == "" {
		return nil, apperr.Authorization("Not authenticated")
	}
	if actor.ID != actorID {
		if err := access.Check(actor, constants.UpdateAnyRegion, nil).Err(); err != nil {
			return nil, err
		}
	}
	var a *domain.Actor
	err := s.transition(ctx, ActionUpdateRegion, func(tx *gorm.DB) (*audit.Entry, error) {
		var err error
		if a, err = store.Actor(tx, actorID); err != nil {
			return nil, err
		}
		if in.RegionID != "" {
			a.RegionID = in.RegionID
		}
		if in.RegionName != "" {
			a.RegionName = in.RegionName
		}
		if err := tx.Model(a).Select("region_id", "region_name").Updates(a).Error; err != nil {
			return nil, store.Write(err, "User")
		}
		return &audit.Entry{EntityType: EntityUser, EntityID: a.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"regionId": a.RegionID, "regionName": a.RegionName}}, nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
