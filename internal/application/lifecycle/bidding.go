package lifecycle

import (
	"context"
	"crypto/rand"
	"math/big"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/scoring"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"
	"lifelines-backend/internal/pkg/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const licenseAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomLicenseID returns "LIC-" followed by 8 unambiguous characters.
func RandomLicenseID() string {
	b := make([]byte, 8)
	size := big.NewInt(int64(len(licenseAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			panic(err)
		}
		b[i] = licenseAlphabet[n.Int64()]
	}
	return "LIC-" + string(b)
}

func (in BidInput) validate() error {
	switch {
	case in.Cost <= 0 || in.TimelineMonths <= 0:
		return apperr.Validation("Invalid bid values")
	case in.ExperienceCount < 0:
		return apperr.Validation("Experience count cannot be negative")
	case !validation.InRange(in.RecycledPercent, 0, 100):
		return apperr.Validation("Recycled percent must be between 0 and 100")
	}
	return nil
}

// SubmitBid adds a contractor's bid and rescores the whole cohort.
func (s *Service) SubmitBid(ctx context.Context, actor access.Actor, projectID string, in BidInput) (*domain.Bid, error) {
	if err := access.Check(actor, constants.SubmitBid, nil).Err(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var bid *domain.Bid
	err := s.transition(ctx, ActionSubmitBid, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.SubmitBid, projectID)
		if err != nil {
			return nil, err
		}
		if p.Status != roles.StatusPublished {
			return nil, apperr.Conflict("Project not open for bidding")
		}
		now := s.now()
		bid = &domain.Bid{
			ID:              s.id("bid"),
			ProjectID:       p.ID,
			ContractorID:    actor.ID,
			Cost:            in.Cost,
			TimelineMonths:  in.TimelineMonths,
			ExperienceCount: in.ExperienceCount,
			RecycledPercent: in.RecycledPercent,
			Status:          roles.BidSubmitted,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(bid).Error; err != nil {
			return nil, store.Write(err, "Bid")
		}
		cohort, err := store.BidsForProject(tx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, b := range scoring.Rescore(cohort) {
			if err := tx.Model(&domain.Bid{}).Where("id = ?", b.ID).Update("score", b.Score).Error; err != nil {
				return nil, store.Write(err, "Bid")
			}
			if b.ID == bid.ID {
				bid.Score = b.Score
			}
		}
		return &audit.Entry{EntityType: EntityBid, EntityID: bid.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"projectId": p.ID, "cohort": len(cohort)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// AwardResult is the project after award with its rescored, resolved cohort.
type AwardResult struct {
	Project domain.Project `json:"project"`
	Bid     domain.Bid     `json:"bid"`
	Bids    []domain.Bid   `json:"bids"`
}

// Award marks bidID Awarded and every other bid of the project Rejected.
// Awarding the already-awarded bid again returns the same result and records nothing.
func (s *Service) Award(ctx context.Context, actor access.Actor, projectID string, in AwardInput) (*AwardResult, error) {
	var out *AwardResult
	err := s.transition(ctx, ActionAward, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.AwardBid, projectID)
		if err != nil {
			return nil, err
		}
		if in.BidID == "" {
			return nil, apperr.Validation("bidId is required")
		}
		bid, err := store.Bid(tx, in.BidID)
		if err != nil {
			return nil, err
		}
		if bid.ProjectID != p.ID {
			return nil, apperr.NotFound("Bid not found")
		}
		replay := p.Status == roles.StatusAwarded && bid.Status == roles.BidAwarded
		if !replay {
			if err := s.advance(tx, p, roles.StatusPublished, roles.StatusAwarded, nil); err != nil {
				return nil, err
			}
			now := s.now()
			if err := tx.Model(&domain.Bid{}).Where("project_id = ? AND id <> ?", p.ID, bid.ID).
				Updates(map[string]interface{}{"status": roles.BidRejected, "updated_at": now}).Error; err != nil {
				return nil, store.Write(err, "Bid")
			}
			if err := tx.Model(&domain.Bid{}).Where("id = ?", bid.ID).
				Updates(map[string]interface{}{"status": roles.BidAwarded, "updated_at": now}).Error; err != nil {
				return nil, store.Write(err, "Bid")
			}
			bid.Status = roles.BidAwarded
		}
		cohort, err := store.BidsForProject(tx, p.ID)
		if err != nil {
			return nil, err
		}
		out = &AwardResult{Project: *p, Bid: *bid, Bids: cohort}
		if replay {
			return nil, nil
		}
		return &audit.Entry{EntityType: EntityProject, EntityID: p.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"awardedBidId": bid.ID, "contractorId": bid.ContractorID}}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) licenseID() string {
	if s.NewLicenseID != nil {
		return s.NewLicenseID()
	}
	return RandomLicenseID()
}

// IssueLicense moves an Awarded project to Licensed, licensing the awarded contractor.
func (s *Service) IssueLicense(ctx context.Context, actor access.Actor, projectID string, in LicenseInput) (*domain.License, error) {
	today := s.now().Format(validation.DateLayout)
	from, to := in.ValidFrom, in.ValidTo
	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	fromT, ok := validation.ParseDate(from)
	if !ok {
		return nil, apperr.Validation("validFrom must be YYYY-MM-DD")
	}
	toT, ok := validation.ParseDate(to)
	if !ok {
		return nil, apperr.Validation("validTo must be YYYY-MM-DD")
	}
	if toT.Before(fromT) {
		return nil, apperr.Validation("validTo cannot be before validFrom")
	}

	var lic *domain.License
	err := s.transition(ctx, ActionIssueLicense, func(tx *gorm.DB) (*audit.Entry, error) {
		p, err := loadProject(tx, actor, constants.IssueLicense, projectID)
		if err != nil {
			return nil, err
		}
		awarded, err := store.AwardedBid(tx, p.ID)
		if err != nil {
			return nil, err
		}
		if awarded == nil {
			return nil, apperr.Conflict("Award a bid first")
		}
		if err := s.advance(tx, p, roles.StatusAwarded, roles.StatusLicensed, nil); err != nil {
			return nil, err
		}
		conditions := datatypes.JSONSlice[string]{}
		if in.Conditions != nil {
			conditions = in.Conditions
		}
		lic = &domain.License{
			ID:           s.licenseID(),
			ProjectID:    p.ID,
			ContractorID: awarded.ContractorID,
			ValidFrom:    from,
			ValidTo:      to,
			Conditions:   conditions,
			Signature:    domain.SignaturePlaceholder,
			IssuedBy:     actor.ID,
			IssuedAt:     s.now(),
		}
		if err := tx.Create(lic).Error; err != nil {
			return nil, store.Write(err, "License")
		}
		return &audit.Entry{EntityType: EntityLicense, EntityID: lic.ID, ActorID: actor.ID,
			Details: map[string]interface{}{"projectId": p.ID, "contractorId": lic.ContractorID}}, nil
	})
	if err != nil {
		return nil, err
	}
	return lic, nil
}
