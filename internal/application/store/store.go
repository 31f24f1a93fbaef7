// Package store holds the keyed lookups shared by the lifecycle core and the read handlers.
// Every function takes the *gorm.DB to run on, so it works inside a transaction too.
package store

import (
	"errors"
	"strings"

	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

func first[T any](db *gorm.DB, what string, query string, args ...interface{}) (*T, error) {
	var out T
	if err := db.Where(query, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("%s not found", what)
		}
		return nil, apperr.Internal(err, "failed to load %s", strings.ToLower(what))
	}
	return &out, nil
}

// optional returns (nil, nil) when the lookup finds nothing.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func Actor(db *gorm.DB, id string) (*domain.Actor, error) {
	return first[domain.Actor](db, "User", "id = ?", id)
}

// ActorByEmail matches case-insensitively.
func ActorByEmail(db *gorm.DB, email string) (*domain.Actor, error) {
	return first[domain.Actor](db, "User", "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func Project(db *gorm.DB, id string) (*domain.Project, error) {
	return first[domain.Project](db, "Project", "id = ?", id)
}

func Projects(db *gorm.DB) ([]domain.Project, error) {
	var out []domain.Project
	if err := db.Order("created_at DESC").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list projects")
	}
	return out, nil
}

func Bid(db *gorm.DB, id string) (*domain.Bid, error) {
	return first[domain.Bid](db, "Bid", "id = ?", id)
}

// BidsForProject returns the project's bid cohort in submission order.
func BidsForProject(db *gorm.DB, projectID string) ([]domain.Bid, error) {
	var out []domain.Bid
	if err := db.Where("project_id = ?", projectID).Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load bids")
	}
	return out, nil
}

// AwardedBid returns nil when no bid of the project is Awarded.
func AwardedBid(db *gorm.DB, projectID string) (*domain.Bid, error) {
	return optional[domain.Bid](first[domain.Bid](db, "Bid", "project_id = ? AND status = ?", projectID, roles.BidAwarded))
}

// LatestReport is the most recent report by created_at, insertion order breaking ties.
func LatestReport(db *gorm.DB, projectID string) (*domain.DamageReport, error) {
	var out domain.DamageReport
	err := db.Where("project_id = ?", projectID).Order("created_at DESC").Order("seq DESC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load damage report")
	}
	return &out, nil
}

// LatestPlan is the highest version; nil when the project has no plan.
func LatestPlan(db *gorm.DB, projectID string) (*domain.Plan, error) {
	var out domain.Plan
	err := db.Where("project_id = ?", projectID).Order("version DESC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load plan")
	}
	return &out, nil
}

// Plans returns the version history, newest first.
func Plans(db *gorm.DB, projectID string) ([]domain.Plan, error) {
	var out []domain.Plan
	if err := db.Where("project_id = ?", projectID).Order("version DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load plans")
	}
	return out, nil
}

func NextPlanVersion(db *gorm.DB, projectID string) (int, error) {
	var current int64
	row := db.Model(&domain.Plan{}).Where("project_id = ?", projectID).Select("COALESCE(MAX(version), 0)").Row()
	if err := row.Scan(&current); err != nil {
		return 0, apperr.Internal(err, "failed to compute plan version")
	}
	return int(current) + 1, nil
}

// LicenseForProject returns nil when the project has no license yet.
func LicenseForProject(db *gorm.DB, projectID string) (*domain.License, error) {
	return optional[domain.License](first[domain.License](db, "License", "project_id = ?", projectID))
}

func Resource(db *gorm.DB, id string) (*domain.Resource, error) {
	return first[domain.Resource](db, "Resource", "id = ?", id)
}

func Resources(db *gorm.DB) ([]domain.Resource, error) {
	var out []domain.Resource
	if err := db.Order("type").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list resources")
	}
	return out, nil
}

func ResourcesReservedFor(db *gorm.DB, projectID string) ([]domain.Resource, error) {
	var out []domain.Resource
	if err := db.Where("reserved_for_project_id = ?", projectID).Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load reserved resources")
	}
	return out, nil
}

// Write maps a failed write to the error taxonomy.
func Write(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("%s already exists", what)
	}
	return apperr.Internal(err, "failed to save %s", strings.ToLower(what))
}
