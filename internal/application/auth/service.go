// Package auth issues and validates opaque session tokens for registered actors.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"
	"lifelines-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DefaultRegionID   = "doha"
	DefaultRegionName = "Doha"
	ActionRegister    = "register"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	RegionID   string `json:"regionId,omitempty"`
	RegionName string `json:"regionName,omitempty"`
}

// Result is returned by login and register.
type Result struct {
	Token string       `json:"token"`
	User  access.Actor `json:"user"`
}

type Service struct {
	DB       *gorm.DB
	Audit    *audit.Service
	Sessions *Sessions
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func (s *Service) cost() int {
	if s.Cost > 0 {
		return s.Cost
	}
	return bcrypt.DefaultCost
}

// HashPassword hashes with the service's bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	return string(b), err
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	u, err := store.ActorByEmail(s.DB.WithContext(ctx), in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: access.FromDomain(u)}, nil
}

// Register creates a non-admin actor and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, ErrMissingFields
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !roles.CanSelfRegister(in.Role) {
		return nil, ErrInvalidRole
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}
	u := &domain.Actor{
		ID:           "user_" + uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		RegionID:     firstNonEmpty(in.RegionID, DefaultRegionID),
		RegionName:   firstNonEmpty(in.RegionName, DefaultRegionName),
		CreatedAt:    time.Now().UTC(),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := store.ActorByEmail(tx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return apperr.Internal(err, "failed to create user")
		}
		s.Audit.RecordBestEffort(ctx, tx, audit.Entry{
			EntityType: "User", EntityID: u.ID, Action: ActionRegister, ActorID: u.ID,
			Details: map[string]string{"role": u.Role},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	token, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: access.FromDomain(u)}, nil
}

// Resolve returns the actor behind token, loaded fresh so region changes apply.
func (s *Service) Resolve(ctx context.Context, token string) (*access.Actor, error) {
	userID, err := s.Sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := store.Actor(s.DB.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("User not found")
		}
		return nil, err
	}
	a := access.FromDomain(u)
	return &a, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Sessions.Destroy(ctx, token)
}

func firstNonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
