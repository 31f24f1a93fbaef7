package sync

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lifelines-backend/internal/application/access"
	authsvc "lifelines-backend/internal/application/auth"
	"lifelines-backend/internal/application/seed"
	"lifelines-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedCredentials fills an empty registry with the demo identities.
func (e *Engine) seedCredentials(ctx context.Context) error {
	db := e.db.WithContext(ctx)
	var n int64
	if err := db.Model(&LocalCredential{}).Count(&n).Error; err != nil || n > 0 {
		return err
	}
	for _, id := range seed.DemoIdentities {
		h, err := bcrypt.GenerateFromPassword([]byte(id.Password), e.cost)
		if err != nil {
			return err
		}
		if err := db.Create(&LocalCredential{
			Email: strings.ToLower(id.Email), ActorID: id.ID, Name: id.Name, Role: id.Role,
			RegionID: authsvc.DefaultRegionID, RegionName: authsvc.DefaultRegionName,
			PasswordHash: string(h), UpdatedAt: e.now().UTC(),
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// rememberCredential stores a bcrypt hash after a successful remote login so
// the same actor can sign in offline later.
func (e *Engine) rememberCredential(ctx context.Context, u access.Actor, password string) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), e.cost)
	if err != nil {
		return
	}
	cred := LocalCredential{
		Email: strings.ToLower(u.Email), ActorID: u.ID, Name: u.Name, Role: u.Role,
		RegionID: u.RegionID, RegionName: u.RegionName, PasswordHash: string(h), UpdatedAt: e.now().UTC(),
	}
	if err := e.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&cred).Error; err != nil {
		log.Warn().Err(err).Msg("remember credential")
	}
}

func (e *Engine) loadSession(ctx context.Context) error {
	var rec SessionRecord
	err := e.db.WithContext(ctx).First(&rec, "slot = ?", sessionSlot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	e.session = &Session{
		Token: rec.Token,
		User: access.Actor{ID: rec.ActorID, Name: rec.Name, Email: rec.Email, Role: rec.Role,
			RegionID: rec.RegionID, RegionName: rec.RegionName},
		Local: rec.Local,
	}
	e.lastSync = rec.LastSyncAt
	if !rec.Local {
		e.remote.SetToken(rec.Token)
	}
	return nil
}

func (e *Engine) saveSession(ctx context.Context, s *Session, creds *credentials) error {
	e.mu.Lock()
	e.session = s
	e.creds = creds
	last := e.lastSync
	e.mu.Unlock()
	rec := SessionRecord{
		Slot: sessionSlot, Token: s.Token, ActorID: s.User.ID, Name: s.User.Name, Email: s.User.Email,
		Role: s.User.Role, RegionID: s.User.RegionID, RegionName: s.User.RegionName, Local: s.Local,
		LastSyncAt: last,
	}
	return e.db.WithContext(ctx).Save(&rec).Error
}

// Login signs in against the server. When the server is unreachable the local
// registry is checked instead and a local_ token is issued; the engine signs in
// remotely with the same credentials once the server is back.
func (e *Engine) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, authsvc.ErrEmailPasswordRequired
	}
	creds := &credentials{email: email, password: password}

	res, err := e.remote.Login(ctx, email, password)
	if err == nil {
		e.markOnline()
		e.remote.SetToken(res.Token)
		e.rememberCredential(ctx, res.User, password)
		s := &Session{Token: res.Token, User: res.User}
		if err := e.saveSession(ctx, s, creds); err != nil {
			return nil, apperr.Internal(err, "failed to persist session")
		}
		e.refreshBestEffort(ctx)
		return s, nil
	}
	if !apperr.IsTransient(err) {
		return nil, err
	}
	e.markOffline(err)

	var cred LocalCredential
	if qerr := e.db.WithContext(ctx).First(&cred, "email = ?", email).Error; qerr != nil {
		return nil, authsvc.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, authsvc.ErrInvalidCredentials
	}
	s := &Session{
		Token: LocalIDPrefix + uuid.NewString(),
		User: access.Actor{ID: cred.ActorID, Name: cred.Name, Email: cred.Email, Role: cred.Role,
			RegionID: cred.RegionID, RegionName: cred.RegionName},
		Local: true,
	}
	if err := e.saveSession(ctx, s, creds); err != nil {
		return nil, apperr.Internal(err, "failed to persist session")
	}
	log.Info().Str("actor_id", s.User.ID).Msg("signed in offline")
	return s, nil
}

// upgradeSession exchanges a local session for a server one.
func (e *Engine) upgradeSession(ctx context.Context) error {
	e.mu.Lock()
	s, creds := e.session, e.creds
	e.mu.Unlock()
	if s == nil {
		return ErrNoSession
	}
	if !s.Local {
		return nil
	}
	if creds == nil {
		return apperr.Unauthenticated("Offline session must sign in again")
	}
	res, err := e.remote.Login(ctx, creds.email, creds.password)
	if err != nil {
		return err
	}
	e.remote.SetToken(res.Token)
	if err := e.saveSession(ctx, &Session{Token: res.Token, User: res.User}, creds); err != nil {
		return apperr.Internal(err, "failed to persist session")
	}
	log.Info().Str("actor_id", res.User.ID).Msg("offline session upgraded")
	return nil
}

// Logout ends the session locally and, when possible, on the server.
func (e *Engine) Logout(ctx context.Context) error {
	s := e.Session()
	if s == nil {
		return nil
	}
	if !s.Local {
		if _, err := e.remote.Do(ctx, http.MethodDelete, "/auth/logout", nil, ""); err != nil {
			log.Warn().Err(err).Msg("remote logout")
		}
	}
	e.remote.SetToken("")
	e.mu.Lock()
	e.session, e.creds = nil, nil
	e.mu.Unlock()
	return e.db.WithContext(ctx).Delete(&SessionRecord{}, "slot = ?", sessionSlot).Error
}
