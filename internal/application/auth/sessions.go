package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lifelines-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionPrefix      = "session:"
	UserSessionsPrefix = "user_sessions:"
	DefaultSessionTTL  = 24 * time.Hour
)

// sessionRecord is the JSON stored under session:<token>.
type sessionRecord struct {
	UserID   string    `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Sessions maps opaque bearer tokens to actor ids in Redis.
type Sessions struct {
	Rdb *redis.Client
	TTL time.Duration
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

// Create issues a token for userID and tracks it in user_sessions:<id>.
func (s *Sessions) Create(ctx context.Context, userID string) (string, error) {
	token := "tok_" + uuid.NewString()
	b, err := json.Marshal(sessionRecord{UserID: userID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	pipe := s.Rdb.TxPipeline()
	pipe.Set(ctx, SessionPrefix+token, b, s.ttl())
	pipe.SAdd(ctx, UserSessionsPrefix+userID, token)
	pipe.Expire(ctx, UserSessionsPrefix+userID, s.ttl())
	if _, err := pipe.Exec(ctx); err != nil {
		return "", apperr.Transient(err, "Session store unavailable")
	}
	return token, nil
}

// Lookup returns the user id behind token.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotAuthenticated
	}
	b, err := s.Rdb.Get(ctx, SessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", apperr.Unauthenticated("Invalid token")
	}
	if err != nil {
		return "", apperr.Transient(err, "Session store unavailable")
	}
	var rec sessionRecord
	if err := json.Unmarshal(b, &rec); err != nil || rec.UserID == "" {
		return "", apperr.Unauthenticated("Invalid token")
	}
	return rec.UserID, nil
}

// Destroy removes token. Unknown tokens are ignored.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	userID, err := s.Lookup(ctx, token)
	if err != nil && apperr.IsTransient(err) {
		return err
	}
	pipe := s.Rdb.TxPipeline()
	pipe.Del(ctx, SessionPrefix+token)
	if userID != "" {
		pipe.SRem(ctx, UserSessionsPrefix+userID, token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Transient(err, "Session store unavailable")
	}
	return nil
}

// FlushExcept drops every session but keep, used by the dataset reset.
func (s *Sessions) FlushExcept(ctx context.Context, keep string) error {
	for _, pattern := range []string{SessionPrefix + "*", UserSessionsPrefix + "*"} {
		iter := s.Rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			if key == SessionPrefix+keep {
				continue
			}
			if err := s.Rdb.Del(ctx, key).Err(); err != nil {
				return apperr.Transient(err, "Session store unavailable")
			}
		}
		if err := iter.Err(); err != nil {
			return apperr.Transient(err, "Session store unavailable")
		}
	}
	return nil
}
