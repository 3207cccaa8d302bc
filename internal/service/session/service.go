package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/security"
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 168 * time.Hour

type Service struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
}

func NewService(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
	}
}

// Create issues a new opaque token for the user. Users may hold any
// number of concurrent sessions; seat caps are an organization concern,
// not a session one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, device model.DeviceContext) (string, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return "", apperrors.Internal(err)
	}

	session := &model.Session{
		UserID:            userID,
		Token:             token,
		DeviceFingerprint: device.Fingerprint,
		IPAddress:         device.IPAddress,
		UserAgent:         device.UserAgent,
		ExpiresAt:         time.Now().Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// Validate resolves a token to its owning user. An expired session is
// deleted on first access; a deactivated owner keeps the row (it
// self-expires) but is refused.
func (s *Service) Validate(ctx context.Context, token string) (*model.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid session")
		}
		return nil, err
	}

	if session.Expired(time.Now()) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil && !apperrors.IsUnavailable(err) {
			return nil, err
		}
		return nil, apperrors.Unauthorized("session expired")
	}

	user, err := s.users.Get(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid session")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is deactivated")
	}

	return user.Sanitized(), nil
}

// Revoke deletes a single session. Idempotent.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// RevokeAll logs the user out of every device. Idempotent.
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.DeleteByUser(ctx, userID)
}

// CleanupExpired reclaims expired session rows. Maintenance helper,
// never required for correctness.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now())
}
