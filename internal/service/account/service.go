package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/email"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	"github.com/emersoneims/oracle-api/internal/service/organization"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
	"github.com/emersoneims/oracle-api/pkg/metrics"
	"github.com/emersoneims/oracle-api/pkg/security"
)

// Defaults for the login throttle.
const (
	DefaultLockoutWindow    = 30 * time.Minute
	DefaultLockoutThreshold = 5
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Config carries the throttle tunables.
type Config struct {
	LockoutWindow    time.Duration
	LockoutThreshold int
}

type Service struct {
	users     repository.UserRepository
	attempts  repository.LoginAttemptRepository
	orgs      *organization.Service
	sessions  *session.Service
	hasher    security.PasswordHasher
	email     email.Service
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
	throttle  *memoryThrottle
	cfg       Config
}

func NewService(
	users repository.UserRepository,
	attempts repository.LoginAttemptRepository,
	orgs *organization.Service,
	sessions *session.Service,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	log *logger.Logger,
	cfg Config,
) *Service {
	if cfg.LockoutWindow <= 0 {
		cfg.LockoutWindow = DefaultLockoutWindow
	}
	if cfg.LockoutThreshold <= 0 {
		cfg.LockoutThreshold = DefaultLockoutThreshold
	}

	return &Service{
		users:     users,
		attempts:  attempts,
		orgs:      orgs,
		sessions:  sessions,
		hasher:    hasher,
		email:     emailSvc,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		throttle:  newMemoryThrottle(cfg.LockoutWindow, cfg.LockoutThreshold),
		cfg:       cfg,
	}
}

// Register creates a new account. The password is checked against the
// policy and the organization's seat limit before the expensive hash.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	address := normalizeEmail(req.Email)
	if !emailRegex.MatchString(address) {
		return nil, apperrors.Validation("invalid email address")
	}

	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	role := req.Role
	if role == "" {
		role = model.RoleTechnician
	}
	if !model.ValidRole(role) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown role %q", role))
	}

	if _, err := s.users.GetByEmail(ctx, address); err == nil {
		return nil, apperrors.Conflict("an account with this email already exists", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	if req.OrganizationID != nil {
		available, err := s.orgs.CheckSeatAvailable(ctx, *req.OrganizationID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, apperrors.Conflict("organization has no available seats", nil)
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	user := &model.User{
		OrganizationID: req.OrganizationID,
		Email:          address,
		PasswordHash:   hash,
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           role,
		IsActive:       true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	if err := s.email.SendWelcome(ctx, user.Email, name); err != nil {
		s.logger.Error(err, "failed to send welcome email")
	}

	if err := s.publisher.Publish(ctx, "user.registered", user.Sanitized()); err != nil {
		s.logger.Error(err, "failed to publish registration event")
	}

	return user.Sanitized(), nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password are indistinguishable to the caller, and both
// count against the throttle window for that email.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest, device model.DeviceContext) (*model.LoginResult, error) {
	address := normalizeEmail(req.Email)

	locked, err := s.isLocked(ctx, address)
	if err != nil {
		return nil, err
	}
	if locked {
		s.metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		return nil, apperrors.RateLimited(fmt.Sprintf(
			"too many failed login attempts, try again in %s", s.cfg.LockoutWindow))
	}

	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.recordAttempt(ctx, address, device.IPAddress, false)
			s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, apperrors.Forbidden("account is temporarily locked")
	}

	if !user.IsActive {
		s.metrics.LoginAttempts.WithLabelValues("deactivated").Inc()
		return nil, apperrors.Forbidden("account is deactivated")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if err := s.users.IncrementFailedAttempts(ctx, user.ID); err != nil {
			s.logger.Error(err, "failed to bump failed attempt counter")
		}
		s.recordAttempt(ctx, address, device.IPAddress, false)
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.sessions.Create(ctx, user.ID, device)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		s.logger.Error(err, "failed to record login success")
	}
	s.recordAttempt(ctx, address, device.IPAddress, true)
	s.throttle.reset(address)

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.metrics.SessionsIssued.Inc()

	user.LastLoginAt = &now
	return &model.LoginResult{User: user.Sanitized(), Token: token}, nil
}

// Logout revokes the presented session token. Idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	s.metrics.SessionsRevoked.Inc()
	return nil
}

// LogoutAll revokes every session the user holds.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.metrics.SessionsRevoked.Inc()
	return nil
}

// ChangePassword rotates the credential and revokes every session,
// including the one that made this call. Clients must log in again.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	if err := security.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Validation(err.Error())
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}

	if err := s.email.SendPasswordChanged(ctx, user.Email); err != nil {
		s.logger.Error(err, "failed to send password change notice")
	}

	return nil
}

// isLocked consults the persisted attempt log first, falling back to
// the in-memory mirror when the store is unreachable.
func (s *Service) isLocked(ctx context.Context, address string) (bool, error) {
	since := time.Now().Add(-s.cfg.LockoutWindow)
	count, err := s.attempts.CountRecentFailures(ctx, address, since)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			s.logger.Warn("attempt log unavailable, using in-memory throttle")
			return s.throttle.locked(address), nil
		}
		return false, err
	}

	return count >= s.cfg.LockoutThreshold || s.throttle.locked(address), nil
}

// recordAttempt appends to the audit log. Best effort: a failed append
// must not block the login path, the in-memory mirror still counts it.
func (s *Service) recordAttempt(ctx context.Context, address string, ip *string, success bool) {
	if !success {
		s.throttle.recordFailure(address)
	}

	attempt := &model.LoginAttempt{
		Email:     address,
		IPAddress: ip,
		Success:   success,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error(err, "failed to record login attempt")
	}
}

func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
