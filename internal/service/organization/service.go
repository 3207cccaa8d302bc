package organization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

// DefaultSeatLimit applies when an organization is created without one.
const DefaultSeatLimit = 5

type Service struct {
	orgs     repository.OrganizationRepository
	users    repository.UserRepository
	sessions *session.Service
}

func NewService(orgs repository.OrganizationRepository, users repository.UserRepository, sessions *session.Service) *Service {
	return &Service{
		orgs:     orgs,
		users:    users,
		sessions: sessions,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	seatLimit := req.SeatLimit
	if seatLimit <= 0 {
		seatLimit = DefaultSeatLimit
	}

	org := &model.Organization{
		Name:      req.Name,
		SeatLimit: seatLimit,
		Settings:  model.JSONMap{},
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.orgs.Get(ctx, id)
}

// CheckSeatAvailable compares the member count against the seat limit.
func (s *Service) CheckSeatAvailable(ctx context.Context, orgID uuid.UUID) (bool, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return false, err
	}

	count, err := s.users.CountByOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}

	return count < org.SeatLimit, nil
}

// ListMembers returns organization members, newest first, with
// credential fields stripped.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	members, err := s.users.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, 0, len(members))
	for _, m := range members {
		out = append(out, m.Sanitized())
	}
	return out, nil
}

// ChangeRole updates the target user's role. The acting user must be an
// admin or a manager, and a manager may not grant the admin role.
func (s *Service) ChangeRole(ctx context.Context, targetID uuid.UUID, newRole string, actingID uuid.UUID) error {
	if !model.ValidRole(newRole) {
		return apperrors.Validation(fmt.Sprintf("unknown role %q", newRole))
	}

	acting, err := s.users.Get(ctx, actingID)
	if err != nil {
		return err
	}

	if acting.Role != model.RoleAdmin && acting.Role != model.RoleManager {
		return apperrors.Forbidden("only admins and managers may change roles")
	}

	if acting.Role == model.RoleManager && newRole == model.RoleAdmin {
		return apperrors.Forbidden("managers may not grant the admin role")
	}

	return s.users.UpdateRole(ctx, targetID, newRole)
}

// Deactivate marks the user inactive and revokes every live session; a
// deactivated account must not retain device access.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}

	return s.sessions.RevokeAll(ctx, userID)
}
