package organization_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository/repositorytest"
	"github.com/emersoneims/oracle-api/internal/service/organization"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

type fixture struct {
	svc      *organization.Service
	users    *repositorytest.FakeUserRepository
	orgs     *repositorytest.FakeOrganizationRepository
	sessions *repositorytest.FakeSessionRepository
	sessSvc  *session.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	users := repositorytest.NewFakeUserRepository()
	orgs := repositorytest.NewFakeOrganizationRepository()
	sessions := repositorytest.NewFakeSessionRepository()
	sessSvc := session.NewService(sessions, users, session.DefaultTTL)

	return &fixture{
		svc:      organization.NewService(orgs, users, sessSvc),
		users:    users,
		orgs:     orgs,
		sessions: sessions,
		sessSvc:  sessSvc,
	}
}

func (f *fixture) addUser(t *testing.T, email, role string, orgID *uuid.UUID) *model.User {
	t.Helper()
	user := &model.User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   "hash",
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestCreateAppliesDefaultSeatLimit(t *testing.T) {
	f := setup(t)

	org, err := f.svc.Create(context.Background(), &model.CreateOrganizationRequest{Name: "Acme Power"})
	require.NoError(t, err)
	assert.Equal(t, organization.DefaultSeatLimit, org.SeatLimit)
	assert.NotNil(t, org.Settings)
}

func TestSeatAvailability(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	org, err := f.svc.Create(ctx, &model.CreateOrganizationRequest{Name: "Acme", SeatLimit: 2})
	require.NoError(t, err)

	available, err := f.svc.CheckSeatAvailable(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, available)

	f.addUser(t, "a@acme.com", model.RoleTechnician, &org.ID)
	f.addUser(t, "b@acme.com", model.RoleTechnician, &org.ID)

	available, err = f.svc.CheckSeatAvailable(ctx, org.ID)
	require.NoError(t, err)
	assert.False(t, available, "organization at its seat limit must report no seats")
}

func TestListMembersSanitized(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	org, err := f.svc.Create(ctx, &model.CreateOrganizationRequest{Name: "Acme"})
	require.NoError(t, err)

	f.addUser(t, "a@acme.com", model.RoleTechnician, &org.ID)
	f.addUser(t, "outsider@other.com", model.RoleTechnician, nil)

	members, err := f.svc.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Empty(t, members[0].PasswordHash)
}

func TestChangeRoleMatrix(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.addUser(t, "admin@acme.com", model.RoleAdmin, nil)
	manager := f.addUser(t, "manager@acme.com", model.RoleManager, nil)
	tech := f.addUser(t, "tech@acme.com", model.RoleTechnician, nil)

	// A technician may not change roles at all.
	err := f.svc.ChangeRole(ctx, tech.ID, model.RoleViewer, tech.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	// A manager may promote up to manager but not to admin.
	require.NoError(t, f.svc.ChangeRole(ctx, tech.ID, model.RoleManager, manager.ID))

	err = f.svc.ChangeRole(ctx, tech.ID, model.RoleAdmin, manager.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	// An admin may grant any role.
	require.NoError(t, f.svc.ChangeRole(ctx, tech.ID, model.RoleAdmin, admin.ID))

	got, err := f.users.Get(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	f := setup(t)
	admin := f.addUser(t, "admin@acme.com", model.RoleAdmin, nil)

	err := f.svc.ChangeRole(context.Background(), admin.ID, "superuser", admin.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	user := f.addUser(t, "tech@acme.com", model.RoleTechnician, nil)
	_, err := f.sessSvc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)
	_, err = f.sessSvc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(ctx, user.ID))

	got, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, f.sessions.Count(), "deactivation must revoke every session")
}
