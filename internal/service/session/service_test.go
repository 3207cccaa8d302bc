package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository/repositorytest"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

func setup(t *testing.T) (*session.Service, *repositorytest.FakeSessionRepository, *repositorytest.FakeUserRepository, *model.User) {
	t.Helper()

	sessions := repositorytest.NewFakeSessionRepository()
	users := repositorytest.NewFakeUserRepository()

	user := &model.User{
		Email:        "tech@example.com",
		PasswordHash: "hash",
		Role:         model.RoleTechnician,
		IsActive:     true,
	}
	require.NoError(t, users.Create(context.Background(), user))

	return session.NewService(sessions, users, session.DefaultTTL), sessions, users, user
}

func TestCreateAndValidate(t *testing.T) {
	svc, _, _, user := setup(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)
	assert.Len(t, token, 64)

	got, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash, "validated user must be sanitized")
}

func TestValidateUnknownToken(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.Validate(context.Background(), "no-such-token")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestValidateExpiredSessionDeletesRow(t *testing.T) {
	svc, sessions, _, user := setup(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)

	sessions.Sessions[token].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = svc.Validate(ctx, token)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)

	assert.Equal(t, 0, sessions.Count(), "expired session must be deleted on access")
}

func TestValidateDeactivatedUser(t *testing.T) {
	svc, sessions, users, user := setup(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)

	require.NoError(t, users.Deactivate(ctx, user.ID))

	_, err = svc.Validate(ctx, token)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	// The row stays; it self-expires.
	assert.Equal(t, 1, sessions.Count())
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, _, _, user := setup(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Validate(ctx, token)
	assert.Error(t, err)
}

func TestRevokeAll(t *testing.T) {
	svc, sessions, _, user := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, user.ID, model.DeviceContext{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, sessions.Count())

	require.NoError(t, svc.RevokeAll(ctx, user.ID))
	assert.Equal(t, 0, sessions.Count())
}

func TestCleanupExpired(t *testing.T) {
	svc, sessions, _, user := setup(t)
	ctx := context.Background()

	live, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)
	stale, err := svc.Create(ctx, user.ID, model.DeviceContext{})
	require.NoError(t, err)
	sessions.Sessions[stale].ExpiresAt = time.Now().Add(-time.Hour)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Validate(ctx, live)
	assert.NoError(t, err)
}
