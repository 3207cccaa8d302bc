package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/internal/email"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository/repositorytest"
	"github.com/emersoneims/oracle-api/internal/service/account"
	"github.com/emersoneims/oracle-api/internal/service/organization"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
	"github.com/emersoneims/oracle-api/pkg/metrics"
	"github.com/emersoneims/oracle-api/pkg/security"
)

// Prometheus collectors register globally, once per test binary.
var testMetrics = metrics.NewMetrics("test_account")

type fixture struct {
	svc      *account.Service
	users    *repositorytest.FakeUserRepository
	attempts *repositorytest.FakeLoginAttemptRepository
	orgs     *repositorytest.FakeOrganizationRepository
	sessions *repositorytest.FakeSessionRepository
	sessSvc  *session.Service
	orgSvc   *organization.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	users := repositorytest.NewFakeUserRepository()
	attempts := repositorytest.NewFakeLoginAttemptRepository()
	orgs := repositorytest.NewFakeOrganizationRepository()
	sessions := repositorytest.NewFakeSessionRepository()

	sessSvc := session.NewService(sessions, users, session.DefaultTTL)
	orgSvc := organization.NewService(orgs, users, sessSvc)

	svc := account.NewService(
		users, attempts, orgSvc, sessSvc,
		security.NewBcryptHasher(4),
		email.NewNoopService(),
		messaging.NoopPublisher{},
		testMetrics,
		logger.NewLogger(nil),
		account.Config{LockoutWindow: 30 * time.Minute, LockoutThreshold: 5},
	)

	return &fixture{
		svc:      svc,
		users:    users,
		attempts: attempts,
		orgs:     orgs,
		sessions: sessions,
		sessSvc:  sessSvc,
		orgSvc:   orgSvc,
	}
}

func (f *fixture) register(t *testing.T, emailAddr string) *model.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email:    emailAddr,
		Password: "Password1",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	f := setup(t)

	user := f.register(t, "Tech@Example.com")

	assert.Equal(t, "tech@example.com", user.Email, "email must be normalized")
	assert.Equal(t, model.RoleTechnician, user.Role, "default role is technician")
	assert.True(t, user.IsActive)
	assert.Empty(t, user.PasswordHash, "returned user must be sanitized")

	stored, err := f.users.GetByEmail(context.Background(), "tech@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setup(t)
	f.register(t, "tech@example.com")

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "TECH@example.com",
		Password: "Password1",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := setup(t)

	for _, password := range []string{"short1A", "password1", "PASSWORD1", "Passwords"} {
		_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
			Email:    "tech@example.com",
			Password: password,
		})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, "password %q must be rejected", password)
		assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	}
}

func TestRegisterSeatLimitEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	org, err := f.orgSvc.Create(ctx, &model.CreateOrganizationRequest{Name: "Acme", SeatLimit: 1})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, &model.RegisterRequest{
		Email:          "first@acme.com",
		Password:       "Password1",
		OrganizationID: &org.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, &model.RegisterRequest{
		Email:          "second@acme.com",
		Password:       "Password1",
		OrganizationID: &org.ID,
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestLoginSuccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "tech@example.com")

	result, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotNil(t, result.User.LastLoginAt)
	assert.Empty(t, result.User.PasswordHash)

	got, err := f.sessSvc.Validate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, got.ID)
}

func TestLoginWrongPasswordAndUnknownEmailIndistinguishable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "tech@example.com")

	_, errWrong := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "WrongPass1",
	}, model.DeviceContext{})
	_, errUnknown := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password1",
	}, model.DeviceContext{})

	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLoginLockoutAfterThresholdFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "tech@example.com")

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, &model.LoginRequest{
			Email:    "tech@example.com",
			Password: "WrongPass1",
		}, model.DeviceContext{})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	}

	// The sixth attempt is throttled even with the right password.
	_, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrRateLimited, appErr.Code)
}

func TestLockoutCountsUnknownEmails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, &model.LoginRequest{
			Email:    "nobody@example.com",
			Password: "Password1",
		}, model.DeviceContext{})
		require.Error(t, err)
	}

	_, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrRateLimited, appErr.Code)
}

func TestLockoutSurvivesStoreOutage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "tech@example.com")

	// Attempt log unreachable; the in-memory mirror keeps counting.
	f.attempts.Down = true

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, &model.LoginRequest{
			Email:    "tech@example.com",
			Password: "WrongPass1",
		}, model.DeviceContext{})
		require.Error(t, err)
	}

	_, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrRateLimited, appErr.Code)
}

func TestLockoutClearsAfterWindowElapses(t *testing.T) {
	users := repositorytest.NewFakeUserRepository()
	attempts := repositorytest.NewFakeLoginAttemptRepository()
	orgs := repositorytest.NewFakeOrganizationRepository()
	sessions := repositorytest.NewFakeSessionRepository()
	sessSvc := session.NewService(sessions, users, session.DefaultTTL)
	orgSvc := organization.NewService(orgs, users, sessSvc)

	svc := account.NewService(
		users, attempts, orgSvc, sessSvc,
		security.NewBcryptHasher(4),
		email.NewNoopService(),
		messaging.NoopPublisher{},
		testMetrics,
		logger.NewLogger(nil),
		account.Config{LockoutWindow: 50 * time.Millisecond, LockoutThreshold: 5},
	)

	ctx := context.Background()
	_, err := svc.Register(ctx, &model.RegisterRequest{Email: "tech@example.com", Password: "Password1"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, &model.LoginRequest{
			Email:    "tech@example.com",
			Password: "WrongPass1",
		}, model.DeviceContext{})
		require.Error(t, err)
	}

	_, err = svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrRateLimited, appErr.Code)

	// Failures age out of the window with no further attempts.
	time.Sleep(80 * time.Millisecond)

	_, err = svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	assert.NoError(t, err)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := f.register(t, "tech@example.com")

	require.NoError(t, f.users.Deactivate(ctx, user.ID))

	_, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "tech@example.com")

	result, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.Token))

	_, err = f.sessSvc.Validate(ctx, result.Token)
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := f.register(t, "tech@example.com")

	result, err := f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	require.NoError(t, err)

	// Wrong current password is refused.
	err = f.svc.ChangePassword(ctx, user.ID, &model.ChangePasswordRequest{
		CurrentPassword: "WrongPass1",
		NewPassword:     "NewPassword2",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, &model.ChangePasswordRequest{
		CurrentPassword: "Password1",
		NewPassword:     "NewPassword2",
	}))

	// Every session is revoked, including the caller's.
	_, err = f.sessSvc.Validate(ctx, result.Token)
	assert.Error(t, err)

	// Old password no longer works, new one does.
	_, err = f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "Password1",
	}, model.DeviceContext{})
	assert.Error(t, err)

	_, err = f.svc.Login(ctx, &model.LoginRequest{
		Email:    "tech@example.com",
		Password: "NewPassword2",
	}, model.DeviceContext{})
	assert.NoError(t, err)
}
