package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository/repositorytest"
	"github.com/emersoneims/oracle-api/internal/service/subscription"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
)

func setup(t *testing.T) (*subscription.Service, *repositorytest.FakeSubscriptionRepository, *repositorytest.FakeUsageRepository) {
	t.Helper()

	subs := repositorytest.NewFakeSubscriptionRepository()
	usage := repositorytest.NewFakeUsageRepository()
	svc := subscription.NewService(subs, usage, messaging.NoopPublisher{}, logger.NewLogger(nil))
	return svc, subs, usage
}

func TestGetCurrentWithoutRowIsImplicitFree(t *testing.T) {
	svc, _, _ := setup(t)
	userID := uuid.New()

	current, err := svc.GetCurrent(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, current.Implicit)
	assert.Equal(t, model.FreePlanID, current.PlanID)
	assert.Equal(t, model.SubscriptionStatusActive, current.Status)

	// Implicit periods are anchored to the calendar month.
	now := time.Now()
	assert.Equal(t, 1, current.CurrentPeriodStart.Day())
	assert.True(t, current.CurrentPeriodEnd.After(now))
}

func TestGetCurrentDegradesToFreeWhenStoreDown(t *testing.T) {
	svc, subs, _ := setup(t)
	subs.Down = true

	current, err := svc.GetCurrent(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, current.Implicit)
	assert.Equal(t, model.FreePlanID, current.PlanID)
}

func TestCreateSubscription(t *testing.T) {
	svc, _, usage := setup(t)
	userID := uuid.New()

	sub, err := svc.Create(context.Background(), userID, "pro", nil)
	require.NoError(t, err)

	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), sub.CurrentPeriodEnd, time.Minute)

	// Usage counters are reset for the new period.
	require.Len(t, usage.Records, 1)
	assert.Equal(t, int64(0), usage.Records[0].DiagnosesUsed)
}

func TestCreateYearlySubscriptionPeriod(t *testing.T) {
	svc, _, _ := setup(t)

	sub, err := svc.Create(context.Background(), uuid.New(), "pro_yearly", nil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), sub.CurrentPeriodEnd, time.Minute)
}

func TestCreateUnknownPlan(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Create(context.Background(), uuid.New(), "platinum", nil)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestCreateRetiresPriorSubscription(t *testing.T) {
	svc, subs, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, "basic", nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, "pro", nil)
	require.NoError(t, err)

	current, err := svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	// At most one live row per user.
	live := 0
	for _, s := range subs.Subs {
		if s.Status == model.SubscriptionStatusActive {
			live++
		}
		if s.ID == first.ID {
			assert.Equal(t, model.SubscriptionStatusCancelled, s.Status)
		}
	}
	assert.Equal(t, 1, live)
}

func TestCancelImmediate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, "basic", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, userID, true))

	current, err := svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, current.Implicit, "immediate cancellation drops to the free plan")
}

func TestCancelAtPeriodEnd(t *testing.T) {
	svc, subs, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	sub, err := svc.Create(ctx, userID, "basic", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, userID, false))

	// Still governed by the paid plan until the period elapses.
	current, err := svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, current.ID)
	assert.False(t, current.Implicit)

	// The period elapses; the next read retires the row as cancelled.
	for _, s := range subs.Subs {
		if s.ID == sub.ID {
			s.CurrentPeriodStart = time.Now().AddDate(0, -2, 0)
			s.CurrentPeriodEnd = time.Now().AddDate(0, -1, 0)
		}
	}

	current, err = svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, current.Implicit)

	for _, s := range subs.Subs {
		if s.ID == sub.ID {
			assert.Equal(t, model.SubscriptionStatusCancelled, s.Status)
		}
	}
}

func TestElapsedPeriodExpiresLazily(t *testing.T) {
	svc, subs, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	sub, err := svc.Create(ctx, userID, "pro", nil)
	require.NoError(t, err)

	for _, s := range subs.Subs {
		if s.ID == sub.ID {
			s.CurrentPeriodEnd = time.Now().Add(-time.Hour)
		}
	}

	current, err := svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, current.Implicit)

	for _, s := range subs.Subs {
		if s.ID == sub.ID {
			assert.Equal(t, model.SubscriptionStatusExpired, s.Status)
		}
	}
}

func TestCreateCarriesPaymentRefs(t *testing.T) {
	svc, _, _ := setup(t)

	receipt := "QFX12345"
	sub, err := svc.Create(context.Background(), uuid.New(), "basic", &model.PaymentRefs{
		MpesaReceiptNumber: &receipt,
	})
	require.NoError(t, err)
	require.NotNil(t, sub.MpesaReceiptNumber)
	assert.Equal(t, receipt, *sub.MpesaReceiptNumber)
}

func TestCalendarMonth(t *testing.T) {
	at := time.Date(2026, time.March, 17, 14, 30, 0, 0, time.UTC)
	start, end := subscription.CalendarMonth(at)

	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), end)
}
