package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository/repositorytest"
	"github.com/emersoneims/oracle-api/internal/service/payment"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
)

func setup(t *testing.T) (*payment.Service, *repositorytest.FakePaymentRepository) {
	t.Helper()
	payments := repositorytest.NewFakePaymentRepository()
	return payment.NewService(payments, messaging.NoopPublisher{}, logger.NewLogger(nil)), payments
}

func record(t *testing.T, svc *payment.Service, userID uuid.UUID, txID string) *model.PaymentTransaction {
	t.Helper()
	tx, err := svc.Record(context.Background(), userID, &model.RecordPaymentRequest{
		Amount:        1500,
		Currency:      "KES",
		PaymentMethod: model.PaymentMethodMpesa,
		TransactionID: txID,
	})
	require.NoError(t, err)
	return tx
}

func TestRecordStartsPending(t *testing.T) {
	svc, _ := setup(t)

	tx := record(t, svc, uuid.New(), "TX-1")
	assert.Equal(t, model.PaymentStatusPending, tx.Status)
	assert.Nil(t, tx.CompletedAt)
}

func TestRecordDuplicateTransactionID(t *testing.T) {
	svc, _ := setup(t)
	userID := uuid.New()
	record(t, svc, userID, "TX-1")

	_, err := svc.Record(context.Background(), userID, &model.RecordPaymentRequest{
		Amount:        1500,
		Currency:      "KES",
		PaymentMethod: model.PaymentMethodMpesa,
		TransactionID: "TX-1",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	record(t, svc, uuid.New(), "TX-1")

	receipt := "QFX99"
	tx, err := svc.UpdateStatus(ctx, "TX-1", model.PaymentStatusCompleted, &receipt)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)
	require.NotNil(t, tx.MpesaReceiptNumber)
	assert.Equal(t, receipt, *tx.MpesaReceiptNumber)

	tx, err = svc.UpdateStatus(ctx, "TX-1", model.PaymentStatusRefunded, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, tx.Status)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		txID string
		path []string
		to   string
	}{
		{"pending to refunded", "TX-1", nil, model.PaymentStatusRefunded},
		{"failed is terminal", "TX-2", []string{model.PaymentStatusFailed}, model.PaymentStatusCompleted},
		{"refunded is terminal", "TX-3", []string{model.PaymentStatusCompleted, model.PaymentStatusRefunded}, model.PaymentStatusCompleted},
		{"completed twice", "TX-4", []string{model.PaymentStatusCompleted}, model.PaymentStatusCompleted},
		{"no rollback to pending", "TX-5", []string{model.PaymentStatusCompleted}, model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record(t, svc, uuid.New(), tt.txID)
			for _, status := range tt.path {
				_, err := svc.UpdateStatus(ctx, tt.txID, status, nil)
				require.NoError(t, err)
			}

			_, err := svc.UpdateStatus(ctx, tt.txID, tt.to, nil)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrConflict, appErr.Code)
		})
	}
}

func TestUpdateStatusUnknownTransaction(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.UpdateStatus(context.Background(), "TX-MISSING", model.PaymentStatusCompleted, nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHistoryNewestFirstAndBounded(t *testing.T) {
	svc, payments := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	record(t, svc, userID, "TX-1")
	record(t, svc, userID, "TX-2")
	record(t, svc, uuid.New(), "TX-OTHER")

	// Stagger creation times; fakes stamp within the same instant.
	for i, p := range payments.Payments {
		p.CreatedAt = p.CreatedAt.Add(time.Duration(i) * time.Second)
	}

	history, err := svc.History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "TX-2", history[0].TransactionID)
	assert.Equal(t, "TX-1", history[1].TransactionID)

	history, err = svc.History(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
