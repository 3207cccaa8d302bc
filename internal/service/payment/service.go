package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
)

// DefaultHistoryLimit bounds payment history reads.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type Service struct {
	payments  repository.PaymentRepository
	publisher messaging.Publisher
	logger    *logger.Logger
}

func NewService(payments repository.PaymentRepository, publisher messaging.Publisher, logger *logger.Logger) *Service {
	return &Service{
		payments:  payments,
		publisher: publisher,
		logger:    logger,
	}
}

// Record inserts a pending transaction. The externally supplied
// transaction id must be unique; a duplicate is a caller error and
// surfaces as a conflict.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req *model.RecordPaymentRequest) (*model.PaymentTransaction, error) {
	payment := &model.PaymentTransaction{
		UserID:                 userID,
		SubscriptionID:         req.SubscriptionID,
		Amount:                 req.Amount,
		Currency:               req.Currency,
		PaymentMethod:          req.PaymentMethod,
		Status:                 model.PaymentStatusPending,
		TransactionID:          req.TransactionID,
		PhoneNumber:            req.PhoneNumber,
		MpesaCheckoutRequestID: req.MpesaCheckoutRequestID,
		Metadata:               req.Metadata,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// UpdateStatus applies one step of the monotonic lifecycle:
// pending -> completed|failed, completed -> refunded. Anything else is
// rejected. Completion stamps completed_at.
func (s *Service) UpdateStatus(ctx context.Context, transactionID, status string, receiptRef *string) (*model.PaymentTransaction, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !model.ValidPaymentTransition(payment.Status, status) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("invalid payment status transition %s -> %s", payment.Status, status), nil)
	}

	applied, err := s.payments.TransitionStatus(ctx, transactionID, payment.Status, status, receiptRef)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent callback won the transition.
		return nil, apperrors.Conflict(
			fmt.Sprintf("payment %s already transitioned", transactionID), nil)
	}

	updated, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, "payment."+status, updated); err != nil {
		s.logger.Error(err, "failed to publish payment event")
	}

	return updated, nil
}

// History returns the user's transactions, newest first. Read-only.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	return s.payments.ListByUser(ctx, userID, limit)
}
