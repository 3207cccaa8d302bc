package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
)

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.PaymentTransaction) error {
	query := `
		INSERT INTO payments (
			id, user_id, subscription_id, amount, currency, payment_method,
			status, transaction_id, mpesa_receipt_number, mpesa_checkout_request_id,
			stripe_payment_intent_id, phone_number, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	if payment.Metadata == nil {
		payment.Metadata = model.JSONMap{}
	}

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.SubscriptionID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.Status,
		payment.TransactionID,
		payment.MpesaReceiptNumber,
		payment.MpesaCheckoutRequestID,
		payment.StripePaymentIntentID,
		payment.PhoneNumber,
		payment.Metadata,
		payment.CreatedAt,
	)
	return wrapError("create payment", "payment", err)
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentTransaction, error) {
	query := `SELECT * FROM payments WHERE transaction_id = $1`

	var payment model.PaymentTransaction
	if err := r.db.GetContext(ctx, &payment, query, transactionID); err != nil {
		return nil, wrapError("get payment", "payment", err)
	}

	return &payment, nil
}

// TransitionStatus moves a payment from one status to another as a
// single conditional write; the WHERE clause on the prior status keeps
// the transition table monotonic under concurrent callbacks. Returns
// false when the row was not in the expected prior status.
func (r *paymentRepository) TransitionStatus(ctx context.Context, transactionID, from, to string, receiptRef *string) (bool, error) {
	query := `
		UPDATE payments SET
			status = $1,
			mpesa_receipt_number = COALESCE($2, mpesa_receipt_number),
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE transaction_id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, to, receiptRef, transactionID, from)
	if err != nil {
		return false, wrapError("transition payment status", "payment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, wrapError("transition payment status", "payment", err)
	}
	return rows > 0, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PaymentTransaction, error) {
	query := `
		SELECT * FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var payments []*model.PaymentTransaction
	if err := r.db.SelectContext(ctx, &payments, query, userID, limit); err != nil {
		return nil, wrapError("list payments", "payment", err)
	}

	return payments, nil
}
