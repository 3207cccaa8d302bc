package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment method constants
const (
	PaymentMethodMpesa  = "mpesa"
	PaymentMethodStripe = "stripe"
	PaymentMethodPaypal = "paypal"
)

// ValidPaymentTransition encodes the monotonic status table:
// pending -> completed | failed, completed -> refunded.
func ValidPaymentTransition(from, to string) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunded
	default:
		return false
	}
}

// PaymentTransaction is an append-mostly payment bookkeeping record
type PaymentTransaction struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	UserID                 uuid.UUID  `json:"user_id" db:"user_id"`
	SubscriptionID         *uuid.UUID `json:"subscription_id,omitempty" db:"subscription_id"`
	Amount                 float64    `json:"amount" db:"amount"`
	Currency               string     `json:"currency" db:"currency"`
	PaymentMethod          string     `json:"payment_method" db:"payment_method"`
	Status                 string     `json:"status" db:"status"`
	TransactionID          string     `json:"transaction_id" db:"transaction_id"`
	MpesaReceiptNumber     *string    `json:"mpesa_receipt_number,omitempty" db:"mpesa_receipt_number"`
	MpesaCheckoutRequestID *string    `json:"mpesa_checkout_request_id,omitempty" db:"mpesa_checkout_request_id"`
	StripePaymentIntentID  *string    `json:"stripe_payment_intent_id,omitempty" db:"stripe_payment_intent_id"`
	PhoneNumber            *string    `json:"phone_number,omitempty" db:"phone_number"`
	Metadata               JSONMap    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	CompletedAt            *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RecordPaymentRequest represents payment record parameters
type RecordPaymentRequest struct {
	SubscriptionID         *uuid.UUID `json:"subscription_id"`
	Amount                 float64    `json:"amount" binding:"required,gt=0"`
	Currency               string     `json:"currency" binding:"required,oneof=KES USD"`
	PaymentMethod          string     `json:"payment_method" binding:"required,oneof=mpesa stripe paypal"`
	TransactionID          string     `json:"transaction_id" binding:"required"`
	PhoneNumber            *string    `json:"phone_number"`
	MpesaCheckoutRequestID *string    `json:"mpesa_checkout_request_id"`
	Metadata               JSONMap    `json:"metadata"`
}

// UpdatePaymentStatusRequest represents a payment callback status update
type UpdatePaymentStatusRequest struct {
	Status     string  `json:"status" binding:"required,oneof=completed failed refunded"`
	ReceiptRef *string `json:"receipt_ref"`
}
