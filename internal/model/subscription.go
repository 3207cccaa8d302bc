package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription status constants
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusPastDue   = "past_due"
)

// FreePlanID is the implicit plan used when no subscription row exists.
const FreePlanID = "free"

// Subscription is a persisted per-user subscription record
type Subscription struct {
	Base
	UserID               uuid.UUID `json:"user_id" db:"user_id"`
	PlanID               string    `json:"plan_id" db:"plan_id"`
	Status               string    `json:"status" db:"status"`
	CurrentPeriodStart   time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end" db:"current_period_end"`
	CancelAtPeriodEnd    bool      `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	StripeSubscriptionID *string   `json:"stripe_subscription_id,omitempty" db:"stripe_subscription_id"`
	StripeCustomerID     *string   `json:"stripe_customer_id,omitempty" db:"stripe_customer_id"`
	MpesaReceiptNumber   *string   `json:"mpesa_receipt_number,omitempty" db:"mpesa_receipt_number"`
}

// PeriodElapsed reports whether the subscription period has ended at now.
func (s *Subscription) PeriodElapsed(now time.Time) bool {
	return s.CurrentPeriodEnd.Before(now)
}

// CurrentSubscription is the answer to "what plan governs this user
// right now". Absence of a persisted row is a valid state: the user is
// on the implicit free plan anchored to the calendar month, and
// Implicit is set so callers cannot mistake it for missing data.
type CurrentSubscription struct {
	Subscription
	Implicit bool `json:"implicit"`
}

// PaymentRefs carries optional external processor references attached
// to a new subscription
type PaymentRefs struct {
	StripeSubscriptionID *string `json:"stripe_subscription_id"`
	StripeCustomerID     *string `json:"stripe_customer_id"`
	MpesaReceiptNumber   *string `json:"mpesa_receipt_number"`
}

// CreateSubscriptionRequest represents subscription purchase parameters
type CreateSubscriptionRequest struct {
	PlanID      string       `json:"plan_id" binding:"required"`
	PaymentRefs *PaymentRefs `json:"payment_refs"`
}

// UsageKind identifies a metered consumption counter
type UsageKind string

// Usage kinds
const (
	UsageDiagnosis   UsageKind = "diagnosis"
	UsageAIDiagnosis UsageKind = "ai_diagnosis"
	UsageReport      UsageKind = "report"
)

// ValidUsageKind reports whether kind names a known counter.
func ValidUsageKind(kind UsageKind) bool {
	switch kind {
	case UsageDiagnosis, UsageAIDiagnosis, UsageReport:
		return true
	}
	return false
}

// UsageRecord holds per-user counters for one subscription period
type UsageRecord struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	PeriodStart      time.Time `json:"period_start" db:"period_start"`
	PeriodEnd        time.Time `json:"period_end" db:"period_end"`
	DiagnosesUsed    int64     `json:"diagnoses_used" db:"diagnoses_used"`
	AIDiagnosesUsed  int64     `json:"ai_diagnoses_used" db:"ai_diagnoses_used"`
	ReportsGenerated int64     `json:"reports_generated" db:"reports_generated"`
}

// UsedFor returns the counter matching the given usage kind.
func (u *UsageRecord) UsedFor(kind UsageKind) int64 {
	switch kind {
	case UsageDiagnosis:
		return u.DiagnosesUsed
	case UsageAIDiagnosis:
		return u.AIDiagnosesUsed
	case UsageReport:
		return u.ReportsGenerated
	default:
		return 0
	}
}

// LimitCheck is the result of a quota check
type LimitCheck struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	Limit     int64 `json:"limit"`
}
