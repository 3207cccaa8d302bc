package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
)

type subscriptionRepository struct {
	BaseRepository
}

func NewSubscriptionRepository(base BaseRepository) repository.SubscriptionRepository {
	return &subscriptionRepository{base}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, status, current_period_start,
			current_period_end, cancel_at_period_end, stripe_subscription_id,
			stripe_customer_id, mpesa_receipt_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.StripeSubscriptionID,
		sub.StripeCustomerID,
		sub.MpesaReceiptNumber,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return wrapError("create subscription", "subscription", err)
}

// GetCurrent returns the latest row still in a live status. Absence is
// reported as NotFound and resolved by the service into the implicit
// free plan.
func (r *subscriptionRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'past_due')
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sub model.Subscription
	if err := r.db.GetContext(ctx, &sub, query, userID); err != nil {
		return nil, wrapError("get current subscription", "subscription", err)
	}

	return &sub, nil
}

// CancelActive retires any live subscription so the at-most-one-live
// invariant holds before a new row is inserted. Zero rows affected is
// fine: the user may be on the implicit free plan.
func (r *subscriptionRepository) CancelActive(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE subscriptions SET status = 'cancelled', updated_at = NOW()
		WHERE user_id = $1 AND status IN ('active', 'past_due')
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	return wrapError("cancel active subscription", "subscription", err)
}

func (r *subscriptionRepository) MarkCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE subscriptions SET cancel_at_period_end = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND status = 'active'
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	return wrapError("mark cancel at period end", "subscription", err)
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return wrapError("update subscription status", "subscription", err)
	}
	return requireRowsAffected(result, "subscription")
}
