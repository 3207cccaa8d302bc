package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	"github.com/emersoneims/oracle-api/internal/service/plan"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
)

type Service struct {
	subs      repository.SubscriptionRepository
	usage     repository.UsageRepository
	publisher messaging.Publisher
	logger    *logger.Logger
}

func NewService(subs repository.SubscriptionRepository, usage repository.UsageRepository,
	publisher messaging.Publisher, logger *logger.Logger) *Service {
	return &Service{
		subs:      subs,
		usage:     usage,
		publisher: publisher,
		logger:    logger,
	}
}

// GetCurrent returns the subscription governing the user right now.
// No persisted row, an elapsed period and an unreachable store all
// resolve to the implicit free plan anchored to the calendar month;
// absence of a row is a valid state, not an error.
func (s *Service) GetCurrent(ctx context.Context, userID uuid.UUID) (*model.CurrentSubscription, error) {
	sub, err := s.subs.GetCurrent(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return s.implicitFree(userID), nil
		}
		if apperrors.IsUnavailable(err) {
			s.logger.Warn("store unavailable, degrading to free plan")
			return s.implicitFree(userID), nil
		}
		return nil, err
	}

	// Period rollover is observed lazily here, not by a background
	// sweep.
	if sub.PeriodElapsed(time.Now()) {
		status := model.SubscriptionStatusExpired
		if sub.CancelAtPeriodEnd {
			status = model.SubscriptionStatusCancelled
		}
		if err := s.subs.UpdateStatus(ctx, sub.ID, status); err != nil {
			s.logger.Error(err, "failed to retire elapsed subscription")
		}
		return s.implicitFree(userID), nil
	}

	return &model.CurrentSubscription{Subscription: *sub}, nil
}

// Create subscribes the user to a plan. Any currently live subscription
// is retired first so at most one row stays in a live status, then the
// usage counters are reset for the new period.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, planID string, refs *model.PaymentRefs) (*model.Subscription, error) {
	p, ok := plan.Lookup(planID)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unknown plan %q", planID))
	}

	if err := s.subs.CancelActive(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	if p.Interval == model.IntervalYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}

	sub := &model.Subscription{
		UserID:             userID,
		PlanID:             planID,
		Status:             model.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
	}
	if refs != nil {
		sub.StripeSubscriptionID = refs.StripeSubscriptionID
		sub.StripeCustomerID = refs.StripeCustomerID
		sub.MpesaReceiptNumber = refs.MpesaReceiptNumber
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	if _, err := s.usage.Upsert(ctx, userID, now, periodEnd); err != nil {
		s.logger.Error(err, "failed to reset usage for new period")
	}

	if err := s.publisher.Publish(ctx, "subscription.created", sub); err != nil {
		s.logger.Error(err, "failed to publish subscription event")
	}

	return sub, nil
}

// Cancel ends the subscription. Immediate cancellation retires the row
// now; deferred cancellation flags it and lets the period elapse, which
// the next GetCurrent observes.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID, immediate bool) error {
	var err error
	if immediate {
		err = s.subs.CancelActive(ctx, userID)
	} else {
		err = s.subs.MarkCancelAtPeriodEnd(ctx, userID)
	}
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, "subscription.cancelled", map[string]interface{}{
		"user_id":   userID,
		"immediate": immediate,
	}); err != nil {
		s.logger.Error(err, "failed to publish subscription event")
	}

	return nil
}

func (s *Service) implicitFree(userID uuid.UUID) *model.CurrentSubscription {
	start, end := CalendarMonth(time.Now())
	return &model.CurrentSubscription{
		Subscription: model.Subscription{
			UserID:             userID,
			PlanID:             model.FreePlanID,
			Status:             model.SubscriptionStatusActive,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
		},
		Implicit: true,
	}
}

// CalendarMonth returns the month window containing t; the end bound is
// exclusive.
func CalendarMonth(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
