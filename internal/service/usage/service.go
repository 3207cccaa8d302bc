package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	"github.com/emersoneims/oracle-api/internal/service/plan"
	"github.com/emersoneims/oracle-api/internal/service/subscription"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
	"github.com/emersoneims/oracle-api/pkg/logger"
)

type Service struct {
	usage  repository.UsageRepository
	subs   *subscription.Service
	logger *logger.Logger
}

func NewService(usage repository.UsageRepository, subs *subscription.Service, logger *logger.Logger) *Service {
	return &Service{
		usage:  usage,
		subs:   subs,
		logger: logger,
	}
}

// GetUsage returns the counters for the current subscription period,
// creating the zeroed record on first access. When the store is
// unreachable it degrades to a zeroed calendar-month record.
func (s *Service) GetUsage(ctx context.Context, userID uuid.UUID) (*model.UsageRecord, error) {
	record, err := s.usage.GetForPeriod(ctx, userID, time.Now())
	if err == nil {
		return record, nil
	}

	if apperrors.IsUnavailable(err) {
		s.logger.Warn("store unavailable, degrading to zero usage")
		return s.defaultUsage(userID), nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	current, err := s.subs.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, err = s.usage.Upsert(ctx, userID, current.CurrentPeriodStart, current.CurrentPeriodEnd)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			return s.defaultUsage(userID), nil
		}
		return nil, err
	}

	return record, nil
}

// Increment bumps the counter for one unit of consumption. When the
// store is unreachable the call succeeds silently: metering degrades to
// unlimited rather than blocking the feature it gates.
func (s *Service) Increment(ctx context.Context, userID uuid.UUID, kind model.UsageKind) error {
	if !model.ValidUsageKind(kind) {
		return apperrors.Validation(fmt.Sprintf("unknown usage kind %q", kind))
	}

	// Ensure the period record exists before the in-place increment.
	if _, err := s.GetUsage(ctx, userID); err != nil {
		return err
	}

	if err := s.usage.Increment(ctx, userID, kind, time.Now()); err != nil {
		if apperrors.IsUnavailable(err) {
			s.logger.Warn("store unavailable, skipping usage increment")
			return nil
		}
		return err
	}

	return nil
}

// CheckLimit resolves the active plan's ceiling for the given kind.
// The check and a later Increment are deliberately not linked in a
// transaction: quotas here are a billing signal, not a hard resource
// cap, and a slight overshoot under concurrency is acceptable.
func (s *Service) CheckLimit(ctx context.Context, userID uuid.UUID, kind model.UsageKind) (*model.LimitCheck, error) {
	if !model.ValidUsageKind(kind) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown usage kind %q", kind))
	}

	current, err := s.subs.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, ok := plan.Lookup(current.PlanID)
	if !ok {
		p = plan.Free()
	}

	limit := p.LimitFor(kind)
	if limit == model.Unlimited {
		return &model.LimitCheck{Allowed: true, Remaining: model.Unlimited, Limit: model.Unlimited}, nil
	}

	record, err := s.GetUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	used := record.UsedFor(kind)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &model.LimitCheck{
		Allowed:   used < limit,
		Remaining: remaining,
		Limit:     limit,
	}, nil
}

func (s *Service) defaultUsage(userID uuid.UUID) *model.UsageRecord {
	start, end := subscription.CalendarMonth(time.Now())
	return &model.UsageRecord{
		UserID:      userID,
		PeriodStart: start,
		PeriodEnd:   end,
	}
}
