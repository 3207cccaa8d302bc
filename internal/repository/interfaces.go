package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles user identity rows
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
		IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error
		UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
		UpdateRole(ctx context.Context, id uuid.UUID, role string) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error)
		ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error)
	}

	// OrganizationRepository handles tenant rows
	OrganizationRepository interface {
		Create(ctx context.Context, org *model.Organization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	}

	// SessionRepository handles opaque session tokens
	SessionRepository interface {
		Create(ctx context.Context, session *model.Session) error
		GetByToken(ctx context.Context, token string) (*model.Session, error)
		DeleteByToken(ctx context.Context, token string) error
		DeleteByUser(ctx context.Context, userID uuid.UUID) error
		DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	}

	// LoginAttemptRepository is the append-only throttle log
	LoginAttemptRepository interface {
		Create(ctx context.Context, attempt *model.LoginAttempt) error
		CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error)
	}

	// SubscriptionRepository handles per-user subscription rows
	SubscriptionRepository interface {
		Create(ctx context.Context, sub *model.Subscription) error
		GetCurrent(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
		CancelActive(ctx context.Context, userID uuid.UUID) error
		MarkCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	}

	// UsageRepository handles per-period usage counters
	UsageRepository interface {
		GetForPeriod(ctx context.Context, userID uuid.UUID, at time.Time) (*model.UsageRecord, error)
		Upsert(ctx context.Context, userID uuid.UUID, periodStart, periodEnd time.Time) (*model.UsageRecord, error)
		Increment(ctx context.Context, userID uuid.UUID, kind model.UsageKind, at time.Time) error
	}

	// PaymentRepository handles payment transaction bookkeeping
	PaymentRepository interface {
		Create(ctx context.Context, payment *model.PaymentTransaction) error
		GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentTransaction, error)
		TransitionStatus(ctx context.Context, transactionID, from, to string, receiptRef *string) (bool, error)
		ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PaymentTransaction, error)
	}
)
