// Package repositorytest provides in-memory repository implementations
// for service tests. Each fake mirrors the error classification of the
// postgres layer and can simulate an unreachable store via Down.
package repositorytest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

var errDown = errors.New("store down")

type FakeUserRepository struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*model.User
	Down  bool
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{Users: make(map[uuid.UUID]*model.User)}
}

func (r *FakeUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for _, u := range r.Users {
		if u.Email == user.Email {
			return apperrors.Conflict("user already exists", nil)
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.Users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	u, ok := r.Users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	clone := *u
	return &clone, nil
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	for _, u := range r.Users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *FakeUserRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(id, func(u *model.User) {
		u.LastLoginAt = &at
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	})
}

func (r *FakeUserRepository) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(u *model.User) {
		u.FailedLoginAttempts++
	})
}

func (r *FakeUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(id, func(u *model.User) {
		u.PasswordHash = hash
	})
}

func (r *FakeUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.update(id, func(u *model.User) {
		u.Role = role
	})
}

func (r *FakeUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(u *model.User) {
		u.IsActive = false
	})
}

func (r *FakeUserRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return 0, apperrors.Unavailable(errDown)
	}
	count := 0
	for _, u := range r.Users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

func (r *FakeUserRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	var out []*model.User
	for _, u := range r.Users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FakeUserRepository) update(id uuid.UUID, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	u, ok := r.Users[id]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

type FakeOrganizationRepository struct {
	mu   sync.Mutex
	Orgs map[uuid.UUID]*model.Organization
	Down bool
}

func NewFakeOrganizationRepository() *FakeOrganizationRepository {
	return &FakeOrganizationRepository{Orgs: make(map[uuid.UUID]*model.Organization)}
}

func (r *FakeOrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	org.ID = uuid.New()
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	clone := *org
	r.Orgs[org.ID] = &clone
	return nil
}

func (r *FakeOrganizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	org, ok := r.Orgs[id]
	if !ok {
		return nil, apperrors.NotFound("organization", nil)
	}
	clone := *org
	return &clone, nil
}

type FakeSessionRepository struct {
	mu       sync.Mutex
	Sessions map[string]*model.Session
	Down     bool
}

func NewFakeSessionRepository() *FakeSessionRepository {
	return &FakeSessionRepository{Sessions: make(map[string]*model.Session)}
}

func (r *FakeSessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	clone := *session
	r.Sessions[session.Token] = &clone
	return nil
}

func (r *FakeSessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	s, ok := r.Sessions[token]
	if !ok {
		return nil, apperrors.NotFound("session", nil)
	}
	clone := *s
	return &clone, nil
}

func (r *FakeSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	delete(r.Sessions, token)
	return nil
}

func (r *FakeSessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for token, s := range r.Sessions {
		if s.UserID == userID {
			delete(r.Sessions, token)
		}
	}
	return nil
}

func (r *FakeSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return 0, apperrors.Unavailable(errDown)
	}
	var n int64
	for token, s := range r.Sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.Sessions, token)
			n++
		}
	}
	return n, nil
}

func (r *FakeSessionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Sessions)
}

type FakeLoginAttemptRepository struct {
	mu       sync.Mutex
	Attempts []*model.LoginAttempt
	Down     bool
}

func NewFakeLoginAttemptRepository() *FakeLoginAttemptRepository {
	return &FakeLoginAttemptRepository{}
}

func (r *FakeLoginAttemptRepository) Create(ctx context.Context, attempt *model.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	attempt.ID = uuid.New()
	attempt.CreatedAt = time.Now()
	clone := *attempt
	r.Attempts = append(r.Attempts, &clone)
	return nil
}

func (r *FakeLoginAttemptRepository) CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return 0, apperrors.Unavailable(errDown)
	}
	count := 0
	for _, a := range r.Attempts {
		if a.Email == email && !a.Success && a.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

type FakeSubscriptionRepository struct {
	mu   sync.Mutex
	Subs []*model.Subscription
	Down bool
}

func NewFakeSubscriptionRepository() *FakeSubscriptionRepository {
	return &FakeSubscriptionRepository{}
}

func (r *FakeSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	clone := *sub
	r.Subs = append(r.Subs, &clone)
	return nil
}

func (r *FakeSubscriptionRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	var latest *model.Subscription
	for _, s := range r.Subs {
		if s.UserID != userID {
			continue
		}
		if s.Status != model.SubscriptionStatusActive && s.Status != model.SubscriptionStatusPastDue {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound("subscription", nil)
	}
	clone := *latest
	return &clone, nil
}

func (r *FakeSubscriptionRepository) CancelActive(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for _, s := range r.Subs {
		if s.UserID == userID && (s.Status == model.SubscriptionStatusActive || s.Status == model.SubscriptionStatusPastDue) {
			s.Status = model.SubscriptionStatusCancelled
		}
	}
	return nil
}

func (r *FakeSubscriptionRepository) MarkCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for _, s := range r.Subs {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			s.CancelAtPeriodEnd = true
		}
	}
	return nil
}

func (r *FakeSubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for _, s := range r.Subs {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return apperrors.NotFound("subscription", nil)
}

type FakeUsageRepository struct {
	mu      sync.Mutex
	Records []*model.UsageRecord
	Down    bool
}

func NewFakeUsageRepository() *FakeUsageRepository {
	return &FakeUsageRepository{}
}

func (r *FakeUsageRepository) GetForPeriod(ctx context.Context, userID uuid.UUID, at time.Time) (*model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	rec := r.find(userID, at)
	if rec == nil {
		return nil, apperrors.NotFound("usage record", nil)
	}
	clone := *rec
	return &clone, nil
}

func (r *FakeUsageRepository) Upsert(ctx context.Context, userID uuid.UUID, periodStart, periodEnd time.Time) (*model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	for _, rec := range r.Records {
		if rec.UserID == userID && rec.PeriodStart.Equal(periodStart) {
			rec.PeriodEnd = periodEnd
			clone := *rec
			return &clone, nil
		}
	}
	rec := &model.UsageRecord{
		ID:          uuid.New(),
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	r.Records = append(r.Records, rec)
	clone := *rec
	return &clone, nil
}

func (r *FakeUsageRepository) Increment(ctx context.Context, userID uuid.UUID, kind model.UsageKind, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	rec := r.find(userID, at)
	if rec == nil {
		return nil
	}
	switch kind {
	case model.UsageDiagnosis:
		rec.DiagnosesUsed++
	case model.UsageAIDiagnosis:
		rec.AIDiagnosesUsed++
	case model.UsageReport:
		rec.ReportsGenerated++
	}
	return nil
}

func (r *FakeUsageRepository) find(userID uuid.UUID, at time.Time) *model.UsageRecord {
	for _, rec := range r.Records {
		if rec.UserID == userID && !rec.PeriodStart.After(at) && rec.PeriodEnd.After(at) {
			return rec
		}
	}
	return nil
}

type FakePaymentRepository struct {
	mu       sync.Mutex
	Payments []*model.PaymentTransaction
	Down     bool
}

func NewFakePaymentRepository() *FakePaymentRepository {
	return &FakePaymentRepository{}
}

func (r *FakePaymentRepository) Create(ctx context.Context, payment *model.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return apperrors.Unavailable(errDown)
	}
	for _, p := range r.Payments {
		if p.TransactionID == payment.TransactionID {
			return apperrors.Conflict("payment already exists", nil)
		}
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	clone := *payment
	r.Payments = append(r.Payments, &clone)
	return nil
}

func (r *FakePaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	for _, p := range r.Payments {
		if p.TransactionID == transactionID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("payment", nil)
}

func (r *FakePaymentRepository) TransitionStatus(ctx context.Context, transactionID, from, to string, receiptRef *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return false, apperrors.Unavailable(errDown)
	}
	for _, p := range r.Payments {
		if p.TransactionID != transactionID || p.Status != from {
			continue
		}
		p.Status = to
		if receiptRef != nil {
			p.MpesaReceiptNumber = receiptRef
		}
		if to == model.PaymentStatusCompleted {
			now := time.Now()
			p.CompletedAt = &now
		}
		return true, nil
	}
	return false, nil
}

func (r *FakePaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Down {
		return nil, apperrors.Unavailable(errDown)
	}
	var out []*model.PaymentTransaction
	for _, p := range r.Payments {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
