package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
)

type loginAttemptRepository struct {
	BaseRepository
}

func NewLoginAttemptRepository(base BaseRepository) repository.LoginAttemptRepository {
	return &loginAttemptRepository{base}
}

// Create appends a row; the attempt log is never updated or deleted by
// normal flow.
func (r *loginAttemptRepository) Create(ctx context.Context, attempt *model.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (id, email, ip_address, success, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	attempt.ID = uuid.New()
	attempt.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.Email,
		attempt.IPAddress,
		attempt.Success,
		attempt.CreatedAt,
	)
	return wrapError("create login attempt", "login attempt", err)
}

// CountRecentFailures computes the sliding-window failure count that
// drives throttling. There is no stored lock-expiry field: the count
// naturally drops as old attempts age out of the window.
func (r *loginAttemptRepository) CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND success = FALSE AND created_at > $2
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, email, since); err != nil {
		return 0, wrapError("count login failures", "login attempt", err)
	}

	return count, nil
}
