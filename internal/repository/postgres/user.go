package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, organization_id, email, password_hash, name, phone,
			role, is_active, failed_login_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.OrganizationID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Role,
		user.IsActive,
		user.FailedLoginAttempts,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return wrapError("create user", "user", err)
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, wrapError("get user", "user", err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, wrapError("get user by email", "user", err)
	}

	return &user, nil
}

// RecordLoginSuccess stamps last_login_at and clears the failed-attempt
// counter and any lockout in one write.
func (r *userRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users SET
			last_login_at = $1,
			failed_login_attempts = 0,
			locked_until = NULL,
			updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return wrapError("record login success", "user", err)
	}
	return requireRowsAffected(result, "user")
}

// IncrementFailedAttempts uses the store's atomic increment so the
// counter stays consistent without a read-modify-write round trip.
func (r *userRepository) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapError("increment failed attempts", "user", err)
	}
	return requireRowsAffected(result, "user")
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return wrapError("update password hash", "user", err)
	}
	return requireRowsAffected(result, "user")
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, role, id)
	if err != nil {
		return wrapError("update role", "user", err)
	}
	return requireRowsAffected(result, "user")
}

// Deactivate is the terminal state for a user; rows are never deleted.
func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapError("deactivate user", "user", err)
	}
	return requireRowsAffected(result, "user")
}

func (r *userRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE organization_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, orgID); err != nil {
		return 0, wrapError("count organization members", "organization", err)
	}

	return count, nil
}

func (r *userRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	query := `
		SELECT * FROM users
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, orgID); err != nil {
		return nil, wrapError("list organization members", "organization", err)
	}

	return users, nil
}

func requireRowsAffected(result interface{ RowsAffected() (int64, error) }, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}
