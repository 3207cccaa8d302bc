package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
)

type sessionRepository struct {
	BaseRepository
}

func NewSessionRepository(base BaseRepository) repository.SessionRepository {
	return &sessionRepository{base}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, session_token, device_fingerprint,
			ip_address, user_agent, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	session.ID = uuid.New()
	session.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.DeviceFingerprint,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return wrapError("create session", "session", err)
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	query := `SELECT * FROM sessions WHERE session_token = $1`

	var session model.Session
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		return nil, wrapError("get session", "session", err)
	}

	return &session, nil
}

// DeleteByToken is idempotent; revoking an absent token is not an error.
func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE session_token = $1`

	_, err := r.db.ExecContext(ctx, query, token)
	return wrapError("delete session", "session", err)
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	return wrapError("delete user sessions", "session", err)
}

// DeleteExpired reclaims storage for sessions past their expiry. Expiry
// itself is enforced lazily at validation time; this is maintenance
// only and is never required for correctness.
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, wrapError("delete expired sessions", "session", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, wrapError("delete expired sessions", "session", err)
	}
	return rows, nil
}
