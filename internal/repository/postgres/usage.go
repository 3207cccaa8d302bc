package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

type usageRepository struct {
	BaseRepository
}

func NewUsageRepository(base BaseRepository) repository.UsageRepository {
	return &usageRepository{base}
}

func (r *usageRepository) GetForPeriod(ctx context.Context, userID uuid.UUID, at time.Time) (*model.UsageRecord, error) {
	query := `
		SELECT * FROM usage_records
		WHERE user_id = $1 AND period_start <= $2 AND period_end > $2
	`

	var record model.UsageRecord
	if err := r.db.GetContext(ctx, &record, query, userID, at); err != nil {
		return nil, wrapError("get usage record", "usage record", err)
	}

	return &record, nil
}

// Upsert creates the zeroed record for a period, keyed on
// (user_id, period_start) so concurrent callers cannot create duplicate
// period rows.
func (r *usageRepository) Upsert(ctx context.Context, userID uuid.UUID, periodStart, periodEnd time.Time) (*model.UsageRecord, error) {
	query := `
		INSERT INTO usage_records (id, user_id, period_start, period_end)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end
		RETURNING *
	`

	var record model.UsageRecord
	if err := r.db.GetContext(ctx, &record, query, uuid.New(), userID, periodStart, periodEnd); err != nil {
		return nil, wrapError("upsert usage record", "usage record", err)
	}

	return &record, nil
}

// Increment bumps a single counter with the store's native atomic
// increment. The surrounding check-then-consume flow stays a soft
// limit; only the increment itself is atomic.
func (r *usageRepository) Increment(ctx context.Context, userID uuid.UUID, kind model.UsageKind, at time.Time) error {
	column, err := usageColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE usage_records SET %s = %s + 1
		WHERE user_id = $1 AND period_start <= $2 AND period_end > $2
	`, column, column)

	_, err = r.db.ExecContext(ctx, query, userID, at)
	return wrapError("increment usage", "usage record", err)
}

func usageColumn(kind model.UsageKind) (string, error) {
	switch kind {
	case model.UsageDiagnosis:
		return "diagnoses_used", nil
	case model.UsageAIDiagnosis:
		return "ai_diagnoses_used", nil
	case model.UsageReport:
		return "reports_generated", nil
	default:
		return "", apperrors.Validation(fmt.Sprintf("unknown usage kind %q", kind))
	}
}
