package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/repository"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	query := `
		INSERT INTO organizations (id, name, seat_limit, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	org.ID = uuid.New()
	org.CreatedAt = time.Now()
	org.UpdatedAt = time.Now()
	if org.Settings == nil {
		org.Settings = model.JSONMap{}
	}

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.SeatLimit,
		org.Settings,
		org.CreatedAt,
		org.UpdatedAt,
	)
	return wrapError("create organization", "organization", err)
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `SELECT * FROM organizations WHERE id = $1`

	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, wrapError("get organization", "organization", err)
	}

	return &org, nil
}
