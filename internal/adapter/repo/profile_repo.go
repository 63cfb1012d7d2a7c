package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ataa/internal/domain"
)

// IdentityProfileRepositoryPG implements IdentityProfileRepository using PostgreSQL.
type IdentityProfileRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewIdentityProfileRepository creates a new identity profile repo.
func NewIdentityProfileRepository(pool *pgxpool.Pool) *IdentityProfileRepositoryPG {
	return &IdentityProfileRepositoryPG{pool: pool}
}

// GetByContributor resolves the profile for a legacy contributor id.
func (r *IdentityProfileRepositoryPG) GetByContributor(ctx context.Context, contributorExternalID int) (*domain.IdentityProfile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT identity_ref, contributor_external_id, display_name
FROM identity_profiles
WHERE contributor_external_id = $1;
`, contributorExternalID)

	var p domain.IdentityProfile
	err := row.Scan(&p.IdentityRef, &p.ContributorExternalID, &p.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure upserts the profile row; safe to call again after a partial failure.
func (r *IdentityProfileRepositoryPG) Ensure(ctx context.Context, p *domain.IdentityProfile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO identity_profiles (identity_ref, contributor_external_id, display_name)
VALUES ($1, $2, $3)
ON CONFLICT (identity_ref) DO UPDATE
SET display_name = EXCLUDED.display_name;
`, p.IdentityRef, p.ContributorExternalID, p.DisplayName)
	return err
}
