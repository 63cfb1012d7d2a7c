package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ataa/internal/domain"
)

// ContributionRepositoryPG implements ContributionRepository using PostgreSQL.
type ContributionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewContributionRepository creates a new contribution repo.
func NewContributionRepository(pool *pgxpool.Pool) *ContributionRepositoryPG {
	return &ContributionRepositoryPG{pool: pool}
}

// CreateBatch inserts the given contributions in one round trip. The batch
// either fully succeeds or reports the first failure; callers chunk and
// continue past failed chunks.
func (r *ContributionRepositoryPG) CreateBatch(ctx context.Context, contributions []*domain.Contribution) error {
	batch := &pgx.Batch{}
	for _, c := range contributions {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(`
INSERT INTO contributions (id, case_id, donor_identity, amount, status, contributed_at)
VALUES ($1, $2, $3, $4, $5, $6);
`, id, c.CaseID, c.DonorIdentity, c.Amount.String(), string(c.Status), c.ContributedAt)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range contributions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert contribution batch: %w", err)
		}
	}
	return nil
}

// GetByID loads one contribution.
func (r *ContributionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Contribution, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, case_id, donor_identity, amount::text, status, contributed_at, created_at, updated_at
FROM contributions
WHERE id = $1;
`, id)

	var (
		c      domain.Contribution
		amount string
		status string
	)
	err := row.Scan(&c.ID, &c.CaseID, &c.DonorIdentity, &amount, &status, &c.ContributedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse contribution amount: %w", err)
	}
	c.Status = domain.ContributionStatus(status)
	return &c, nil
}

// UpdateStatus sets a contribution's lifecycle status.
func (r *ContributionRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.ContributionStatus) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE contributions SET status = $2, updated_at = now() WHERE id = $1;
`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByCase returns how many contributions a case already has; the importer
// uses it to keep re-runs from duplicating historical rows.
func (r *ContributionRepositoryPG) CountByCase(ctx context.Context, caseID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contributions WHERE case_id = $1;`, caseID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
