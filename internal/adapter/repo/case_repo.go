package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ataa/internal/domain"
)

// CaseRepositoryPG implements CaseRepository using PostgreSQL.
type CaseRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a new case repo.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepositoryPG {
	return &CaseRepositoryPG{pool: pool}
}

// UpsertBatch inserts or refreshes each case keyed by its external id and
// returns row ids in input order. Single-row statements keep the id ordering
// trivially aligned with the input.
func (r *CaseRepositoryPG) UpsertBatch(ctx context.Context, cases []*domain.Case) ([]string, error) {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		row := r.pool.QueryRow(ctx, `
INSERT INTO cases (id, external_id, title, category, target_amount, current_amount, first_contributed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (external_id) DO UPDATE
SET title = EXCLUDED.title,
    category = EXCLUDED.category,
    target_amount = EXCLUDED.target_amount,
    first_contributed_at = EXCLUDED.first_contributed_at
RETURNING id;
`, id, c.ExternalID, c.Title, c.Category, c.TargetAmount.String(), c.CurrentAmount.String(), c.FirstContributedAt)
		var returned string
		if err := row.Scan(&returned); err != nil {
			return nil, fmt.Errorf("upsert case %s: %w", c.ExternalID, err)
		}
		ids = append(ids, returned)
	}
	return ids, nil
}

// GetByID loads one case.
func (r *CaseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, external_id, title, category, target_amount::text, current_amount::text, first_contributed_at, created_at
FROM cases
WHERE id = $1;
`, id)
	return scanCase(row)
}

// List returns cases ordered by creation time, newest first.
func (r *CaseRepositoryPG) List(ctx context.Context, limit int) ([]domain.Case, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, external_id, title, category, target_amount::text, current_amount::text, first_contributed_at, created_at
FROM cases
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetCurrentAmount reads the funded amount for one case.
func (r *CaseRepositoryPG) GetCurrentAmount(ctx context.Context, id string) (decimal.Decimal, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `SELECT current_amount::text FROM cases WHERE id = $1;`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, domain.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// SetCurrentAmount writes the funded amount for one case.
func (r *CaseRepositoryPG) SetCurrentAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cases SET current_amount = $2 WHERE id = $1;`, id, amount.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecomputeFundedAmounts resets every case's funded amount to the sum of its
// approved contributions and reports how many rows drifted.
func (r *CaseRepositoryPG) RecomputeFundedAmounts(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE cases c
SET current_amount = sub.total
FROM (
    SELECT c2.id, COALESCE(SUM(ct.amount) FILTER (WHERE ct.status = 'approved'), 0) AS total
    FROM cases c2
    LEFT JOIN contributions ct ON ct.case_id = c2.id
    GROUP BY c2.id
) sub
WHERE sub.id = c.id
  AND c.current_amount IS DISTINCT FROM sub.total;
`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var (
		c                  domain.Case
		target, current    string
		firstContributedAt *time.Time
	)
	err := row.Scan(&c.ID, &c.ExternalID, &c.Title, &c.Category, &target, &current, &firstContributedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("parse target amount: %w", err)
	}
	if c.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("parse current amount: %w", err)
	}
	c.FirstContributedAt = firstContributedAt
	return &c, nil
}
