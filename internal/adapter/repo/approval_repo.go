package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ataa/internal/domain"
)

// ApprovalStatusRepositoryPG implements ApprovalStatusRepository using PostgreSQL.
type ApprovalStatusRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewApprovalStatusRepository creates a new approval status repo.
func NewApprovalStatusRepository(pool *pgxpool.Pool) *ApprovalStatusRepositoryPG {
	return &ApprovalStatusRepositoryPG{pool: pool}
}

// GetByContribution loads the approval audit row for a contribution.
func (r *ApprovalStatusRepositoryPG) GetByContribution(ctx context.Context, contributionID string) (*domain.ApprovalStatus, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, contribution_id, status, rejection_reason, admin_comment, donor_reply,
       payment_proof_url, resubmission_count, admin_id, donor_replied_at, created_at, updated_at
FROM contribution_approval_statuses
WHERE contribution_id = $1;
`, contributionID)

	var (
		s      domain.ApprovalStatus
		status string
	)
	err := row.Scan(&s.ID, &s.ContributionID, &status, &s.RejectionReason, &s.AdminComment,
		&s.DonorReply, &s.PaymentProofURL, &s.ResubmissionCount, &s.AdminID,
		&s.DonorRepliedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = domain.ContributionStatus(status)
	return &s, nil
}

// Create inserts the first approval row for a contribution.
func (r *ApprovalStatusRepositoryPG) Create(ctx context.Context, s *domain.ApprovalStatus) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO contribution_approval_statuses
    (id, contribution_id, status, rejection_reason, admin_comment, donor_reply,
     payment_proof_url, resubmission_count, admin_id, donor_replied_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`, s.ID, s.ContributionID, string(s.Status), s.RejectionReason, s.AdminComment,
		s.DonorReply, s.PaymentProofURL, s.ResubmissionCount, s.AdminID, s.DonorRepliedAt)
	return err
}

// Update rewrites the approval row in place; the row itself is never deleted.
func (r *ApprovalStatusRepositoryPG) Update(ctx context.Context, s *domain.ApprovalStatus) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE contribution_approval_statuses
SET status = $2,
    rejection_reason = $3,
    admin_comment = $4,
    donor_reply = $5,
    payment_proof_url = $6,
    resubmission_count = $7,
    admin_id = $8,
    donor_replied_at = $9,
    updated_at = now()
WHERE id = $1;
`, s.ID, string(s.Status), s.RejectionReason, s.AdminComment, s.DonorReply,
		s.PaymentProofURL, s.ResubmissionCount, s.AdminID, s.DonorRepliedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
