package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ataa/internal/domain"
	"ataa/internal/infra"
)

// Decision is one admin action against a contribution.
type Decision struct {
	Status          domain.ContributionStatus
	RejectionReason string
	AdminComment    string
	DonorReply      string
	PaymentProofURL string
	AdminID         string
}

// Result is the authoritative outcome of a decision: the contribution and its
// approval audit row after the transition.
type Result struct {
	Contribution *domain.Contribution
	Approval     *domain.ApprovalStatus
}

// Reconciler applies admin decisions to contributions and keeps the owning
// case's funded amount in step with the set of approved contributions.
type Reconciler struct {
	cases         domain.CaseRepository
	contributions domain.ContributionRepository
	approvals     domain.ApprovalStatusRepository
	logger        infra.Logger
	now           func() time.Time
}

// NewReconciler wires the reconciler's repositories.
func NewReconciler(cases domain.CaseRepository, contributions domain.ContributionRepository, approvals domain.ApprovalStatusRepository, logger infra.Logger) *Reconciler {
	return &Reconciler{
		cases:         cases,
		contributions: contributions,
		approvals:     approvals,
		logger:        logger,
		now:           time.Now,
	}
}

// Apply transitions one contribution. The approval row and contribution
// status are authoritative; a failure syncing the case amount is logged and
// left to the resync job rather than failing the decision.
func (r *Reconciler) Apply(ctx context.Context, contributionID string, decision Decision) (*Result, error) {
	if !decision.Status.Valid() || decision.Status == domain.StatusPending {
		return nil, fmt.Errorf("%w: cannot transition to %q", domain.ErrInvalidTransition, decision.Status)
	}

	contribution, err := r.contributions.GetByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}

	current, err := r.approvals.GetByContribution(ctx, contributionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// Contributions imported before any admin decision carry their status on
	// the row itself; that is the previous state when no audit row exists.
	previous := contribution.Status
	if current != nil {
		previous = current.Status
	}
	if previous == domain.StatusPending && decision.Status == domain.StatusAcknowledged {
		return nil, fmt.Errorf("%w: pending contribution cannot be acknowledged", domain.ErrInvalidTransition)
	}

	updated, err := r.writeApproval(ctx, contributionID, current, decision)
	if err != nil {
		return nil, err
	}

	if err := r.contributions.UpdateStatus(ctx, contributionID, decision.Status); err != nil {
		return nil, fmt.Errorf("update contribution status: %w", err)
	}
	contribution.Status = decision.Status

	r.syncCaseAmount(ctx, contribution, previous, decision.Status)

	return &Result{Contribution: contribution, Approval: updated}, nil
}

// writeApproval creates or updates the audit row for the decision.
func (r *Reconciler) writeApproval(ctx context.Context, contributionID string, current *domain.ApprovalStatus, decision Decision) (*domain.ApprovalStatus, error) {
	if current == nil {
		current = &domain.ApprovalStatus{ContributionID: contributionID}
	}

	current.Status = decision.Status
	current.AdminID = decision.AdminID
	if decision.AdminComment != "" {
		current.AdminComment = decision.AdminComment
	}
	if decision.PaymentProofURL != "" {
		current.PaymentProofURL = decision.PaymentProofURL
	}
	switch decision.Status {
	case domain.StatusRejected:
		current.RejectionReason = decision.RejectionReason
		current.ResubmissionCount++
	case domain.StatusAcknowledged:
		current.DonorReply = decision.DonorReply
		repliedAt := r.now()
		current.DonorRepliedAt = &repliedAt
	}

	var err error
	if current.ID == "" {
		err = r.approvals.Create(ctx, current)
	} else {
		err = r.approvals.Update(ctx, current)
	}
	if err != nil {
		return nil, fmt.Errorf("write approval status: %w", err)
	}
	return current, nil
}

// syncCaseAmount applies the delta rule that keeps oscillating decisions from
// double counting: entering approved from a non-approved state adds the
// amount, entering rejected from approved subtracts it (floored at zero), any
// other transition leaves the amount alone.
func (r *Reconciler) syncCaseAmount(ctx context.Context, contribution *domain.Contribution, previous, next domain.ContributionStatus) {
	var delta decimal.Decimal
	switch {
	case next == domain.StatusApproved && previous != domain.StatusApproved:
		delta = contribution.Amount
	case next == domain.StatusRejected && previous == domain.StatusApproved:
		delta = contribution.Amount.Neg()
	default:
		return
	}

	amount, err := r.cases.GetCurrentAmount(ctx, contribution.CaseID)
	if err != nil {
		r.logReconciliationFailure(err, contribution)
		return
	}
	updated := amount.Add(delta)
	if updated.IsNegative() {
		updated = decimal.Zero
	}
	if err := r.cases.SetCurrentAmount(ctx, contribution.CaseID, updated); err != nil {
		r.logReconciliationFailure(err, contribution)
	}
}

func (r *Reconciler) logReconciliationFailure(err error, contribution *domain.Contribution) {
	r.logger.Error().Err(err).
		Str("case_id", contribution.CaseID).
		Str("contribution_id", contribution.ID).
		Msg("approval: funded amount sync failed; resync job will correct it")
}

// Resync recomputes every case's funded amount from its approved
// contributions. The inline delta in Apply is a fast path; this is the source
// of truth.
func (r *Reconciler) Resync(ctx context.Context) (int64, error) {
	corrected, err := r.cases.RecomputeFundedAmounts(ctx)
	if err != nil {
		return 0, err
	}
	if corrected > 0 {
		r.logger.Warn().Int64("cases_corrected", corrected).Msg("approval: funded amounts drifted and were recomputed")
	}
	return corrected, nil
}
