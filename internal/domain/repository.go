package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CaseRepository persists donation cases.
type CaseRepository interface {
	// UpsertBatch inserts or updates cases keyed by external id and returns
	// the persisted row ids in the same order as the input slice.
	UpsertBatch(ctx context.Context, cases []*Case) ([]string, error)
	GetByID(ctx context.Context, id string) (*Case, error)
	List(ctx context.Context, limit int) ([]Case, error)
	GetCurrentAmount(ctx context.Context, id string) (decimal.Decimal, error)
	SetCurrentAmount(ctx context.Context, id string, amount decimal.Decimal) error
	// RecomputeFundedAmounts resets every case's current amount to the sum of
	// its approved contributions and reports how many rows changed.
	RecomputeFundedAmounts(ctx context.Context) (int64, error)
}

// ContributionRepository persists contributions.
type ContributionRepository interface {
	CreateBatch(ctx context.Context, contributions []*Contribution) error
	GetByID(ctx context.Context, id string) (*Contribution, error)
	UpdateStatus(ctx context.Context, id string, status ContributionStatus) error
	CountByCase(ctx context.Context, caseID string) (int64, error)
}

// ApprovalStatusRepository persists the approval audit row per contribution.
type ApprovalStatusRepository interface {
	GetByContribution(ctx context.Context, contributionID string) (*ApprovalStatus, error)
	Create(ctx context.Context, status *ApprovalStatus) error
	Update(ctx context.Context, status *ApprovalStatus) error
}

// IdentityProfileRepository links provisioned identities to legacy contributors.
type IdentityProfileRepository interface {
	GetByContributor(ctx context.Context, contributorExternalID int) (*IdentityProfile, error)
	Ensure(ctx context.Context, profile *IdentityProfile) error
}

// NotificationRepository writes notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
}

// AdminRoleRepository resolves the identities holding the admin role.
type AdminRoleRepository interface {
	ListAdminIdentities(ctx context.Context) ([]string, error)
}
