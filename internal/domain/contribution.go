package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributionStatus is the lifecycle state of a contribution.
type ContributionStatus string

const (
	StatusPending      ContributionStatus = "pending"
	StatusApproved     ContributionStatus = "approved"
	StatusRejected     ContributionStatus = "rejected"
	StatusAcknowledged ContributionStatus = "acknowledged"
)

// Valid reports whether s is one of the known statuses.
func (s ContributionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAcknowledged:
		return true
	}
	return false
}

// Contribution is a single donor payment against a case. DonorIdentity is
// never empty for persisted rows.
type Contribution struct {
	ID            string
	CaseID        string
	DonorIdentity string
	Amount        decimal.Decimal
	Status        ContributionStatus
	ContributedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
