package domain

import "time"

// ApprovalStatus is the audit record for a contribution's latest admin
// decision. Rows are created on the first decision and updated in place on
// later ones; they are never deleted.
type ApprovalStatus struct {
	ID                string
	ContributionID    string
	Status            ContributionStatus
	RejectionReason   string
	AdminComment      string
	DonorReply        string
	PaymentProofURL   string
	ResubmissionCount int
	AdminID           string
	DonorRepliedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
