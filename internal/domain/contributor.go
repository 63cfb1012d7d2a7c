package domain

// AnonymousContributorID is the reserved legacy id for the unknown-donor
// bucket. Rows referencing it are always imported, even with an empty name.
const AnonymousContributorID = 100

// ContributorRecord is a transient record for one legacy contributor seen
// during an import run. Identity stays empty until provisioning resolves it.
type ContributorRecord struct {
	ExternalID int
	Name       string
	Identity   string
}

// IdentityProfile links a provisioned directory identity back to the legacy
// contributor it was created for.
type IdentityProfile struct {
	IdentityRef           string
	ContributorExternalID int
	DisplayName           string
}
