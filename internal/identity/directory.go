package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Account is one identity in the external directory.
type Account struct {
	Ref         string
	Email       string
	DisplayName string
}

// Directory is the external identity provider surface used during
// provisioning. Listing is paginated; perPage must not exceed 1000.
type Directory interface {
	ListAccounts(ctx context.Context, page, perPage int) ([]Account, error)
	CreateAccount(ctx context.Context, account Account) (Account, error)
	DeleteAccount(ctx context.Context, ref string) error
}

// ProviderError carries the upstream HTTP status so failures can be
// classified without the provisioner knowing the provider's wire shape.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directory: status %d", e.Status)
	}
	return fmt.Sprintf("directory: status %d: %s", e.Status, e.Message)
}

// ErrorKind tags a provider failure for the retry loop.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindTransient
	KindConflict
)

// Classify maps a provider failure onto the retry taxonomy. Rate limits and
// server errors are transient, duplicates are conflicts, everything else is
// fatal. All retry and backoff decisions consume only this classification.
func Classify(err error) ErrorKind {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return KindFatal
	}
	switch {
	case pe.Status == http.StatusTooManyRequests:
		return KindTransient
	case pe.Status >= 500:
		return KindTransient
	case pe.Status == http.StatusConflict:
		return KindConflict
	default:
		return KindFatal
	}
}

// isServerError reports whether err is a 5xx provider failure, the case where
// the create side effect may have succeeded despite the error response.
func isServerError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Status >= 500
}
