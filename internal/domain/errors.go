package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingColumn     = errors.New("missing required column")
	ErrProviderFailure   = errors.New("identity provider failure")
	ErrProvisioning      = errors.New("provisioning failed")
)
