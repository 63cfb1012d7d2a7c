package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ataa/internal/domain"
	"ataa/internal/infra"
)

// LookupKey derives the deterministic directory email for a legacy contributor
// id. The fixed-width zero-padded id is the sole de-duplication key, so the
// same contributor always maps to the same account regardless of how its name
// was spelled in the source rows.
func LookupKey(contributorID int, domainName string) string {
	return fmt.Sprintf("contributor-%06d@%s", contributorID, domainName)
}

// Options configures a Provisioner.
type Options struct {
	Directory  Directory
	Profiles   domain.IdentityProfileRepository
	Domain     string
	PageSize   int
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *infra.Logger
}

// Provisioner idempotently resolves legacy contributors to directory
// identities, tolerating a rate-limited and intermittently failing provider.
type Provisioner struct {
	dir        Directory
	profiles   domain.IdentityProfileRepository
	domainName string
	pageSize   int
	maxRetries int
	baseDelay  time.Duration
	logger     infra.Logger
	sleep      func(context.Context, time.Duration) error
}

// NewProvisioner constructs a provisioner with sane defaults.
func NewProvisioner(opts Options) *Provisioner {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	domainName := opts.Domain
	if domainName == "" {
		domainName = "import.ataa.local"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Provisioner{
		dir:        opts.Directory,
		profiles:   opts.Profiles,
		domainName: domainName,
		pageSize:   pageSize,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Provision resolves contributorID to a directory identity, creating the
// account and its linked profile when missing. Repeated calls with the same id
// always return the same identity. A nil index falls back to a paginated scan
// per call.
func (p *Provisioner) Provision(ctx context.Context, contributorID int, displayName string, idx *Index) (string, error) {
	email := LookupKey(contributorID, p.domainName)

	account, found, err := p.resolve(ctx, email, idx)
	if err != nil {
		return "", err
	}
	if found {
		return p.link(ctx, account, contributorID, displayName)
	}

	account, err = p.create(ctx, Account{Email: email, DisplayName: displayName}, idx)
	if err != nil {
		return "", err
	}
	if idx != nil {
		idx.add(account)
	}

	if err := p.profiles.Ensure(ctx, &domain.IdentityProfile{
		IdentityRef:           account.Ref,
		ContributorExternalID: contributorID,
		DisplayName:           displayName,
	}); err != nil {
		// An account with no profile would be unrecoverable by re-run, so
		// undo the creation before surfacing the failure.
		if delErr := p.dir.DeleteAccount(ctx, account.Ref); delErr != nil {
			p.logger.Error().Err(delErr).Str("email", email).Msg("rollback delete failed; orphaned account remains")
		}
		return "", fmt.Errorf("create profile for %s: %w", email, err)
	}
	return account.Ref, nil
}

// resolve looks the email up in the supplied index or, when none was supplied,
// scans the directory listing.
func (p *Provisioner) resolve(ctx context.Context, email string, idx *Index) (Account, bool, error) {
	if idx != nil {
		account, ok := idx.Lookup(email)
		return account, ok, nil
	}
	return p.scan(ctx, email)
}

// scan walks the paginated listing looking for email.
func (p *Provisioner) scan(ctx context.Context, email string) (Account, bool, error) {
	fresh, err := LoadIndex(ctx, p.dir, p.pageSize)
	if err != nil {
		return Account{}, false, err
	}
	account, ok := fresh.Lookup(email)
	return account, ok, nil
}

// link makes sure an existing account has its profile row; a previous partial
// failure can have left the account without one.
func (p *Provisioner) link(ctx context.Context, account Account, contributorID int, displayName string) (string, error) {
	err := p.profiles.Ensure(ctx, &domain.IdentityProfile{
		IdentityRef:           account.Ref,
		ContributorExternalID: contributorID,
		DisplayName:           displayName,
	})
	if err != nil {
		return "", fmt.Errorf("ensure profile for %s: %w", account.Email, err)
	}
	return account.Ref, nil
}

// create attempts account creation with classified retries. Transient
// failures back off exponentially; conflicts re-resolve through a fresh
// directory scan; 5xx failures first re-check whether the account actually
// got created despite the error response.
func (p *Provisioner) create(ctx context.Context, account Account, idx *Index) (Account, error) {
	for attempt := 0; ; attempt++ {
		created, err := p.dir.CreateAccount(ctx, account)
		if err == nil {
			return created, nil
		}

		switch Classify(err) {
		case KindConflict:
			existing, found, scanErr := p.scan(ctx, account.Email)
			if scanErr != nil {
				return Account{}, scanErr
			}
			if !found {
				return Account{}, fmt.Errorf("create %s: conflict reported but account not found: %w", account.Email, err)
			}
			if idx != nil {
				idx.add(existing)
			}
			return existing, nil

		case KindTransient:
			if isServerError(err) {
				existing, found, scanErr := p.scan(ctx, account.Email)
				if scanErr == nil && found {
					p.logger.Warn().Str("email", account.Email).Msg("create reported failure but account exists; using it")
					return existing, nil
				}
			}
			if attempt >= p.maxRetries {
				return Account{}, fmt.Errorf("create %s after %d retries: %w: %w", account.Email, p.maxRetries, domain.ErrProvisioning, err)
			}
			delay := nextDelay(attempt, p.baseDelay)
			p.logger.Warn().Err(err).Str("email", account.Email).Dur("delay", delay).Msg("transient directory failure; retrying")
			if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
				return Account{}, sleepErr
			}

		default:
			return Account{}, fmt.Errorf("create %s: %w", account.Email, err)
		}
	}
}
