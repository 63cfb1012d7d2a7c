package identity

import (
	"context"
	"fmt"
	"strings"
)

// Index is an in-memory snapshot of the directory keyed by lookup email. It
// exists so a bulk import resolves contributors without one directory round
// trip per row.
type Index struct {
	byEmail map[string]Account
}

// LoadIndex walks the directory's paginated listing and builds an index.
func LoadIndex(ctx context.Context, dir Directory, pageSize int) (*Index, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	idx := &Index{byEmail: make(map[string]Account)}
	for page := 1; ; page++ {
		accounts, err := dir.ListAccounts(ctx, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("load directory index: %w", err)
		}
		for _, account := range accounts {
			idx.add(account)
		}
		if len(accounts) < pageSize {
			return idx, nil
		}
	}
}

// Lookup returns the account registered under email, if any.
func (x *Index) Lookup(email string) (Account, bool) {
	if x == nil || x.byEmail == nil {
		return Account{}, false
	}
	account, ok := x.byEmail[strings.ToLower(email)]
	return account, ok
}

func (x *Index) add(account Account) {
	if x == nil || account.Email == "" {
		return
	}
	x.byEmail[strings.ToLower(account.Email)] = account
}

const maxPageSize = 1000
