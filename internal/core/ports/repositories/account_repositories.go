package repositories

import (
	"context"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its chart-of-accounts code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs are absent from the map.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by code.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. Returns apperrors.ErrDuplicate if the code is taken.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's mutable fields (name, active flag).
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
