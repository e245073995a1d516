package services

import (
	"context"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	// GetAccountByIDs retrieves accounts keyed by ID. Unknown IDs are absent from the map.
	GetAccountByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	// UpdateAccount changes the name and/or active flag. Type and nature are immutable.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
