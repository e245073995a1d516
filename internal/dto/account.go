package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string               `json:"code" validate:"required,max=32"`
	Name            string               `json:"name" validate:"required,max=200"`
	AccountType     domain.AccountType   `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Nature          domain.AccountNature `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"` // Defaults to the type's normal side
	ParentAccountID *string              `json:"parentAccountID"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	IsActive *bool   `json:"isActive"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string               `json:"accountID"`
	Code            string               `json:"code"`
	Name            string               `json:"name"`
	AccountType     domain.AccountType   `json:"accountType"`
	Nature          domain.AccountNature `json:"nature"`
	Level           int                  `json:"level"`
	ParentAccountID *string              `json:"parentAccountID"`
	IsActive        bool                 `json:"isActive"`
	CreatedAt       time.Time            `json:"createdAt"`
	LastUpdatedAt   time.Time            `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		Nature:          acc.Nature,
		Level:           acc.Level,
		ParentAccountID: acc.ParentAccountID,
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		LastUpdatedAt:   acc.LastUpdatedAt,
	}
}

// ListAccountsParams defines parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int
	Offset int
}
