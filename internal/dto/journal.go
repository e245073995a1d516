package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest defines the header of a new draft journal entry.
type CreateEntryRequest struct {
	PostingDate  time.Time `json:"postingDate" validate:"required"`
	DocumentDate time.Time `json:"documentDate" validate:"required"`
	Description  string    `json:"description" validate:"required,max=500"`
	Reference    *string   `json:"reference" validate:"omitempty,max=100"`
}

// AddLineRequest defines a debit or credit line added to a draft entry.
type AddLineRequest struct {
	AccountID       string                 `json:"accountID" validate:"required"`
	Amount          decimal.Decimal        `json:"amount"` // Must be positive, checked explicitly
	TransactionType domain.TransactionType `json:"transactionType" validate:"required,oneof=DEBIT CREDIT"`
	CostCenterID    *string                `json:"costCenterID"`
	ProfitCenterID  *string                `json:"profitCenterID"`
	PartnerID       *string                `json:"partnerID"`
	Notes           string                 `json:"notes" validate:"max=500"`
}

// ReverseEntryRequest defines the reversal of a posted entry.
type ReverseEntryRequest struct {
	Reason      string     `json:"reason" validate:"required,max=300"`
	PostingDate *time.Time `json:"postingDate"` // Defaults to the original posting date
}

// EntryTotalsResponse summarises an entry's debit and credit sides.
type EntryTotalsResponse struct {
	EntryID string               `json:"entryID"`
	Status  domain.JournalStatus `json:"status"`
	Debits  decimal.Decimal      `json:"debits"`
	Credits decimal.Decimal      `json:"credits"`
	Lines   int                  `json:"lines"`
}

// ToEntryTotalsResponse converts an entry into its totals summary.
func ToEntryTotalsResponse(e *domain.JournalEntry) EntryTotalsResponse {
	d, c := e.Totals()
	return EntryTotalsResponse{
		EntryID: e.EntryID,
		Status:  e.Status,
		Debits:  d,
		Credits: c,
		Lines:   len(e.Lines),
	}
}
