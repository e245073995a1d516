package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether a journal line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Valid reports whether t is DEBIT or CREDIT.
func (t TransactionType) Valid() bool {
	return t == Debit || t == Credit
}

// Opposite returns the other side.
func (t TransactionType) Opposite() TransactionType {
	if t == Debit {
		return Credit
	}
	return Debit
}

// JournalLine is a single debit or credit posting against one account.
type JournalLine struct {
	LineID          string          `json:"lineID"`
	EntryID         string          `json:"entryID"`
	LineNo          int             `json:"lineNo"`
	AccountID       string          `json:"accountID"`
	Amount          decimal.Decimal `json:"amount"` // Always positive
	TransactionType TransactionType `json:"transactionType"`
	CostCenterID    *string         `json:"costCenterID,omitempty"`
	ProfitCenterID  *string         `json:"profitCenterID,omitempty"`
	PartnerID       *string         `json:"partnerID,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ClearingID      *string         `json:"clearingID,omitempty"`
	ClearedAt       *time.Time      `json:"clearedAt,omitempty"`
}

// SignedAmount returns the amount with debits positive and credits negative.
func (l JournalLine) SignedAmount() decimal.Decimal {
	if l.TransactionType == Credit {
		return l.Amount.Neg()
	}
	return l.Amount
}

// IsCleared reports whether the line carries a clearing stamp.
func (l JournalLine) IsCleared() bool {
	return l.ClearingID != nil
}

// BelongsToPartner reports whether the line is tagged to partnerID.
func (l JournalLine) BelongsToPartner(partnerID string) bool {
	return l.PartnerID != nil && *l.PartnerID == partnerID
}

// PostedLine is a journal line enriched with the header fields of its entry.
// It is the unit the reporting folds and clearing reads stream over.
type PostedLine struct {
	JournalLine
	PostingDate  time.Time     `json:"postingDate"`
	DocumentDate time.Time     `json:"documentDate"`
	Description  string        `json:"description"`
	Reference    *string       `json:"reference,omitempty"`
	EntryStatus  JournalStatus `json:"entryStatus"`
	IsReversal   bool          `json:"isReversal"`
}

// ToPostedLine enriches a line of e with e's header fields.
func (e *JournalEntry) ToPostedLine(l JournalLine) PostedLine {
	return PostedLine{
		JournalLine:  l,
		PostingDate:  e.PostingDate,
		DocumentDate: e.DocumentDate,
		Description:  e.Description,
		Reference:    e.Reference,
		EntryStatus:  e.Status,
		IsReversal:   e.IsReversal,
	}
}
