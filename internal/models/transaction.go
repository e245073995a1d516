package models

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

// JournalLine is a row of the journal_lines table.
type JournalLine struct {
	LineID          string          `db:"line_id"`
	EntryID         string          `db:"entry_id"`
	LineNo          int             `db:"line_no"`
	AccountID       string          `db:"account_id"`
	Amount          decimal.Decimal `db:"amount"` // Positive; NUMERIC column
	TransactionType TransactionType `db:"transaction_type"`
	CostCenterID    *string         `db:"cost_center_id"`
	ProfitCenterID  *string         `db:"profit_center_id"`
	PartnerID       *string         `db:"partner_id"`
	Notes           string          `db:"notes"`
	ClearingID      *string         `db:"clearing_id"`
	ClearedAt       *time.Time      `db:"cleared_at"`
}

// PostedLine is a journal line joined with the header columns of its entry.
type PostedLine struct {
	JournalLine
	PostingDate  time.Time     `db:"posting_date"`
	DocumentDate time.Time     `db:"document_date"`
	Description  string        `db:"description"`
	Reference    *string       `db:"reference"`
	EntryStatus  JournalStatus `db:"entry_status"`
	IsReversal   bool          `db:"is_reversal"`
}
