package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a row of the invoices table. Items live in invoice_items.
type Invoice struct {
	InvoiceID       string          `db:"invoice_id"`
	Number          string          `db:"number"`
	PartnerID       string          `db:"partner_id"`
	Direction       string          `db:"direction"`
	Status          string          `db:"status"`
	IssueDate       time.Time       `db:"issue_date"`
	DueDate         time.Time       `db:"due_date"`
	GrossAmount     decimal.Decimal `db:"gross_amount"`
	TaxAmount       decimal.Decimal `db:"tax_amount"`
	NetAmount       decimal.Decimal `db:"net_amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount"`
	LedgerAccountID *string         `db:"ledger_account_id"`
	CostCenterID    *string         `db:"cost_center_id"`
	ProfitCenterID  *string         `db:"profit_center_id"`
	JournalEntryID  *string         `db:"journal_entry_id"`
	ReversalEntryID *string         `db:"reversal_entry_id"`
	Version         int64           `db:"version"`
	AuditFields
}

// TaxRate is stored inside the tax_breakdown JSONB column.
type TaxRate struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceItem is a row of the invoice_items table.
type InvoiceItem struct {
	ItemID       string          `db:"item_id"`
	InvoiceID    string          `db:"invoice_id"`
	Position     int             `db:"position"`
	Description  string          `db:"description"`
	Quantity     decimal.Decimal `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	TaxAmount    decimal.Decimal `db:"tax_amount"`
	Total        decimal.Decimal `db:"total"`
	TaxBreakdown []TaxRate       `db:"tax_breakdown"`
}
