package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of the payments table.
type Payment struct {
	PaymentID           string          `db:"payment_id"`
	PartnerID           string          `db:"partner_id"`
	InvoiceID           *string         `db:"invoice_id"`
	SettlementAccountID string          `db:"settlement_account_id"`
	Direction           string          `db:"direction"`
	Amount              decimal.Decimal `db:"amount"`
	PaymentDate         time.Time       `db:"payment_date"`
	Method              string          `db:"method"`
	Status              string          `db:"status"`
	JournalEntryID      *string         `db:"journal_entry_id"`
	ReversalEntryID     *string         `db:"reversal_entry_id"`
	Version             int64           `db:"version"`
	AuditFields
}
