package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDirection distinguishes vendor bills from customer invoices.
type InvoiceDirection string

const (
	Inbound  InvoiceDirection = "INBOUND"  // Received from a vendor
	Outbound InvoiceDirection = "OUTBOUND" // Issued to a customer
)

// Valid reports whether d is INBOUND or OUTBOUND.
func (d InvoiceDirection) Valid() bool {
	return d == Inbound || d == Outbound
}

// InvoiceStatus indicates the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoicePosted    InvoiceStatus = "POSTED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:     {InvoicePosted, InvoiceCancelled},
	InvoicePosted:    {InvoicePaid, InvoiceCancelled},
	InvoicePaid:      {},
	InvoiceCancelled: {},
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaxRate is an informational fiscal breakdown attached to an item.
type TaxRate struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceItem is a single billed line. Total = Quantity*UnitPrice + TaxAmount.
type InvoiceItem struct {
	ItemID       string          `json:"itemID"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TaxAmount    decimal.Decimal `json:"taxAmount"`
	Total        decimal.Decimal `json:"total"`
	TaxBreakdown []TaxRate       `json:"taxBreakdown,omitempty"`
}

// ComputeTotal recalculates the item total.
func (it *InvoiceItem) ComputeTotal() {
	it.Total = it.Quantity.Mul(it.UnitPrice).Add(it.TaxAmount)
}

// Invoice is a customer or vendor invoice.
type Invoice struct {
	InvoiceID       string           `json:"invoiceID"`
	Number          string           `json:"number"`
	PartnerID       string           `json:"partnerID"`
	Direction       InvoiceDirection `json:"direction"`
	Status          InvoiceStatus    `json:"status"`
	IssueDate       time.Time        `json:"issueDate"`
	DueDate         time.Time        `json:"dueDate"`
	GrossAmount     decimal.Decimal  `json:"grossAmount"`
	TaxAmount       decimal.Decimal  `json:"taxAmount"`
	NetAmount       decimal.Decimal  `json:"netAmount"`
	PaidAmount      decimal.Decimal  `json:"paidAmount"`
	Items           []InvoiceItem    `json:"items"`
	LedgerAccountID *string          `json:"ledgerAccountID,omitempty"` // Overrides the revenue/expense account
	CostCenterID    *string          `json:"costCenterID,omitempty"`
	ProfitCenterID  *string          `json:"profitCenterID,omitempty"`
	JournalEntryID  *string          `json:"journalEntryID,omitempty"`
	ReversalEntryID *string          `json:"reversalEntryID,omitempty"`
	Version         int64            `json:"version"`
	AuditFields
}

// RecomputeTotals derives gross, tax and net from the items.
func (inv *Invoice) RecomputeTotals() {
	gross, tax := decimal.Zero, decimal.Zero
	for i := range inv.Items {
		inv.Items[i].ComputeTotal()
		gross = gross.Add(inv.Items[i].Total)
		tax = tax.Add(inv.Items[i].TaxAmount)
	}
	inv.GrossAmount = gross
	inv.TaxAmount = tax
	inv.NetAmount = gross.Sub(tax)
}

// Outstanding returns the gross amount not yet covered by posted payments.
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.GrossAmount.Sub(inv.PaidAmount)
}

// Clone returns a deep copy of the invoice.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Items = make([]InvoiceItem, len(inv.Items))
	for i, it := range inv.Items {
		out.Items[i] = it
		if it.TaxBreakdown != nil {
			out.Items[i].TaxBreakdown = append([]TaxRate(nil), it.TaxBreakdown...)
		}
	}
	return out
}
