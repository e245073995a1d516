package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest defines the header of a new draft invoice.
type CreateInvoiceRequest struct {
	Number          string                  `json:"number" validate:"required,max=64"`
	PartnerID       string                  `json:"partnerID" validate:"required"`
	Direction       domain.InvoiceDirection `json:"direction" validate:"required,oneof=INBOUND OUTBOUND"`
	IssueDate       time.Time               `json:"issueDate" validate:"required"`
	DueDate         time.Time               `json:"dueDate" validate:"required"`
	LedgerAccountID *string                 `json:"ledgerAccountID"`
	CostCenterID    *string                 `json:"costCenterID"`
	ProfitCenterID  *string                 `json:"profitCenterID"`
}

// AddInvoiceItemRequest defines an item appended to a draft invoice.
type AddInvoiceItemRequest struct {
	Description  string           `json:"description" validate:"required,max=500"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unitPrice"`
	TaxAmount    decimal.Decimal  `json:"taxAmount"`
	TaxBreakdown []domain.TaxRate `json:"taxBreakdown"`
}

// PostInvoiceRequest carries optional posting overrides.
type PostInvoiceRequest struct {
	PostingDate *time.Time `json:"postingDate"` // Defaults to the issue date
}
