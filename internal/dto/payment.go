package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines a new draft payment.
// Direction may be omitted when InvoiceID is set; it is then derived from the invoice.
type CreatePaymentRequest struct {
	PartnerID           string                  `json:"partnerID" validate:"required"`
	InvoiceID           *string                 `json:"invoiceID"`
	SettlementAccountID string                  `json:"settlementAccountID" validate:"required"`
	Direction           domain.PaymentDirection `json:"direction" validate:"omitempty,oneof=INCOMING OUTGOING"`
	Amount              decimal.Decimal         `json:"amount"`
	PaymentDate         time.Time               `json:"paymentDate" validate:"required"`
	Method              domain.PaymentMethod    `json:"method" validate:"required,oneof=BANK_TRANSFER CASH CARD CHECK OTHER"`
}
