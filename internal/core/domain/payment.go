package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDirection indicates whether money is received or paid out.
type PaymentDirection string

const (
	Incoming PaymentDirection = "INCOMING" // Customer pays the company
	Outgoing PaymentDirection = "OUTGOING" // Company pays a vendor
)

// Valid reports whether d is INCOMING or OUTGOING.
func (d PaymentDirection) Valid() bool {
	return d == Incoming || d == Outgoing
}

// DirectionFor returns the payment direction that settles an invoice of the given direction.
func DirectionFor(d InvoiceDirection) PaymentDirection {
	if d == Outbound {
		return Incoming
	}
	return Outgoing
}

// PaymentMethod is a closed set of settlement channels.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodCheck        PaymentMethod = "CHECK"
	MethodOther        PaymentMethod = "OTHER"
)

// PaymentStatus indicates the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentDraft     PaymentStatus = "DRAFT"
	PaymentPosted    PaymentStatus = "POSTED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentDraft:     {PaymentPosted, PaymentCancelled},
	PaymentPosted:    {PaymentCancelled},
	PaymentCancelled: {},
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment settles money against a partner, optionally for one invoice.
type Payment struct {
	PaymentID           string           `json:"paymentID"`
	PartnerID           string           `json:"partnerID"`
	InvoiceID           *string          `json:"invoiceID,omitempty"`
	SettlementAccountID string           `json:"settlementAccountID"`
	Direction           PaymentDirection `json:"direction"`
	Amount              decimal.Decimal  `json:"amount"`
	PaymentDate         time.Time        `json:"paymentDate"`
	Method              PaymentMethod    `json:"method"`
	Status              PaymentStatus    `json:"status"`
	JournalEntryID      *string          `json:"journalEntryID,omitempty"`
	ReversalEntryID     *string          `json:"reversalEntryID,omitempty"`
	Version             int64            `json:"version"`
	AuditFields
}
