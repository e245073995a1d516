package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft     JournalStatus = "DRAFT"
	Posted    JournalStatus = "POSTED"
	Cancelled JournalStatus = "CANCELLED"
)

var journalTransitions = map[JournalStatus][]JournalStatus{
	Draft:     {Posted, Cancelled},
	Posted:    {Cancelled},
	Cancelled: {},
}

// Valid reports whether s is a known journal status.
func (s JournalStatus) Valid() bool {
	_, ok := journalTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s JournalStatus) CanTransitionTo(next JournalStatus) bool {
	for _, allowed := range journalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourceType names the kind of document that generated an entry.
type SourceType string

const (
	SourceNone    SourceType = ""
	SourceInvoice SourceType = "INVOICE"
	SourcePayment SourceType = "PAYMENT"
)

// JournalEntry represents an atomic group of debit and credit postings.
// Lines may only change while the entry is a Draft.
type JournalEntry struct {
	EntryID      string        `json:"entryID"`
	PostingDate  time.Time     `json:"postingDate"`
	DocumentDate time.Time     `json:"documentDate"`
	Description  string        `json:"description"`
	Reference    *string       `json:"reference,omitempty"`
	Status       JournalStatus `json:"status"`
	ReversedBy   *string       `json:"reversedBy,omitempty"` // ID of the entry that reversed this one
	ReversalOf   *string       `json:"reversalOf,omitempty"` // ID of the entry this one reverses
	IsReversal   bool          `json:"isReversal"`
	SourceType   SourceType    `json:"sourceType,omitempty"` // owning document kind, empty for manual entries
	SourceID     *string       `json:"sourceID,omitempty"`
	Lines        []JournalLine `json:"lines"`
	Version      int64         `json:"version"`
	AuditFields
}

// IsDocumentOwned reports whether the entry was generated by an invoice or payment.
// Such entries follow their document's lifecycle.
func (e *JournalEntry) IsDocumentOwned() bool {
	return e.SourceType != SourceNone
}

// Totals returns the debit and credit sums of the entry's lines.
func (e *JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.TransactionType == Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}

// IsBalanced reports whether debits equal credits exactly.
func (e *JournalEntry) IsBalanced() bool {
	d, c := e.Totals()
	return d.Equal(c)
}

// HasClearedLines reports whether any line of the entry is part of a clearing group.
func (e *JournalEntry) HasClearedLines() bool {
	for _, l := range e.Lines {
		if l.IsCleared() {
			return true
		}
	}
	return false
}

// LineByID returns the index of the line with the given ID, or -1.
func (e *JournalEntry) LineByID(lineID string) int {
	for i, l := range e.Lines {
		if l.LineID == lineID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (e JournalEntry) Clone() JournalEntry {
	out := e
	out.Lines = make([]JournalLine, len(e.Lines))
	copy(out.Lines, e.Lines)
	return out
}
