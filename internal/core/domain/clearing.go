package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenItem is an uncleared line of a posted entry tagged to one partner.
type OpenItem struct {
	PostedLine
}

// ClearingGroup is the set of lines stamped with one clearing ID.
// The signed sum of its lines is always zero.
type ClearingGroup struct {
	ClearingID string       `json:"clearingID"`
	PartnerID  string       `json:"partnerID"`
	ClearedAt  time.Time    `json:"clearedAt"`
	Lines      []PostedLine `json:"lines"`
}

// SignedSum returns the signed sum of the given lines, debits positive.
func SignedSum(lines []JournalLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.SignedAmount())
	}
	return sum
}
