package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// IncomeStatementRequest selects the period and optional dimensions of an income statement.
// End is inclusive up to the last instant of its calendar day.
type IncomeStatementRequest struct {
	Start          time.Time `json:"start" validate:"required"`
	End            time.Time `json:"end" validate:"required"`
	CostCenterID   *string   `json:"costCenterID"`
	ProfitCenterID *string   `json:"profitCenterID"`
}

// TrialBalanceResponse represents the trial balance report with its column totals.
type TrialBalanceResponse struct {
	AsOf     string                   `json:"asOf"`
	Debit    decimal.Decimal          `json:"debit"`
	Credit   decimal.Decimal          `json:"credit"`
	Accounts []domain.TrialBalanceRow `json:"accounts"`
}

// ToTrialBalanceResponse totals the rows of a trial balance taken at asOf.
func ToTrialBalanceResponse(asOf time.Time, rows []domain.TrialBalanceRow) TrialBalanceResponse {
	resp := TrialBalanceResponse{
		AsOf:     asOf.Format(time.DateOnly),
		Debit:    decimal.Zero,
		Credit:   decimal.Zero,
		Accounts: make([]domain.TrialBalanceRow, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Debit = resp.Debit.Add(r.Debit)
		resp.Credit = resp.Credit.Add(r.Credit)
		resp.Accounts = append(resp.Accounts, r)
	}
	return resp
}
