package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// AccountAmount represents an account with its signed net amount for financial reports.
// Revenue accounts are positive on credit, expense accounts positive on debit.
type AccountAmount struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"accountType"`
	NetAmount   decimal.Decimal `json:"netAmount"`
}

// IncomeStatement is the period aggregation of posted revenue and expense lines.
type IncomeStatement struct {
	Start             time.Time       `json:"start"`
	End               time.Time       `json:"end"`
	CostCenterID      *string         `json:"costCenterID,omitempty"`
	ProfitCenterID    *string         `json:"profitCenterID,omitempty"`
	GrossRevenue      decimal.Decimal `json:"grossRevenue"`
	CostOfGoodsSold   decimal.Decimal `json:"costOfGoodsSold"` // From the costing feed
	GrossProfit       decimal.Decimal `json:"grossProfit"`     // GrossRevenue - CostOfGoodsSold
	OperatingExpenses decimal.Decimal `json:"operatingExpenses"`
	NetProfit         decimal.Decimal `json:"netProfit"` // GrossProfit - OperatingExpenses
	Breakdown         []AccountAmount `json:"breakdown"` // Ordered by account code
	LinesScanned      int             `json:"linesScanned"`
}

// CostCenterPerformance reports actual debit spend for a cost center.
type CostCenterPerformance struct {
	CostCenterID string           `json:"costCenterID"`
	Actual       decimal.Decimal  `json:"actual"`
	Budget       *decimal.Decimal `json:"budget,omitempty"`
	Variance     *decimal.Decimal `json:"variance,omitempty"` // Budget - Actual
}
