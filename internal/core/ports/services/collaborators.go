package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PartnerDirectory checks counterparty existence.
type PartnerDirectory interface {
	PartnerExists(ctx context.Context, partnerID string) (bool, error)
}

// CostCenterDirectory checks cost and profit center existence.
type CostCenterDirectory interface {
	CostCenterExists(ctx context.Context, costCenterID string) (bool, error)
	ProfitCenterExists(ctx context.Context, profitCenterID string) (bool, error)
}

// CostingQuery selects the cost of goods sold for a period and optional dimensions.
type CostingQuery struct {
	Start          time.Time
	End            time.Time
	CostCenterID   *string
	ProfitCenterID *string
}

// CostingFeed supplies cost of goods sold figures produced outside the ledger.
type CostingFeed interface {
	CostOfGoodsSold(ctx context.Context, q CostingQuery) (decimal.Decimal, error)
}

// BudgetProvider supplies cost center budgets for a period.
type BudgetProvider interface {
	// Budgets returns the budget per cost center ID. Cost centers without a budget are absent.
	Budgets(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error)
}
