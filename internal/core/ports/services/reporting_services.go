package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
)

// ReportingService folds posted history into management reports
type ReportingService interface {
	// IncomeStatement aggregates revenue and expense lines posted in [start, end of end's day].
	IncomeStatement(ctx context.Context, req dto.IncomeStatementRequest) (*domain.IncomeStatement, error)

	// CostCenterPerformance sums debit lines per cost center over the period.
	CostCenterPerformance(ctx context.Context, start, end time.Time) ([]domain.CostCenterPerformance, error)

	// TrialBalance returns debit and credit totals per account up to the end of asOf's day.
	TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)
}
