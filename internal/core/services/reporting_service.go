package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/utils/accounting"
	"github.com/SscSPs/bookkeeping_core/internal/utils/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	accountRepo   portsrepo.AccountReader
	costing       portssvc.CostingFeed
	budgets       portssvc.BudgetProvider
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(repo portsrepo.ReportingRepository, accountRepo portsrepo.AccountReader, options ...ServiceOption) portssvc.ReportingService {
	deps := applyOptions(options)
	return &reportingService{
		BaseService:   BaseService{clock: deps.clock},
		reportingRepo: repo,
		accountRepo:   accountRepo,
		costing:       deps.costing,
		budgets:       deps.budgets,
	}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// IncomeStatement folds the posted revenue and expense lines of the period while the costing
// feed is queried for cost of goods sold.
func (s *reportingService) IncomeStatement(ctx context.Context, req dto.IncomeStatementRequest) (*domain.IncomeStatement, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid income statement request")
		return nil, err
	}
	end := domain.EndOfDay(req.End)
	if end.Before(req.Start) {
		err := fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
		s.LogWarn(ctx, err, "Invalid income statement range")
		return nil, err
	}
	filter := portsrepo.PostedLineFilter{
		From:           req.Start,
		To:             end,
		CostCenterID:   req.CostCenterID,
		ProfitCenterID: req.ProfitCenterID,
	}

	g, gctx := errgroup.WithContext(ctx)

	var totals map[string]decimal.Decimal
	var accounts *accountCache
	var scanned int
	g.Go(func() error {
		accounts = newAccountCache(s.accountRepo)
		totals = make(map[string]decimal.Decimal)
		n, err := s.fold(gctx, filter, func(line domain.PostedLine) error {
			acc, err := accounts.get(gctx, line.AccountID)
			if err != nil {
				return err
			}
			if acc.AccountType != domain.Revenue && acc.AccountType != domain.Expense {
				return nil
			}
			amount, err := accounting.NaturalAmount(line.JournalLine, acc.AccountType)
			if err != nil {
				return err
			}
			totals[acc.AccountID] = totals[acc.AccountID].Add(amount)
			return nil
		})
		scanned = n
		return err
	})

	cogs := decimal.Zero
	if s.costing != nil {
		g.Go(func() error {
			v, err := s.costing.CostOfGoodsSold(gctx, portssvc.CostingQuery{
				Start:          req.Start,
				End:            end,
				CostCenterID:   req.CostCenterID,
				ProfitCenterID: req.ProfitCenterID,
			})
			if err != nil {
				return fmt.Errorf("%w: costing feed: %v", apperrors.ErrExternalDependency, err)
			}
			cogs = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.LogFailure(ctx, err, "Failed to compute income statement",
			slog.String("start", req.Start.Format(time.RFC3339)),
			slog.String("end", end.Format(time.RFC3339)))
		return nil, err
	}

	report := &domain.IncomeStatement{
		Start:             req.Start,
		End:               end,
		CostCenterID:      req.CostCenterID,
		ProfitCenterID:    req.ProfitCenterID,
		GrossRevenue:      decimal.Zero,
		CostOfGoodsSold:   cogs,
		OperatingExpenses: decimal.Zero,
		Breakdown:         make([]domain.AccountAmount, 0, len(totals)),
		LinesScanned:      scanned,
	}
	for id, net := range totals {
		acc := accounts.cached[id]
		if acc.AccountType == domain.Revenue {
			report.GrossRevenue = report.GrossRevenue.Add(net)
		} else {
			report.OperatingExpenses = report.OperatingExpenses.Add(net)
		}
		report.Breakdown = append(report.Breakdown, domain.AccountAmount{
			AccountID:   id,
			Code:        acc.Code,
			Name:        acc.Name,
			AccountType: acc.AccountType,
			NetAmount:   net,
		})
	}
	sort.Slice(report.Breakdown, func(i, j int) bool {
		return report.Breakdown[i].Code < report.Breakdown[j].Code
	})
	report.GrossProfit = report.GrossRevenue.Sub(report.CostOfGoodsSold)
	report.NetProfit = report.GrossProfit.Sub(report.OperatingExpenses)

	s.LogInfo(ctx, "Income statement generated successfully",
		slog.String("start", req.Start.Format(time.RFC3339)),
		slog.String("end", end.Format(time.RFC3339)),
		slog.Int("lines_scanned", scanned),
		slog.String("net_profit", report.NetProfit.String()))
	return report, nil
}

// CostCenterPerformance sums debit lines per cost center and sets them against the budgets, if any.
func (s *reportingService) CostCenterPerformance(ctx context.Context, start, end time.Time) ([]domain.CostCenterPerformance, error) {
	to := domain.EndOfDay(end)
	if to.Before(start) {
		err := fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
		s.LogWarn(ctx, err, "Invalid cost center report range")
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	actuals := make(map[string]decimal.Decimal)
	g.Go(func() error {
		_, err := s.fold(gctx, portsrepo.PostedLineFilter{From: start, To: to}, func(line domain.PostedLine) error {
			if line.TransactionType != domain.Debit || line.CostCenterID == nil {
				return nil
			}
			actuals[*line.CostCenterID] = actuals[*line.CostCenterID].Add(line.Amount)
			return nil
		})
		return err
	})

	var budgets map[string]decimal.Decimal
	if s.budgets != nil {
		g.Go(func() error {
			b, err := s.budgets.Budgets(gctx, start, to)
			if err != nil {
				return fmt.Errorf("%w: budget provider: %v", apperrors.ErrExternalDependency, err)
			}
			budgets = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.LogFailure(ctx, err, "Failed to compute cost center performance")
		return nil, err
	}

	ids := make([]string, 0, len(actuals)+len(budgets))
	for id := range actuals {
		ids = append(ids, id)
	}
	for id := range budgets {
		if _, ok := actuals[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	rows := make([]domain.CostCenterPerformance, 0, len(ids))
	for _, id := range ids {
		row := domain.CostCenterPerformance{CostCenterID: id, Actual: actuals[id]}
		if budget, ok := budgets[id]; ok {
			variance := budget.Sub(row.Actual)
			row.Budget = &budget
			row.Variance = &variance
		}
		rows = append(rows, row)
	}

	s.LogInfo(ctx, "Cost center performance generated successfully", slog.Int("cost_centers", len(rows)))
	return rows, nil
}

// TrialBalance generates a trial balance report as of a specific date
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	accounts := newAccountCache(s.accountRepo)
	sums := make(map[string]*domain.TrialBalanceRow)

	filter := portsrepo.PostedLineFilter{To: domain.EndOfDay(asOf)}
	_, err := s.fold(ctx, filter, func(line domain.PostedLine) error {
		row, ok := sums[line.AccountID]
		if !ok {
			acc, err := accounts.get(ctx, line.AccountID)
			if err != nil {
				return err
			}
			row = &domain.TrialBalanceRow{
				AccountID:   acc.AccountID,
				AccountCode: acc.Code,
				AccountName: acc.Name,
				AccountType: acc.AccountType,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
			}
			sums[line.AccountID] = row
		}
		if line.TransactionType == domain.Debit {
			row.Debit = row.Debit.Add(line.Amount)
		} else {
			row.Credit = row.Credit.Add(line.Amount)
		}
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to retrieve trial balance data",
			slog.String("asOf", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	rows := make([]domain.TrialBalanceRow, 0, len(sums))
	for _, row := range sums {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })

	s.LogInfo(ctx, "Trial balance report generated successfully",
		slog.String("asOf", asOf.Format(time.RFC3339)),
		slog.Int("row_count", len(rows)))
	return rows, nil
}

// fold streams the posted lines matching filter into fn and returns how many were scanned.
// It stops at the first error, including context cancellation.
func (s *reportingService) fold(ctx context.Context, filter portsrepo.PostedLineFilter, fn func(domain.PostedLine) error) (int, error) {
	scanned := 0
	for line, err := range s.reportingRepo.StreamPostedLines(ctx, filter) {
		if err != nil {
			return scanned, err
		}
		if err := ctx.Err(); err != nil {
			return scanned, err
		}
		scanned++
		if err := fn(line); err != nil {
			return scanned, err
		}
	}
	return scanned, ctx.Err()
}

// accountCache memoises account lookups during a single fold.
type accountCache struct {
	repo   portsrepo.AccountReader
	cached map[string]domain.Account
}

func newAccountCache(repo portsrepo.AccountReader) *accountCache {
	return &accountCache{repo: repo, cached: make(map[string]domain.Account)}
}

func (c *accountCache) get(ctx context.Context, accountID string) (domain.Account, error) {
	if acc, ok := c.cached[accountID]; ok {
		return acc, nil
	}
	acc, err := c.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}
	c.cached[accountID] = *acc
	return *acc, nil
}
