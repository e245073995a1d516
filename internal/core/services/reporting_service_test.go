package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/core/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	f       *fixture
	costing *MockCostingFeed
	budgets *MockBudgetProvider
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.costing = new(MockCostingFeed)
	suite.budgets = new(MockBudgetProvider)
	suite.f = newFixture(suite.T(), services.WithCostingFeed(suite.costing), services.WithBudgetProvider(suite.budgets))
	f := suite.f

	sale := f.credit(codeRevenue, "1000")
	sale.ProfitCenterID = ptr("PC-1")
	f.post(day(10), f.debit(codeBank, "1000"), sale)

	rent := f.debit(codeExpense, "300")
	rent.CostCenterID = ptr("CC-1")
	f.post(day(15), rent, f.credit(codeBank, "300"))

	travel := f.debit(codeExpense, "50")
	travel.CostCenterID = ptr("CC-2")
	f.post(time.Date(2024, time.March, 31, 15, 30, 0, 0, time.UTC), travel, f.credit(codeBank, "50"))

	// Outside the period.
	f.post(time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), f.debit(codeBank, "500"), f.credit(codeRevenue, "500"))
	// Never posted.
	f.draft(day(12), f.debit(codeBank, "70"), f.credit(codeRevenue, "70"))
	// Posted then reversed: neither side counts.
	reversed := f.post(day(20), f.debit(codeBank, "200"), f.credit(codeServiceIncome, "200"))
	_, err := f.svc.Journal.ReverseEntry(f.ctx, reversed.EntryID, dto.ReverseEntryRequest{Reason: "duplicate"})
	suite.Require().NoError(err)
}

func (suite *ReportingServiceTestSuite) TearDownTest() {
	suite.costing.AssertExpectations(suite.T())
	suite.budgets.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) march() dto.IncomeStatementRequest {
	return dto.IncomeStatementRequest{Start: day(1), End: day(31)}
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement() {
	f := suite.f
	suite.costing.On("CostOfGoodsSold", mock.Anything, mock.MatchedBy(func(q portssvc.CostingQuery) bool {
		return q.Start.Equal(day(1)) && q.End.Equal(domain.EndOfDay(day(31))) && q.CostCenterID == nil
	})).Return(amt("200"), nil).Once()

	report, err := f.svc.Reporting.IncomeStatement(f.ctx, suite.march())

	suite.Require().NoError(err)
	suite.True(amt("1000").Equal(report.GrossRevenue), report.GrossRevenue.String())
	suite.True(amt("200").Equal(report.CostOfGoodsSold))
	suite.True(amt("800").Equal(report.GrossProfit))
	suite.True(amt("350").Equal(report.OperatingExpenses), report.OperatingExpenses.String())
	suite.True(amt("450").Equal(report.NetProfit))
	suite.Equal(domain.EndOfDay(day(31)), report.End)
	suite.Equal(6, report.LinesScanned)

	suite.Require().Len(report.Breakdown, 2)
	suite.Equal(codeRevenue, report.Breakdown[0].Code)
	suite.True(amt("1000").Equal(report.Breakdown[0].NetAmount))
	suite.Equal(codeExpense, report.Breakdown[1].Code)
	suite.True(amt("350").Equal(report.Breakdown[1].NetAmount))
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement_CostCenterFilter() {
	f := suite.f
	suite.costing.On("CostOfGoodsSold", mock.Anything, mock.MatchedBy(func(q portssvc.CostingQuery) bool {
		return q.CostCenterID != nil && *q.CostCenterID == "CC-1"
	})).Return(decimal.Zero, nil).Once()

	req := suite.march()
	req.CostCenterID = ptr("CC-1")
	report, err := f.svc.Reporting.IncomeStatement(f.ctx, req)

	suite.Require().NoError(err)
	suite.True(report.GrossRevenue.IsZero())
	suite.True(amt("300").Equal(report.OperatingExpenses))
	suite.True(amt("-300").Equal(report.NetProfit))
	suite.Equal(1, report.LinesScanned)
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement_ProfitCenterFilter() {
	f := suite.f
	suite.costing.On("CostOfGoodsSold", mock.Anything, mock.Anything).Return(decimal.Zero, nil).Once()

	req := suite.march()
	req.ProfitCenterID = ptr("PC-1")
	report, err := f.svc.Reporting.IncomeStatement(f.ctx, req)

	suite.Require().NoError(err)
	suite.True(amt("1000").Equal(report.GrossRevenue))
	suite.True(report.OperatingExpenses.IsZero())
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement_CostingFeedFailure() {
	f := suite.f
	suite.costing.On("CostOfGoodsSold", mock.Anything, mock.Anything).Return(decimal.Zero, errors.New("feed down")).Once()

	_, err := f.svc.Reporting.IncomeStatement(f.ctx, suite.march())
	suite.ErrorIs(err, apperrors.ErrExternalDependency)
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement_InvalidRange() {
	f := suite.f
	_, err := f.svc.Reporting.IncomeStatement(f.ctx, dto.IncomeStatementRequest{Start: day(20), End: day(10)})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.svc.Reporting.IncomeStatement(f.ctx, dto.IncomeStatementRequest{End: day(10)})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReportingServiceTestSuite) TestCostCenterPerformance() {
	f := suite.f
	suite.budgets.On("Budgets", mock.Anything, day(1), domain.EndOfDay(day(31))).Return(map[string]decimal.Decimal{
		"CC-1": amt("500"),
		"CC-9": amt("100"),
	}, nil).Once()

	rows, err := f.svc.Reporting.CostCenterPerformance(f.ctx, day(1), day(31))

	suite.Require().NoError(err)
	suite.Require().Len(rows, 3)

	suite.Equal("CC-1", rows[0].CostCenterID)
	suite.True(amt("300").Equal(rows[0].Actual))
	suite.Require().NotNil(rows[0].Variance)
	suite.True(amt("200").Equal(*rows[0].Variance))

	suite.Equal("CC-2", rows[1].CostCenterID)
	suite.True(amt("50").Equal(rows[1].Actual))
	suite.Nil(rows[1].Budget)

	suite.Equal("CC-9", rows[2].CostCenterID)
	suite.True(rows[2].Actual.IsZero())
	suite.Require().NotNil(rows[2].Variance)
	suite.True(amt("100").Equal(*rows[2].Variance))
}

func (suite *ReportingServiceTestSuite) TestCostCenterPerformance_BudgetFailure() {
	f := suite.f
	suite.budgets.On("Budgets", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	_, err := f.svc.Reporting.CostCenterPerformance(f.ctx, day(1), day(31))
	suite.ErrorIs(err, apperrors.ErrExternalDependency)
}

func (suite *ReportingServiceTestSuite) TestTrialBalance() {
	f := suite.f

	rows, err := f.svc.Reporting.TrialBalance(f.ctx, day(31))

	suite.Require().NoError(err)
	suite.Require().Len(rows, 3)
	suite.Equal([]string{codeBank, codeRevenue, codeExpense},
		[]string{rows[0].AccountCode, rows[1].AccountCode, rows[2].AccountCode})

	debits, credits := decimal.Zero, decimal.Zero
	for _, r := range rows {
		debits = debits.Add(r.Debit)
		credits = credits.Add(r.Credit)
	}
	suite.True(debits.Equal(credits))
	suite.True(amt("1350").Equal(debits))
	suite.True(amt("1000").Equal(rows[0].Debit))
	suite.True(amt("350").Equal(rows[0].Credit))

	later, err := f.svc.Reporting.TrialBalance(f.ctx, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.True(amt("1500").Equal(later[0].Debit))
}

func (suite *ReportingServiceTestSuite) TestCancelledContext() {
	f := suite.f
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	_, err := f.svc.Reporting.TrialBalance(ctx, day(31))
	suite.ErrorIs(err, context.Canceled)
}

func TestReportingService(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

func TestReportingService_WithoutCostingFeed(t *testing.T) {
	f := newFixture(t)
	f.post(day(10), f.debit(codeBank, "10"), f.credit(codeRevenue, "10"))

	report, err := f.svc.Reporting.IncomeStatement(f.ctx, dto.IncomeStatementRequest{Start: day(1), End: day(31)})
	require.NoError(t, err)
	assert.True(t, report.CostOfGoodsSold.IsZero())
	assert.True(t, amt("10").Equal(report.GrossProfit))
}

func TestReportingService_EndDateIncludesWholeDay(t *testing.T) {
	f := newFixture(t)
	f.post(domain.EndOfDay(day(31)), f.debit(codeBank, "7"), f.credit(codeRevenue, "7"))
	f.post(day(31).Add(24*time.Hour), f.debit(codeBank, "90"), f.credit(codeRevenue, "90"))

	report, err := f.svc.Reporting.IncomeStatement(f.ctx, dto.IncomeStatementRequest{Start: day(1), End: day(31)})
	require.NoError(t, err)
	assert.True(t, amt("7").Equal(report.GrossRevenue), report.GrossRevenue.String())
	assert.Equal(t, 2, report.LinesScanned)

	rows, err := f.svc.Reporting.TrialBalance(f.ctx, day(31))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, codeBank, rows[0].AccountCode)
	assert.True(t, amt("7").Equal(rows[0].Debit), rows[0].Debit.String())
}
