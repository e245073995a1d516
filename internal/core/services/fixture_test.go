package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/core/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
	"github.com/SscSPs/bookkeeping_core/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	codeBank          = "1000"
	codeReceivable    = "1200"
	codeInputTax      = "1400"
	codePayable       = "2100"
	codeOutputTax     = "2300"
	codeRevenue       = "4000"
	codeServiceIncome = "4100"
	codeExpense       = "6000"

	testUser = "user-1"
)

var testPosting = config.PostingAccounts{
	ReceivableCode: codeReceivable,
	PayableCode:    codePayable,
	RevenueCode:    codeRevenue,
	ExpenseCode:    codeExpense,
	OutputTaxCode:  codeOutputTax,
	InputTaxCode:   codeInputTax,
}

var fixedNow = time.Date(2024, time.April, 30, 12, 0, 0, 0, time.UTC)

// day returns midnight UTC of the given day in March 2024.
func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// fixture wires the services over a fresh memory store with a small chart of accounts.
type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	svc      *portssvc.ServiceContainer
	accounts map[string]string // code -> account ID
}

func newFixture(t *testing.T, options ...services.ServiceOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	opts := []services.ServiceOption{
		services.WithPostingAccounts(testPosting),
		services.WithClock(func() time.Time { return fixedNow }),
	}
	opts = append(opts, options...)

	f := &fixture{
		t:        t,
		ctx:      middleware.WithUserID(context.Background(), testUser),
		store:    store,
		svc:      services.NewServiceContainer(nil, memory.NewRepositoryProvider(store), opts...),
		accounts: make(map[string]string),
	}

	chart := []struct {
		code string
		name string
		typ  domain.AccountType
	}{
		{codeBank, "Bank", domain.Asset},
		{codeReceivable, "Trade receivables", domain.Asset},
		{codeInputTax, "Input VAT", domain.Asset},
		{codePayable, "Trade payables", domain.Liability},
		{codeOutputTax, "Output VAT", domain.Liability},
		{codeRevenue, "Sales", domain.Revenue},
		{codeServiceIncome, "Service income", domain.Revenue},
		{codeExpense, "Operating expenses", domain.Expense},
	}
	for _, a := range chart {
		acc, err := f.svc.Account.CreateAccount(f.ctx, dto.CreateAccountRequest{
			Code:        a.code,
			Name:        a.name,
			AccountType: a.typ,
		})
		require.NoError(t, err)
		f.accounts[a.code] = acc.AccountID
	}
	return f
}

func (f *fixture) account(code string) string {
	id, ok := f.accounts[code]
	require.True(f.t, ok, "unknown account code %s", code)
	return id
}

func (f *fixture) debit(code string, amount string) dto.AddLineRequest {
	return dto.AddLineRequest{AccountID: f.account(code), Amount: amt(amount), TransactionType: domain.Debit}
}

func (f *fixture) credit(code string, amount string) dto.AddLineRequest {
	return dto.AddLineRequest{AccountID: f.account(code), Amount: amt(amount), TransactionType: domain.Credit}
}

func withPartner(req dto.AddLineRequest, partnerID string) dto.AddLineRequest {
	req.PartnerID = &partnerID
	return req
}

// draft creates a draft entry dated on with the given lines.
func (f *fixture) draft(on time.Time, lines ...dto.AddLineRequest) *domain.JournalEntry {
	f.t.Helper()
	entry, err := f.svc.Journal.CreateEntry(f.ctx, dto.CreateEntryRequest{
		PostingDate:  on,
		DocumentDate: on,
		Description:  "test entry",
	})
	require.NoError(f.t, err)
	for _, l := range lines {
		_, err := f.svc.Journal.AddLine(f.ctx, entry.EntryID, l)
		require.NoError(f.t, err)
	}
	got, err := f.svc.Journal.GetEntryByID(f.ctx, entry.EntryID)
	require.NoError(f.t, err)
	return got
}

// post creates and posts an entry dated on with the given lines.
func (f *fixture) post(on time.Time, lines ...dto.AddLineRequest) *domain.JournalEntry {
	f.t.Helper()
	entry := f.draft(on, lines...)
	posted, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)
	require.NoError(f.t, err)
	return posted
}

// partnerLine returns the ID of the entry's line tagged to partnerID.
func partnerLine(t *testing.T, entry *domain.JournalEntry, partnerID string) string {
	t.Helper()
	for _, l := range entry.Lines {
		if l.BelongsToPartner(partnerID) {
			return l.LineID
		}
	}
	require.FailNow(t, "no partner line", "entry %s has no line for %s", entry.EntryID, partnerID)
	return ""
}

// --- Collaborator mocks ---

type MockPartnerDirectory struct {
	mock.Mock
}

var _ portssvc.PartnerDirectory = (*MockPartnerDirectory)(nil)

func (m *MockPartnerDirectory) PartnerExists(ctx context.Context, partnerID string) (bool, error) {
	args := m.Called(ctx, partnerID)
	return args.Bool(0), args.Error(1)
}

type MockCostCenterDirectory struct {
	mock.Mock
}

var _ portssvc.CostCenterDirectory = (*MockCostCenterDirectory)(nil)

func (m *MockCostCenterDirectory) CostCenterExists(ctx context.Context, costCenterID string) (bool, error) {
	args := m.Called(ctx, costCenterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCostCenterDirectory) ProfitCenterExists(ctx context.Context, profitCenterID string) (bool, error) {
	args := m.Called(ctx, profitCenterID)
	return args.Bool(0), args.Error(1)
}

type MockCostingFeed struct {
	mock.Mock
}

var _ portssvc.CostingFeed = (*MockCostingFeed)(nil)

func (m *MockCostingFeed) CostOfGoodsSold(ctx context.Context, q portssvc.CostingQuery) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockBudgetProvider struct {
	mock.Mock
}

var _ portssvc.BudgetProvider = (*MockBudgetProvider)(nil)

func (m *MockBudgetProvider) Budgets(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}
