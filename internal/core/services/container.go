package services

import (
	"time"

	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
)

const defaultOpenItemsPageSize = 200

// serviceDeps collects the optional collaborators shared by the services.
type serviceDeps struct {
	partners    portssvc.PartnerDirectory
	costCenters portssvc.CostCenterDirectory
	costing     portssvc.CostingFeed
	budgets     portssvc.BudgetProvider
	clock       func() time.Time
	posting     config.PostingAccounts
	pageSize    int
}

// ServiceOption is a functional option for configuring the services
type ServiceOption func(*serviceDeps)

// WithPartnerDirectory validates partner references against dir.
func WithPartnerDirectory(dir portssvc.PartnerDirectory) ServiceOption {
	return func(d *serviceDeps) {
		d.partners = dir
	}
}

// WithCostCenterDirectory validates cost and profit center references against dir.
func WithCostCenterDirectory(dir portssvc.CostCenterDirectory) ServiceOption {
	return func(d *serviceDeps) {
		d.costCenters = dir
	}
}

// WithCostingFeed supplies cost of goods sold to the income statement.
func WithCostingFeed(feed portssvc.CostingFeed) ServiceOption {
	return func(d *serviceDeps) {
		d.costing = feed
	}
}

// WithBudgetProvider supplies cost center budgets.
func WithBudgetProvider(p portssvc.BudgetProvider) ServiceOption {
	return func(d *serviceDeps) {
		d.budgets = p
	}
}

// WithClock replaces the wall clock used for audit and clearing timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(d *serviceDeps) {
		d.clock = clock
	}
}

// WithPostingAccounts sets the account codes used to post documents.
func WithPostingAccounts(accounts config.PostingAccounts) ServiceOption {
	return func(d *serviceDeps) {
		d.posting = accounts
	}
}

// WithOpenItemsPageSize sets how many open items are fetched per store round trip.
func WithOpenItemsPageSize(size int) ServiceOption {
	return func(d *serviceDeps) {
		if size > 0 {
			d.pageSize = size
		}
	}
}

func applyOptions(options []ServiceOption) *serviceDeps {
	deps := &serviceDeps{pageSize: defaultOpenItemsPageSize}
	for _, option := range options {
		option(deps)
	}
	return deps
}

func newPostingEngine(accountRepo portsrepo.AccountReader, options ...ServiceOption) *postingEngine {
	deps := applyOptions(options)
	return &postingEngine{
		BaseService: BaseService{clock: deps.clock},
		accountRepo: accountRepo,
		partners:    deps.partners,
		costCenters: deps.costCenters,
	}
}

// NewServiceContainer creates the service container with properly initialized dependencies.
// cfg may be nil, in which case only options configure the services.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	opts := make([]ServiceOption, 0, len(options)+2)
	if cfg != nil {
		opts = append(opts, WithPostingAccounts(cfg.Posting), WithOpenItemsPageSize(cfg.OpenItemsPageSize))
	}
	opts = append(opts, options...)

	return &portssvc.ServiceContainer{
		Account:   NewAccountService(repos.AccountRepo, opts...),
		Journal:   NewJournalService(repos.JournalRepo, repos.AccountRepo, repos.TxManager, opts...),
		Invoice:   NewInvoiceService(repos.InvoiceRepo, repos.AccountRepo, repos.TxManager, opts...),
		Payment:   NewPaymentService(repos.PaymentRepo, repos.InvoiceRepo, repos.AccountRepo, repos.TxManager, opts...),
		Clearing:  NewClearingService(repos.JournalRepo, opts...),
		Reporting: NewReportingService(repos.ReportingRepo, repos.AccountRepo, opts...),
	}
}
