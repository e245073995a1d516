package pgsql

import (
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider exposes the PostgreSQL store through the repository ports.
// streamBatch is the number of lines fetched per round trip by report streams.
func NewRepositoryProvider(dbPool *pgxpool.Pool, streamBatch int) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   newPgxAccountRepository(dbPool),
		JournalRepo:   newPgxJournalRepository(dbPool),
		InvoiceRepo:   newPgxInvoiceRepository(dbPool),
		PaymentRepo:   newPgxPaymentRepository(dbPool),
		ReportingRepo: newReportingRepository(dbPool, streamBatch),
		TxManager:     newPgxTransactionManager(dbPool),
	}
}
