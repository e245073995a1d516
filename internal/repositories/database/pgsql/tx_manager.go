package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionManager runs units of work on one pgx transaction.
type PgxTransactionManager struct {
	BaseRepository
}

func newPgxTransactionManager(pool *pgxpool.Pool) *PgxTransactionManager {
	return &PgxTransactionManager{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionManager = (*PgxTransactionManager)(nil)

// WithTransaction begins a transaction, hands fn repositories bound to it and commits when fn succeeds.
func (m *PgxTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer m.Rollback(context.WithoutCancel(ctx), tx) // Ignored once committed

	if err := fn(ctx, &txRepositories{base: BaseRepository{Pool: m.Pool, Tx: tx}}); err != nil {
		return err
	}
	return m.Commit(ctx, tx)
}

// txRepositories binds every repository to the same pgx.Tx.
type txRepositories struct {
	base BaseRepository
}

var _ portsrepo.TxRepositories = (*txRepositories)(nil)

func (t *txRepositories) Journals() portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: t.base}
}

func (t *txRepositories) Invoices() portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{BaseRepository: t.base}
}

func (t *txRepositories) Payments() portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: t.base}
}
