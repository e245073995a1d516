package repositories

import (
	"context"
)

// TxRepositories exposes the repositories bound to one unit of work.
// Writes made through them become visible together when the unit commits, or not at all.
type TxRepositories interface {
	Journals() JournalRepositoryFacade
	Invoices() InvoiceRepositoryFacade
	Payments() PaymentRepositoryFacade
}

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// WithTransaction runs fn in a unit of work. It commits if fn returns nil and
	// rolls back otherwise. Version conflicts detected at commit return apperrors.ErrConflict.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
