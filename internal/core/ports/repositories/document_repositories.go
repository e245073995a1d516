package repositories

import (
	"context"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// InvoiceReader defines read operations for invoices
type InvoiceReader interface {
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoices
type InvoiceWriter interface {
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error
	// UpdateInvoice replaces the invoice if the stored version equals expectedVersion.
	UpdateInvoice(ctx context.Context, invoice domain.Invoice, expectedVersion int64) error
}

// InvoiceRepositoryFacade combines invoice read and write operations
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}

// PaymentReader defines read operations for payments
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	// ListPaymentsByInvoice returns every payment linked to invoiceID, whatever its status.
	ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error)
}

// PaymentWriter defines write operations for payments
type PaymentWriter interface {
	SavePayment(ctx context.Context, payment domain.Payment) error
	// UpdatePayment replaces the payment if the stored version equals expectedVersion.
	UpdatePayment(ctx context.Context, payment domain.Payment, expectedVersion int64) error
}

// PaymentRepositoryFacade combines payment read and write operations
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
