package services

import (
	"context"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
)

// InvoiceSvcFacade drives the invoice lifecycle
type InvoiceSvcFacade interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	AddItem(ctx context.Context, invoiceID string, req dto.AddInvoiceItemRequest) (*domain.Invoice, error)
	RemoveItem(ctx context.Context, invoiceID string, itemID string) (*domain.Invoice, error)
	// PostInvoice posts the invoice and its balanced ledger entry in one unit of work.
	PostInvoice(ctx context.Context, invoiceID string, req dto.PostInvoiceRequest) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	// CancelInvoice cancels a draft or posted invoice; a posted invoice's entry is reversed.
	CancelInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

// PaymentSvcFacade drives the payment lifecycle
type PaymentSvcFacade interface {
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest) (*domain.Payment, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	// PostPayment posts the payment and its settlement entry in one unit of work.
	PostPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	// CancelPayment cancels a draft or posted payment; a posted payment's entry is reversed.
	CancelPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
}
