package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
)

// invoiceRepo implements portsrepo.InvoiceRepositoryFacade.
type invoiceRepo struct {
	s  *Store
	tx *txn
}

var _ portsrepo.InvoiceRepositoryFacade = (*invoiceRepo)(nil)

func (r *invoiceRepo) invoice(id string) (domain.Invoice, bool) {
	if r.tx != nil {
		if st, ok := r.tx.invoices[id]; ok {
			return st.value.Clone(), true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return domain.Invoice{}, false
	}
	return inv.Clone(), true
}

func (r *invoiceRepo) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, ok := r.invoice(invoiceID)
	if !ok {
		return nil, apperrors.NewNotFoundError("invoice " + invoiceID)
	}
	return &inv, nil
}

func (r *invoiceRepo) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	if r.tx == nil {
		return r.s.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
			return repos.Invoices().SaveInvoice(ctx, invoice)
		})
	}
	if _, ok := r.invoice(invoice.InvoiceID); ok {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, invoice.InvoiceID)
	}
	stage(r.tx.invoices, invoice.InvoiceID, invoice.Clone(), 0, true)
	return nil
}

func (r *invoiceRepo) UpdateInvoice(ctx context.Context, invoice domain.Invoice, expectedVersion int64) error {
	if r.tx == nil {
		return r.s.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
			return repos.Invoices().UpdateInvoice(ctx, invoice, expectedVersion)
		})
	}
	current, ok := r.invoice(invoice.InvoiceID)
	if !ok {
		return apperrors.NewNotFoundError("invoice " + invoice.InvoiceID)
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError(fmt.Sprintf("invoice %s is at version %d, expected %d", invoice.InvoiceID, current.Version, expectedVersion))
	}
	stage(r.tx.invoices, invoice.InvoiceID, invoice.Clone(), current.Version, false)
	return nil
}

// paymentRepo implements portsrepo.PaymentRepositoryFacade.
type paymentRepo struct {
	s  *Store
	tx *txn
}

var _ portsrepo.PaymentRepositoryFacade = (*paymentRepo)(nil)

func (r *paymentRepo) payment(id string) (domain.Payment, bool) {
	if r.tx != nil {
		if st, ok := r.tx.payments[id]; ok {
			return st.value, true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	return p, ok
}

func (r *paymentRepo) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := r.payment(paymentID)
	if !ok {
		return nil, apperrors.NewNotFoundError("payment " + paymentID)
	}
	return &p, nil
}

func (r *paymentRepo) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	byID := make(map[string]domain.Payment)
	r.s.mu.RLock()
	for id, p := range r.s.payments {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			byID[id] = p
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, st := range r.tx.payments {
			if st.value.InvoiceID != nil && *st.value.InvoiceID == invoiceID {
				byID[id] = st.value
			} else {
				delete(byID, id)
			}
		}
	}

	out := make([]domain.Payment, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.Before(out[j].PaymentDate)
		}
		return out[i].PaymentID < out[j].PaymentID
	})
	return out, nil
}

func (r *paymentRepo) SavePayment(ctx context.Context, payment domain.Payment) error {
	if r.tx == nil {
		return r.s.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
			return repos.Payments().SavePayment(ctx, payment)
		})
	}
	if _, ok := r.payment(payment.PaymentID); ok {
		return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
	}
	stage(r.tx.payments, payment.PaymentID, payment, 0, true)
	return nil
}

func (r *paymentRepo) UpdatePayment(ctx context.Context, payment domain.Payment, expectedVersion int64) error {
	if r.tx == nil {
		return r.s.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
			return repos.Payments().UpdatePayment(ctx, payment, expectedVersion)
		})
	}
	current, ok := r.payment(payment.PaymentID)
	if !ok {
		return apperrors.NewNotFoundError("payment " + payment.PaymentID)
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError(fmt.Sprintf("payment %s is at version %d, expected %d", payment.PaymentID, current.Version, expectedVersion))
	}
	stage(r.tx.payments, payment.PaymentID, payment, current.Version, false)
	return nil
}
