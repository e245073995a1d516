package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_core/internal/models"
	"github.com/SscSPs/bookkeeping_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	invoiceColumns = `invoice_id, number, partner_id, direction, status, issue_date, due_date,
	gross_amount, tax_amount, net_amount, paid_amount, ledger_account_id, cost_center_id, profit_center_id,
	journal_entry_id, reversal_entry_id, version, created_at, created_by, last_updated_at, last_updated_by`

	invoiceItemColumns = `item_id, invoice_id, position, description, quantity, unit_price, tax_amount, total, tax_breakdown`

	paymentColumns = `payment_id, partner_id, invoice_id, settlement_account_id, direction, amount, payment_date,
	method, status, journal_entry_id, reversal_entry_id, version, created_at, created_by, last_updated_at, last_updated_by`
)

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoices and their items.
func newPgxInvoiceRepository(pool *pgxpool.Pool) *PgxInvoiceRepository {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

// FindInvoiceByID retrieves an invoice with its items in their original order.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	rows, err := r.db().Query(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE invoice_id = $1", invoiceID)
	if err != nil {
		return nil, mapPgError(err, "find invoice "+invoiceID)
	}
	header, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Invoice])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("invoice " + invoiceID)
	}
	if err != nil {
		return nil, mapPgError(err, "scan invoice "+invoiceID)
	}

	rows, err = r.db().Query(ctx,
		"SELECT "+invoiceItemColumns+" FROM invoice_items WHERE invoice_id = $1 ORDER BY position", invoiceID)
	if err != nil {
		return nil, mapPgError(err, "find items of invoice "+invoiceID)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.InvoiceItem])
	if err != nil {
		return nil, mapPgError(err, "scan items of invoice "+invoiceID)
	}

	inv := mapping.ToDomainInvoice(header, items)
	return &inv, nil
}

// SaveInvoice inserts a new invoice with its items.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	return r.withinTx(ctx, func(q querier) error {
		query := `
			INSERT INTO invoices (` + invoiceColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
		`
		_, err := q.Exec(ctx, query,
			m.InvoiceID,
			m.Number,
			m.PartnerID,
			m.Direction,
			m.Status,
			m.IssueDate,
			m.DueDate,
			m.GrossAmount,
			m.TaxAmount,
			m.NetAmount,
			m.PaidAmount,
			m.LedgerAccountID,
			m.CostCenterID,
			m.ProfitCenterID,
			m.JournalEntryID,
			m.ReversalEntryID,
			m.Version,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
		if err != nil {
			return mapPgError(err, "insert invoice "+m.InvoiceID)
		}
		return insertInvoiceItems(ctx, q, mapping.ToModelInvoiceItems(invoice))
	})
}

// UpdateInvoice rewrites the invoice under a version guard and replaces its items.
func (r *PgxInvoiceRepository) UpdateInvoice(ctx context.Context, invoice domain.Invoice, expectedVersion int64) error {
	m := mapping.ToModelInvoice(invoice)
	return r.withinTx(ctx, func(q querier) error {
		query := `
			UPDATE invoices
			SET number = $2, partner_id = $3, direction = $4, status = $5, issue_date = $6, due_date = $7,
				gross_amount = $8, tax_amount = $9, net_amount = $10, paid_amount = $11,
				ledger_account_id = $12, cost_center_id = $13, profit_center_id = $14,
				journal_entry_id = $15, reversal_entry_id = $16, version = $17,
				last_updated_at = $18, last_updated_by = $19
			WHERE invoice_id = $1 AND version = $20;
		`
		cmdTag, err := q.Exec(ctx, query,
			m.InvoiceID,
			m.Number,
			m.PartnerID,
			m.Direction,
			m.Status,
			m.IssueDate,
			m.DueDate,
			m.GrossAmount,
			m.TaxAmount,
			m.NetAmount,
			m.PaidAmount,
			m.LedgerAccountID,
			m.CostCenterID,
			m.ProfitCenterID,
			m.JournalEntryID,
			m.ReversalEntryID,
			m.Version,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
			expectedVersion,
		)
		if err != nil {
			return mapPgError(err, "update invoice "+m.InvoiceID)
		}
		if cmdTag.RowsAffected() == 0 {
			return versionMismatch(ctx, q, "invoices", "invoice_id", m.InvoiceID, expectedVersion)
		}
		if _, err := q.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", m.InvoiceID); err != nil {
			return mapPgError(err, "delete items of invoice "+m.InvoiceID)
		}
		return insertInvoiceItems(ctx, q, mapping.ToModelInvoiceItems(invoice))
	})
}

func insertInvoiceItems(ctx context.Context, q querier, items []models.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO invoice_items (` + invoiceItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, it := range items {
		batch.Queue(query,
			it.ItemID,
			it.InvoiceID,
			it.Position,
			it.Description,
			it.Quantity,
			it.UnitPrice,
			it.TaxAmount,
			it.Total,
			it.TaxBreakdown,
		)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "write invoice items")
	}
	return nil
}

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payments.
func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

// FindPaymentByID retrieves a payment by its ID.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	rows, err := r.db().Query(ctx, "SELECT "+paymentColumns+" FROM payments WHERE payment_id = $1", paymentID)
	if err != nil {
		return nil, mapPgError(err, "find payment "+paymentID)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Payment])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("payment " + paymentID)
	}
	if err != nil {
		return nil, mapPgError(err, "scan payment "+paymentID)
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

// ListPaymentsByInvoice returns every payment linked to invoiceID ordered by payment date.
func (r *PgxPaymentRepository) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	rows, err := r.db().Query(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE invoice_id = $1 ORDER BY payment_date, payment_id", invoiceID)
	if err != nil {
		return nil, mapPgError(err, "list payments of invoice "+invoiceID)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, mapPgError(err, "scan payments of invoice "+invoiceID)
	}
	out := make([]domain.Payment, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainPayment(m)
	}
	return out, nil
}

// SavePayment inserts a new payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.db().Exec(ctx, query,
		m.PaymentID,
		m.PartnerID,
		m.InvoiceID,
		m.SettlementAccountID,
		m.Direction,
		m.Amount,
		m.PaymentDate,
		m.Method,
		m.Status,
		m.JournalEntryID,
		m.ReversalEntryID,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "insert payment "+m.PaymentID)
	}
	return nil
}

// UpdatePayment rewrites the payment under a version guard.
func (r *PgxPaymentRepository) UpdatePayment(ctx context.Context, payment domain.Payment, expectedVersion int64) error {
	m := mapping.ToModelPayment(payment)
	query := `
		UPDATE payments
		SET partner_id = $2, invoice_id = $3, settlement_account_id = $4, direction = $5, amount = $6,
			payment_date = $7, method = $8, status = $9, journal_entry_id = $10, reversal_entry_id = $11,
			version = $12, last_updated_at = $13, last_updated_by = $14
		WHERE payment_id = $1 AND version = $15;
	`
	cmdTag, err := r.db().Exec(ctx, query,
		m.PaymentID,
		m.PartnerID,
		m.InvoiceID,
		m.SettlementAccountID,
		m.Direction,
		m.Amount,
		m.PaymentDate,
		m.Method,
		m.Status,
		m.JournalEntryID,
		m.ReversalEntryID,
		m.Version,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		expectedVersion,
	)
	if err != nil {
		return mapPgError(err, "update payment "+m.PaymentID)
	}
	if cmdTag.RowsAffected() == 0 {
		return versionMismatch(ctx, r.db(), "payments", "payment_id", m.PaymentID, expectedVersion)
	}
	return nil
}
