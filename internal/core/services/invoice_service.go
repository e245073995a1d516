package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
	"github.com/SscSPs/bookkeeping_core/internal/utils/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// invoiceService drives invoices from draft to posted, paid or cancelled.
type invoiceService struct {
	*postingEngine
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	txManager   portsrepo.TransactionManager
	posting     config.PostingAccounts
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(invoiceRepo portsrepo.InvoiceRepositoryFacade, accountRepo portsrepo.AccountReader, txManager portsrepo.TransactionManager, options ...ServiceOption) portssvc.InvoiceSvcFacade {
	deps := applyOptions(options)
	return &invoiceService{
		postingEngine: newPostingEngine(accountRepo, options...),
		invoiceRepo:   invoiceRepo,
		txManager:     txManager,
		posting:       deps.posting,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*domain.Invoice, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create invoice request", slog.String("number", req.Number))
		return nil, err
	}
	if req.DueDate.Before(req.IssueDate) {
		err := fmt.Errorf("%w: due date precedes issue date", apperrors.ErrValidation)
		s.LogWarn(ctx, err, "Invalid invoice dates", slog.String("number", req.Number))
		return nil, err
	}

	invoice := domain.Invoice{
		InvoiceID:       uuid.NewString(),
		Number:          req.Number,
		PartnerID:       req.PartnerID,
		Direction:       req.Direction,
		Status:          domain.InvoiceDraft,
		IssueDate:       req.IssueDate,
		DueDate:         req.DueDate,
		GrossAmount:     decimal.Zero,
		TaxAmount:       decimal.Zero,
		NetAmount:       decimal.Zero,
		PaidAmount:      decimal.Zero,
		Items:           []domain.InvoiceItem{},
		LedgerAccountID: req.LedgerAccountID,
		CostCenterID:    req.CostCenterID,
		ProfitCenterID:  req.ProfitCenterID,
		Version:         1,
		AuditFields:     domain.NewAuditFields(s.UserID(ctx), s.Now()),
	}
	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		s.LogFailure(ctx, err, "Failed to save invoice", slog.String("invoice_id", invoice.InvoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("number", invoice.Number))
	return &invoice, nil
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) AddItem(ctx context.Context, invoiceID string, req dto.AddInvoiceItemRequest) (*domain.Invoice, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid invoice item", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	if err := checkItemAmounts(req); err != nil {
		s.LogWarn(ctx, err, "Invalid invoice item amounts", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	invoice, err := s.loadDraft(ctx, invoiceID, "add item to")
	if err != nil {
		return nil, err
	}

	item := domain.InvoiceItem{
		ItemID:       uuid.NewString(),
		Description:  req.Description,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		TaxAmount:    req.TaxAmount,
		TaxBreakdown: req.TaxBreakdown,
	}
	item.ComputeTotal()
	invoice.Items = append(invoice.Items, item)

	if err := s.saveDraft(ctx, invoice); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Invoice item added",
		slog.String("invoice_id", invoiceID),
		slog.String("item_id", item.ItemID),
		slog.String("gross", invoice.GrossAmount.String()))
	return invoice, nil
}

func (s *invoiceService) RemoveItem(ctx context.Context, invoiceID string, itemID string) (*domain.Invoice, error) {
	invoice, err := s.loadDraft(ctx, invoiceID, "remove item from")
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, it := range invoice.Items {
		if it.ItemID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		err := fmt.Errorf("%w: item %s on invoice %s", apperrors.ErrNotFound, itemID, invoiceID)
		s.LogWarn(ctx, err, "Invoice item not found", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	invoice.Items = append(invoice.Items[:idx], invoice.Items[idx+1:]...)

	if err := s.saveDraft(ctx, invoice); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Invoice item removed",
		slog.String("invoice_id", invoiceID),
		slog.String("item_id", itemID))
	return invoice, nil
}

// PostInvoice posts the invoice and its recognition entry together. On any failure the invoice stays Draft.
func (s *invoiceService) PostInvoice(ctx context.Context, invoiceID string, req dto.PostInvoiceRequest) (*domain.Invoice, error) {
	var posted *domain.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		invoice, err := repos.Invoices().FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != domain.InvoiceDraft {
			return apperrors.NewStatusError("invoice", invoiceID, string(invoice.Status), "post")
		}
		if len(invoice.Items) == 0 {
			return fmt.Errorf("%w: invoice %s", apperrors.ErrEmptyInvoice, invoiceID)
		}
		invoice.RecomputeTotals()
		if !invoice.GrossAmount.IsPositive() {
			return fmt.Errorf("%w: invoice %s has a non-positive gross amount", apperrors.ErrValidation, invoiceID)
		}

		postingDate := invoice.IssueDate
		if req.PostingDate != nil {
			postingDate = *req.PostingDate
		}
		entry, err := s.buildInvoiceEntry(ctx, invoice, postingDate)
		if err != nil {
			return err
		}
		if err := s.postNewEntry(ctx, repos.Journals(), &entry); err != nil {
			return err
		}

		expected := invoice.Version
		invoice.Status = domain.InvoicePosted
		invoice.JournalEntryID = &entry.EntryID
		invoice.Version++
		invoice.Touch(s.UserID(ctx), s.Now())
		if err := repos.Invoices().UpdateInvoice(ctx, *invoice, expected); err != nil {
			return err
		}
		posted = invoice
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to post invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice posted",
		slog.String("invoice_id", invoiceID),
		slog.String("entry_id", *posted.JournalEntryID))
	return posted, nil
}

// MarkPaid settles a posted invoice by hand, for settlements made outside the payment flow.
// Once posted payments cover part of the invoice, the rest must be settled by payments too.
func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(domain.InvoicePaid) {
		err := apperrors.NewStatusError("invoice", invoiceID, string(invoice.Status), "mark paid")
		s.LogWarn(ctx, err, "Invoice cannot be marked paid", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	if invoice.PaidAmount.IsPositive() && invoice.Outstanding().IsPositive() {
		err := fmt.Errorf("%w: invoice %s is partly paid, post a payment for the outstanding %s",
			apperrors.ErrInvalidState, invoice.Number, invoice.Outstanding().String())
		s.LogWarn(ctx, err, "Invoice cannot be marked paid", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	expected := invoice.Version
	invoice.Status = domain.InvoicePaid
	invoice.Version++
	invoice.Touch(s.UserID(ctx), s.Now())
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice, expected); err != nil {
		s.LogFailure(ctx, err, "Failed to mark invoice paid", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice marked paid", slog.String("invoice_id", invoiceID))
	return invoice, nil
}

// CancelInvoice cancels a draft invoice, or a posted one together with the reversal of its entry.
func (s *invoiceService) CancelInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var cancelled *domain.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		invoice, err := repos.Invoices().FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch invoice.Status {
		case domain.InvoiceCancelled:
			return fmt.Errorf("%w: invoice %s", apperrors.ErrAlreadyCancelled, invoiceID)
		case domain.InvoicePaid:
			return apperrors.NewStatusError("invoice", invoiceID, string(invoice.Status), "cancel")
		case domain.InvoicePosted:
			if invoice.PaidAmount.IsPositive() {
				return fmt.Errorf("%w: invoice %s has posted payments of %s, cancel them first",
					apperrors.ErrInvalidState, invoiceID, invoice.PaidAmount.String())
			}
			if invoice.JournalEntryID == nil {
				return fmt.Errorf("%w: posted invoice %s has no journal entry", apperrors.ErrInternal, invoiceID)
			}
			reversal, err := s.reverseInTx(ctx, repos.Journals(), *invoice.JournalEntryID,
				fmt.Sprintf("invoice %s cancelled", invoice.Number), nil)
			if err != nil {
				return err
			}
			invoice.ReversalEntryID = &reversal.EntryID
		}

		expected := invoice.Version
		invoice.Status = domain.InvoiceCancelled
		invoice.Version++
		invoice.Touch(s.UserID(ctx), s.Now())
		if err := repos.Invoices().UpdateInvoice(ctx, *invoice, expected); err != nil {
			return err
		}
		cancelled = invoice
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to cancel invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice cancelled", slog.String("invoice_id", invoiceID))
	return cancelled, nil
}

// buildInvoiceEntry lays out the recognition entry of an invoice.
// Outbound: Dr receivable (gross), Cr revenue (net), Cr output tax.
// Inbound: Dr expense (net), Dr input tax, Cr payable (gross).
func (s *invoiceService) buildInvoiceEntry(ctx context.Context, invoice *domain.Invoice, postingDate time.Time) (domain.JournalEntry, error) {
	partnerCode, lineCode, taxCode := s.posting.ReceivableCode, s.posting.RevenueCode, s.posting.OutputTaxCode
	partnerSide := domain.Debit
	if invoice.Direction == domain.Inbound {
		partnerCode, lineCode, taxCode = s.posting.PayableCode, s.posting.ExpenseCode, s.posting.InputTaxCode
		partnerSide = domain.Credit
	}

	partnerAccountID, err := s.postingAccountID(ctx, partnerCode)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	var lineAccountID string
	if invoice.LedgerAccountID != nil {
		lineAccountID = *invoice.LedgerAccountID
	} else if lineAccountID, err = s.postingAccountID(ctx, lineCode); err != nil {
		return domain.JournalEntry{}, err
	}

	reference := invoice.Number
	entry := s.newEntry(ctx, postingDate, invoice.IssueDate,
		fmt.Sprintf("Invoice %s", invoice.Number), &reference)
	invoiceID := invoice.InvoiceID
	entry.SourceType = domain.SourceInvoice
	entry.SourceID = &invoiceID

	partnerID := invoice.PartnerID
	appendLine(&entry, domain.JournalLine{
		AccountID:       partnerAccountID,
		Amount:          invoice.GrossAmount,
		TransactionType: partnerSide,
		PartnerID:       &partnerID,
		Notes:           fmt.Sprintf("Invoice %s", invoice.Number),
	})
	if invoice.NetAmount.IsPositive() {
		appendLine(&entry, domain.JournalLine{
			AccountID:       lineAccountID,
			Amount:          invoice.NetAmount,
			TransactionType: partnerSide.Opposite(),
			CostCenterID:    invoice.CostCenterID,
			ProfitCenterID:  invoice.ProfitCenterID,
		})
	}
	if invoice.TaxAmount.IsPositive() {
		taxAccountID, err := s.postingAccountID(ctx, taxCode)
		if err != nil {
			return domain.JournalEntry{}, err
		}
		appendLine(&entry, domain.JournalLine{
			AccountID:       taxAccountID,
			Amount:          invoice.TaxAmount,
			TransactionType: partnerSide.Opposite(),
		})
	}
	return entry, nil
}

func (s *invoiceService) loadDraft(ctx context.Context, invoiceID string, operation string) (*domain.Invoice, error) {
	invoice, err := s.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.InvoiceDraft {
		err := apperrors.NewStatusError("invoice", invoiceID, string(invoice.Status), operation)
		s.LogWarn(ctx, err, "Invoice is not a draft", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) saveDraft(ctx context.Context, invoice *domain.Invoice) error {
	invoice.RecomputeTotals()
	expected := invoice.Version
	invoice.Version++
	invoice.Touch(s.UserID(ctx), s.Now())
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice, expected); err != nil {
		s.LogFailure(ctx, err, "Failed to update invoice", slog.String("invoice_id", invoice.InvoiceID))
		return err
	}
	return nil
}

func checkItemAmounts(req dto.AddInvoiceItemRequest) error {
	if err := requirePositive("quantity", req.Quantity); err != nil {
		return err
	}
	if req.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", apperrors.ErrValidation)
	}
	if req.TaxAmount.IsNegative() {
		return fmt.Errorf("%w: tax amount must not be negative", apperrors.ErrValidation)
	}
	return nil
}

// postingAccountID resolves a configured posting account code to its account ID.
func (s *invoiceService) postingAccountID(ctx context.Context, code string) (string, error) {
	return resolvePostingAccount(ctx, s.accountRepo, code)
}

func resolvePostingAccount(ctx context.Context, accounts portsrepo.AccountReader, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: posting account code is not configured", apperrors.ErrValidation)
	}
	acc, err := accounts.FindAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: posting account %s does not exist", apperrors.ErrValidation, code)
		}
		return "", err
	}
	return acc.AccountID, nil
}
