package services

import (
	"context"
	"fmt"
	"log/slog"

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

// paymentService drives payments and settles the invoices they are linked to.
type paymentService struct {
	*postingEngine
	paymentRepo portsrepo.PaymentRepositoryFacade
	invoiceRepo portsrepo.InvoiceReader
	txManager   portsrepo.TransactionManager
	posting     config.PostingAccounts
}

// NewPaymentService creates a new payment service.
func NewPaymentService(paymentRepo portsrepo.PaymentRepositoryFacade, invoiceRepo portsrepo.InvoiceReader, accountRepo portsrepo.AccountReader, txManager portsrepo.TransactionManager, options ...ServiceOption) portssvc.PaymentSvcFacade {
	deps := applyOptions(options)
	return &paymentService{
		postingEngine: newPostingEngine(accountRepo, options...),
		paymentRepo:   paymentRepo,
		invoiceRepo:   invoiceRepo,
		txManager:     txManager,
		posting:       deps.posting,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest) (*domain.Payment, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create payment request")
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		s.LogWarn(ctx, err, "Invalid payment amount")
		return nil, err
	}

	direction := req.Direction
	if req.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, *req.InvoiceID)
		if err != nil {
			s.LogFailure(ctx, err, "Failed to find linked invoice", slog.String("invoice_id", *req.InvoiceID))
			return nil, err
		}
		if invoice.PartnerID != req.PartnerID {
			err := fmt.Errorf("%w: payment partner %s does not match invoice partner %s",
				apperrors.ErrValidation, req.PartnerID, invoice.PartnerID)
			s.LogWarn(ctx, err, "Payment partner mismatch", slog.String("invoice_id", invoice.InvoiceID))
			return nil, err
		}
		settles := domain.DirectionFor(invoice.Direction)
		if direction != "" && direction != settles {
			err := fmt.Errorf("%w: a %s invoice is settled by an %s payment",
				apperrors.ErrValidation, invoice.Direction, settles)
			s.LogWarn(ctx, err, "Payment direction mismatch", slog.String("invoice_id", invoice.InvoiceID))
			return nil, err
		}
		direction = settles
	}
	if !direction.Valid() {
		err := fmt.Errorf("%w: direction is required for a payment without invoice", apperrors.ErrValidation)
		s.LogWarn(ctx, err, "Payment direction missing")
		return nil, err
	}

	if _, err := s.accountRepo.FindAccountByID(ctx, req.SettlementAccountID); err != nil {
		err = translateMissing(err, "settlement account "+req.SettlementAccountID)
		s.LogFailure(ctx, err, "Invalid settlement account")
		return nil, err
	}

	payment := domain.Payment{
		PaymentID:           uuid.NewString(),
		PartnerID:           req.PartnerID,
		InvoiceID:           req.InvoiceID,
		SettlementAccountID: req.SettlementAccountID,
		Direction:           direction,
		Amount:              req.Amount,
		PaymentDate:         req.PaymentDate,
		Method:              req.Method,
		Status:              domain.PaymentDraft,
		Version:             1,
		AuditFields:         domain.NewAuditFields(s.UserID(ctx), s.Now()),
	}
	if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
		s.LogFailure(ctx, err, "Failed to save payment", slog.String("payment_id", payment.PaymentID))
		return nil, err
	}

	s.LogInfo(ctx, "Payment created",
		slog.String("payment_id", payment.PaymentID),
		slog.String("direction", string(payment.Direction)),
		slog.String("amount", payment.Amount.String()))
	return &payment, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get payment", slog.String("payment_id", paymentID))
		return nil, err
	}
	return payment, nil
}

// PostPayment posts the payment with its settlement entry. A linked invoice accumulates the paid
// amount and, once fully covered, becomes Paid with its open items cleared, all in the same unit of work.
func (s *paymentService) PostPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var posted *domain.Payment
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		payment, err := repos.Payments().FindPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentDraft {
			return apperrors.NewStatusError("payment", paymentID, string(payment.Status), "post")
		}

		var invoice *domain.Invoice
		if payment.InvoiceID != nil {
			invoice, err = repos.Invoices().FindInvoiceByID(ctx, *payment.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.Status != domain.InvoicePosted {
				return apperrors.NewStatusError("invoice", invoice.InvoiceID, string(invoice.Status), "settle")
			}
			if payment.Amount.GreaterThan(invoice.Outstanding()) {
				return fmt.Errorf("%w: payment %s exceeds outstanding amount %s of invoice %s",
					apperrors.ErrValidation, payment.Amount.String(), invoice.Outstanding().String(), invoice.Number)
			}
		}

		entry, err := s.buildPaymentEntry(ctx, payment)
		if err != nil {
			return err
		}
		if err := s.postNewEntry(ctx, repos.Journals(), &entry); err != nil {
			return err
		}

		expected := payment.Version
		payment.Status = domain.PaymentPosted
		payment.JournalEntryID = &entry.EntryID
		payment.Version++
		payment.Touch(s.UserID(ctx), s.Now())
		if err := repos.Payments().UpdatePayment(ctx, *payment, expected); err != nil {
			return err
		}

		if invoice != nil {
			if err := s.applyToInvoice(ctx, repos, invoice, payment); err != nil {
				return err
			}
		}
		posted = payment
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to post payment", slog.String("payment_id", paymentID))
		return nil, err
	}

	s.LogInfo(ctx, "Payment posted",
		slog.String("payment_id", paymentID),
		slog.String("entry_id", *posted.JournalEntryID))
	return posted, nil
}

// CancelPayment cancels a draft payment, or a posted one together with the reversal of its entry.
func (s *paymentService) CancelPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var cancelled *domain.Payment
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		payment, err := repos.Payments().FindPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}
		switch payment.Status {
		case domain.PaymentCancelled:
			return fmt.Errorf("%w: payment %s", apperrors.ErrAlreadyCancelled, paymentID)
		case domain.PaymentPosted:
			if err := s.unwindPosted(ctx, repos, payment); err != nil {
				return err
			}
		}

		expected := payment.Version
		payment.Status = domain.PaymentCancelled
		payment.Version++
		payment.Touch(s.UserID(ctx), s.Now())
		if err := repos.Payments().UpdatePayment(ctx, *payment, expected); err != nil {
			return err
		}
		cancelled = payment
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to cancel payment", slog.String("payment_id", paymentID))
		return nil, err
	}

	s.LogInfo(ctx, "Payment cancelled", slog.String("payment_id", paymentID))
	return cancelled, nil
}

// unwindPosted reverses a posted payment's entry and takes its amount off the linked invoice.
func (s *paymentService) unwindPosted(ctx context.Context, repos portsrepo.TxRepositories, payment *domain.Payment) error {
	var invoice *domain.Invoice
	if payment.InvoiceID != nil {
		var err error
		invoice, err = repos.Invoices().FindInvoiceByID(ctx, *payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == domain.InvoicePaid {
			return fmt.Errorf("%w: invoice %s is already paid, reverse its settlement first",
				apperrors.ErrInvalidState, invoice.Number)
		}
	}
	if payment.JournalEntryID == nil {
		return fmt.Errorf("%w: posted payment %s has no journal entry", apperrors.ErrInternal, payment.PaymentID)
	}

	reversal, err := s.reverseInTx(ctx, repos.Journals(), *payment.JournalEntryID,
		fmt.Sprintf("payment %s cancelled", payment.PaymentID), nil)
	if err != nil {
		return err
	}
	payment.ReversalEntryID = &reversal.EntryID

	if invoice != nil && invoice.Status == domain.InvoicePosted {
		expected := invoice.Version
		invoice.PaidAmount = decimal.Max(invoice.PaidAmount.Sub(payment.Amount), decimal.Zero)
		invoice.Version++
		invoice.Touch(s.UserID(ctx), s.Now())
		if err := repos.Invoices().UpdateInvoice(ctx, *invoice, expected); err != nil {
			return err
		}
	}
	return nil
}

// applyToInvoice adds payment to the invoice's paid amount. When the invoice is fully paid it
// becomes Paid and the partner lines of the invoice and all its posted payments are cleared together.
func (s *paymentService) applyToInvoice(ctx context.Context, repos portsrepo.TxRepositories, invoice *domain.Invoice, payment *domain.Payment) error {
	expected := invoice.Version
	invoice.PaidAmount = invoice.PaidAmount.Add(payment.Amount)
	fullyPaid := invoice.PaidAmount.Equal(invoice.GrossAmount)
	if fullyPaid {
		invoice.Status = domain.InvoicePaid
	}
	invoice.Version++
	invoice.Touch(s.UserID(ctx), s.Now())

	if fullyPaid {
		if err := s.settleInvoice(ctx, repos, invoice, payment); err != nil {
			return err
		}
	}
	if err := repos.Invoices().UpdateInvoice(ctx, *invoice, expected); err != nil {
		return err
	}
	if fullyPaid {
		s.LogInfo(ctx, "Invoice settled by payments",
			slog.String("invoice_id", invoice.InvoiceID),
			slog.String("payment_id", payment.PaymentID))
	}
	return nil
}

// settleInvoice clears the partner lines of a fully paid invoice and its payments.
// Lines already cleared by hand leave the group untouched.
func (s *paymentService) settleInvoice(ctx context.Context, repos portsrepo.TxRepositories, invoice *domain.Invoice, current *domain.Payment) error {
	entryIDs := []string{}
	if invoice.JournalEntryID != nil {
		entryIDs = append(entryIDs, *invoice.JournalEntryID)
	}
	entryIDs = append(entryIDs, *current.JournalEntryID)

	payments, err := repos.Payments().ListPaymentsByInvoice(ctx, invoice.InvoiceID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.PaymentID == current.PaymentID || p.Status != domain.PaymentPosted || p.JournalEntryID == nil {
			continue
		}
		entryIDs = append(entryIDs, *p.JournalEntryID)
	}

	lines := make([]domain.JournalLine, 0, len(entryIDs))
	for _, id := range entryIDs {
		entry, err := repos.Journals().FindEntryByID(ctx, id)
		if err != nil {
			return err
		}
		for _, l := range entry.Lines {
			if l.BelongsToPartner(invoice.PartnerID) {
				lines = append(lines, l)
			}
		}
	}

	lineIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.IsCleared() {
			s.LogInfo(ctx, "Skipping automatic clearing, a line is already cleared",
				slog.String("invoice_id", invoice.InvoiceID),
				slog.String("line_id", l.LineID))
			return nil
		}
		lineIDs = append(lineIDs, l.LineID)
	}
	if residual := domain.SignedSum(lines); !residual.IsZero() {
		s.LogInfo(ctx, "Skipping automatic clearing, partner lines do not net to zero",
			slog.String("invoice_id", invoice.InvoiceID),
			slog.String("residual", residual.String()))
		return nil
	}

	clearingID := uuid.NewString()
	if err := repos.Journals().StampClearing(ctx, lineIDs, clearingID, s.Now()); err != nil {
		return err
	}
	s.LogInfo(ctx, "Invoice open items cleared",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("clearing_id", clearingID),
		slog.Int("lines", len(lineIDs)))
	return nil
}

// buildPaymentEntry lays out the settlement entry of a payment.
// Incoming: Dr settlement account, Cr receivable. Outgoing: Dr payable, Cr settlement account.
func (s *paymentService) buildPaymentEntry(ctx context.Context, payment *domain.Payment) (domain.JournalEntry, error) {
	code, partnerSide := s.posting.ReceivableCode, domain.Credit
	if payment.Direction == domain.Outgoing {
		code, partnerSide = s.posting.PayableCode, domain.Debit
	}
	partnerAccountID, err := resolvePostingAccount(ctx, s.accountRepo, code)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	reference := payment.PaymentID
	entry := s.newEntry(ctx, payment.PaymentDate, payment.PaymentDate,
		fmt.Sprintf("Payment %s (%s)", payment.PaymentID, payment.Method), &reference)
	entry.SourceType = domain.SourcePayment
	entry.SourceID = &reference

	partnerID := payment.PartnerID
	appendLine(&entry, domain.JournalLine{
		AccountID:       payment.SettlementAccountID,
		Amount:          payment.Amount,
		TransactionType: partnerSide.Opposite(),
	})
	appendLine(&entry, domain.JournalLine{
		AccountID:       partnerAccountID,
		Amount:          payment.Amount,
		TransactionType: partnerSide,
		PartnerID:       &partnerID,
	})
	return entry, nil
}
