package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/utils/validation"
)

// journalService provides core journal and line operations.
type journalService struct {
	*postingEngine
	journalRepo portsrepo.JournalRepositoryFacade
	txManager   portsrepo.TransactionManager
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, txManager portsrepo.TransactionManager, options ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		postingEngine: newPostingEngine(accountRepo, options...),
		journalRepo:   journalRepo,
		txManager:     txManager,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// CreateEntry creates a new draft entry.
func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest) (*domain.JournalEntry, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create entry request")
		return nil, err
	}

	entry := s.newEntry(ctx, req.PostingDate, req.DocumentDate, req.Description, req.Reference)
	if err := s.journalRepo.SaveEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save journal entry", slog.String("entry_id", entry.EntryID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	s.LogInfo(ctx, "Journal entry created", slog.String("entry_id", entry.EntryID))
	return &entry, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Journal entry not found", slog.String("entry_id", entryID))
		} else {
			s.LogError(ctx, err, "Failed to find journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

// AddLine appends a line to a draft entry.
func (s *journalService) AddLine(ctx context.Context, entryID string, req dto.AddLineRequest) (*domain.JournalLine, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid add line request", slog.String("entry_id", entryID))
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		s.LogWarn(ctx, err, "Invalid line amount", slog.String("entry_id", entryID))
		return nil, err
	}

	entry, err := s.loadDraft(ctx, entryID, "add line to")
	if err != nil {
		return nil, err
	}

	candidate := domain.JournalLine{
		AccountID:       req.AccountID,
		Amount:          req.Amount,
		TransactionType: req.TransactionType,
		CostCenterID:    req.CostCenterID,
		ProfitCenterID:  req.ProfitCenterID,
		PartnerID:       req.PartnerID,
		Notes:           req.Notes,
	}
	if err := s.checkLineRefs(ctx, []domain.JournalLine{candidate}); err != nil {
		s.LogFailure(ctx, err, "Line references rejected", slog.String("entry_id", entryID))
		return nil, err
	}

	line := appendLine(entry, candidate)
	if err := s.saveDraft(ctx, entry); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Line added to journal entry",
		slog.String("entry_id", entryID),
		slog.String("line_id", line.LineID))
	return &line, nil
}

// RemoveLine removes a line from a draft entry.
func (s *journalService) RemoveLine(ctx context.Context, entryID string, lineID string) error {
	entry, err := s.loadDraft(ctx, entryID, "remove line from")
	if err != nil {
		return err
	}

	idx := entry.LineByID(lineID)
	if idx < 0 {
		err := fmt.Errorf("%w: line %s on entry %s", apperrors.ErrNotFound, lineID, entryID)
		s.LogWarn(ctx, err, "Line not found", slog.String("entry_id", entryID))
		return err
	}
	entry.Lines = append(entry.Lines[:idx], entry.Lines[idx+1:]...)

	if err := s.saveDraft(ctx, entry); err != nil {
		return err
	}
	s.LogInfo(ctx, "Line removed from journal entry",
		slog.String("entry_id", entryID),
		slog.String("line_id", lineID))
	return nil
}

// PostEntry posts a draft entry if it balances.
func (s *journalService) PostEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := checkPostable(entry); err != nil {
		s.LogWarn(ctx, err, "Journal entry cannot be posted", slog.String("entry_id", entryID))
		return nil, err
	}
	// Accounts may have been deactivated since the lines were added.
	if err := s.checkLineRefs(ctx, entry.Lines); err != nil {
		s.LogFailure(ctx, err, "Line references rejected at post time", slog.String("entry_id", entryID))
		return nil, err
	}

	expected := entry.Version
	entry.Status = domain.Posted
	entry.Version++
	entry.Touch(s.UserID(ctx), s.Now())
	if err := s.journalRepo.UpdateEntry(ctx, *entry, expected); err != nil {
		s.LogFailure(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry posted", slog.String("entry_id", entryID))
	return entry, nil
}

// CancelEntry cancels a draft or posted entry whose lines are not cleared.
func (s *journalService) CancelEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == domain.Cancelled {
		err := fmt.Errorf("%w: journal entry %s", apperrors.ErrAlreadyCancelled, entryID)
		s.LogWarn(ctx, err, "Journal entry already cancelled", slog.String("entry_id", entryID))
		return nil, err
	}
	if err := checkManualEntry(entry, "cancel"); err != nil {
		s.LogWarn(ctx, err, "Journal entry cannot be cancelled", slog.String("entry_id", entryID))
		return nil, err
	}
	if entry.HasClearedLines() {
		err := fmt.Errorf("%w: entry %s has cleared lines, reset the clearing first", apperrors.ErrInvalidState, entryID)
		s.LogWarn(ctx, err, "Journal entry cannot be cancelled", slog.String("entry_id", entryID))
		return nil, err
	}

	expected := entry.Version
	entry.Status = domain.Cancelled
	entry.Version++
	entry.Touch(s.UserID(ctx), s.Now())
	if err := s.journalRepo.UpdateEntry(ctx, *entry, expected); err != nil {
		s.LogFailure(ctx, err, "Failed to cancel journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry cancelled", slog.String("entry_id", entryID))
	return entry, nil
}

// ReverseEntry creates and posts the mirror of a posted entry and cancels the original in one unit of work.
func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest) (*domain.JournalEntry, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid reverse entry request", slog.String("entry_id", entryID))
		return nil, err
	}

	var reversal *domain.JournalEntry
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		original, err := repos.Journals().FindEntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		if err := checkManualEntry(original, "reverse"); err != nil {
			return err
		}
		reversal, err = s.reverseInTx(ctx, repos.Journals(), entryID, req.Reason, req.PostingDate)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	return reversal, nil
}

// checkManualEntry rejects direct lifecycle changes on entries generated by a document.
// Those follow their invoice or payment through CancelInvoice and CancelPayment.
func checkManualEntry(entry *domain.JournalEntry, operation string) error {
	if !entry.IsDocumentOwned() {
		return nil
	}
	document, cancelVia := "invoice", "CancelInvoice"
	if entry.SourceType == domain.SourcePayment {
		document, cancelVia = "payment", "CancelPayment"
	}
	if entry.SourceID != nil {
		document += " " + *entry.SourceID
	}
	return fmt.Errorf("%w: cannot %s entry %s, it belongs to %s, use %s instead",
		apperrors.ErrInvalidState, operation, entry.EntryID, document, cancelVia)
}

func (s *journalService) loadDraft(ctx context.Context, entryID string, operation string) (*domain.JournalEntry, error) {
	entry, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		err := apperrors.NewStatusError("journal entry", entryID, string(entry.Status), operation)
		s.LogWarn(ctx, err, "Journal entry is not a draft", slog.String("entry_id", entryID))
		return nil, err
	}
	return entry, nil
}

func (s *journalService) saveDraft(ctx context.Context, entry *domain.JournalEntry) error {
	expected := entry.Version
	entry.Version++
	entry.Touch(s.UserID(ctx), s.Now())
	if err := s.journalRepo.UpdateEntry(ctx, *entry, expected); err != nil {
		s.LogFailure(ctx, err, "Failed to update journal entry", slog.String("entry_id", entry.EntryID))
		return err
	}
	return nil
}
