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
	"github.com/SscSPs/bookkeeping_core/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// reversalPrefix annotates the description of every reversal entry.
const reversalPrefix = "Reversal of Journal: "

// postingEngine holds the rules shared by every path that writes ledger entries:
// line reference checks, the balance check and the reversal builder.
type postingEngine struct {
	BaseService
	accountRepo portsrepo.AccountReader
	partners    portssvc.PartnerDirectory
	costCenters portssvc.CostCenterDirectory
}

// checkLineRefs verifies that every account referenced by lines exists and is active and that
// partners and cost/profit centers are known to their directories.
func (p *postingEngine) checkLineRefs(ctx context.Context, lines []domain.JournalLine) error {
	accountIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		accountIDs = append(accountIDs, l.AccountID)
	}
	accountIDs = uniqueStrings(accountIDs)

	accounts, err := p.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, acc.Code)
		}
	}

	seen := make(map[string]struct{})
	for _, l := range lines {
		if err := p.checkDimension(ctx, seen, "partner", l.PartnerID, p.partnerExists); err != nil {
			return err
		}
		if err := p.checkDimension(ctx, seen, "cost center", l.CostCenterID, p.costCenterExists); err != nil {
			return err
		}
		if err := p.checkDimension(ctx, seen, "profit center", l.ProfitCenterID, p.profitCenterExists); err != nil {
			return err
		}
	}
	return nil
}

func (p *postingEngine) checkDimension(ctx context.Context, seen map[string]struct{}, kind string, id *string, exists func(context.Context, string) (bool, error)) error {
	if id == nil {
		return nil
	}
	key := kind + ":" + *id
	if _, ok := seen[key]; ok {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("%w: %s lookup for %s: %v", apperrors.ErrExternalDependency, kind, *id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, *id)
	}
	seen[key] = struct{}{}
	return nil
}

func (p *postingEngine) partnerExists(ctx context.Context, id string) (bool, error) {
	if p.partners == nil {
		return true, nil
	}
	return p.partners.PartnerExists(ctx, id)
}

func (p *postingEngine) costCenterExists(ctx context.Context, id string) (bool, error) {
	if p.costCenters == nil {
		return true, nil
	}
	return p.costCenters.CostCenterExists(ctx, id)
}

func (p *postingEngine) profitCenterExists(ctx context.Context, id string) (bool, error) {
	if p.costCenters == nil {
		return true, nil
	}
	return p.costCenters.ProfitCenterExists(ctx, id)
}

// checkPostable enforces the posting preconditions on a draft entry.
func checkPostable(entry *domain.JournalEntry) error {
	if entry.Status != domain.Draft {
		return apperrors.NewStatusError("journal entry", entry.EntryID, string(entry.Status), "post")
	}
	return accounting.ValidateEntryBalance(entry)
}

// newEntry builds a draft entry header stamped with the acting user.
func (p *postingEngine) newEntry(ctx context.Context, postingDate, documentDate time.Time, description string, reference *string) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:      uuid.NewString(),
		PostingDate:  postingDate,
		DocumentDate: documentDate,
		Description:  description,
		Reference:    reference,
		Status:       domain.Draft,
		Version:      1,
		AuditFields:  domain.NewAuditFields(p.UserID(ctx), p.Now()),
	}
}

// appendLine adds a line to entry, numbering it after the current last line.
func appendLine(entry *domain.JournalEntry, line domain.JournalLine) domain.JournalLine {
	next := 1
	for _, l := range entry.Lines {
		if l.LineNo >= next {
			next = l.LineNo + 1
		}
	}
	line.LineID = uuid.NewString()
	line.EntryID = entry.EntryID
	line.LineNo = next
	line.ClearingID = nil
	line.ClearedAt = nil
	entry.Lines = append(entry.Lines, line)
	return line
}

// postNewEntry validates a freshly built entry and saves it as Posted through journals.
func (p *postingEngine) postNewEntry(ctx context.Context, journals portsrepo.JournalWriter, entry *domain.JournalEntry) error {
	if err := p.checkLineRefs(ctx, entry.Lines); err != nil {
		return err
	}
	if err := checkPostable(entry); err != nil {
		return err
	}
	entry.Status = domain.Posted
	return journals.SaveEntry(ctx, *entry)
}

// reverseInTx mirrors original into a posted reversal entry and cancels original, both through journals.
// It returns the reversal.
func (p *postingEngine) reverseInTx(ctx context.Context, journals portsrepo.JournalRepositoryFacade, entryID string, reason string, postingDate *time.Time) (*domain.JournalEntry, error) {
	original, err := journals.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	switch {
	case original.Status != domain.Posted:
		return nil, apperrors.NewStatusError("journal entry", original.EntryID, string(original.Status), "reverse")
	case original.ReversedBy != nil:
		return nil, fmt.Errorf("%w: entry %s is already reversed by %s", apperrors.ErrInvalidState, original.EntryID, *original.ReversedBy)
	case original.IsReversal:
		return nil, fmt.Errorf("%w: cannot reverse a journal that is already a reversal", apperrors.ErrInvalidState)
	case original.HasClearedLines():
		return nil, fmt.Errorf("%w: entry %s has cleared lines, reset the clearing first", apperrors.ErrInvalidState, original.EntryID)
	}

	date := original.PostingDate
	if postingDate != nil {
		date = *postingDate
	}
	description := reversalPrefix + original.Description
	if reason != "" {
		description = fmt.Sprintf("%s (%s)", description, reason)
	}

	reversal := p.newEntry(ctx, date, original.DocumentDate, description, original.Reference)
	reversal.IsReversal = true
	reversal.ReversalOf = &original.EntryID
	reversal.SourceType, reversal.SourceID = original.SourceType, original.SourceID
	for _, l := range original.Lines {
		appendLine(&reversal, domain.JournalLine{
			AccountID:       l.AccountID,
			Amount:          l.Amount,
			TransactionType: l.TransactionType.Opposite(),
			CostCenterID:    l.CostCenterID,
			ProfitCenterID:  l.ProfitCenterID,
			PartnerID:       l.PartnerID,
			Notes:           l.Notes,
		})
	}
	// Mirrored lines of a balanced entry balance as well.
	if err := checkPostable(&reversal); err != nil {
		return nil, err
	}
	reversal.Status = domain.Posted

	if err := journals.SaveEntry(ctx, reversal); err != nil {
		return nil, fmt.Errorf("failed to save reversing journal: %w", err)
	}

	expected := original.Version
	original.Status = domain.Cancelled
	original.ReversedBy = &reversal.EntryID
	original.Version++
	original.Touch(p.UserID(ctx), p.Now())
	if err := journals.UpdateEntry(ctx, *original, expected); err != nil {
		return nil, fmt.Errorf("failed to update original journal status: %w", err)
	}

	p.LogInfo(ctx, "Journal reversed successfully",
		slog.String("entry_id", original.EntryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	return &reversal, nil
}

// requirePositive rejects zero and negative amounts.
func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", apperrors.ErrValidation, field, amount.String())
	}
	return nil
}

// translateMissing turns a not-found from a reference lookup into a validation failure.
func translateMissing(err error, what string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: %s not found", apperrors.ErrValidation, what)
	}
	return err
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
