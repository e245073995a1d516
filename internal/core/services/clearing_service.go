package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/google/uuid"
)

// clearingService matches open items of a partner and stamps them as settled.
type clearingService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	pageSize    int
}

// NewClearingService creates a new clearing service.
func NewClearingService(journalRepo portsrepo.JournalRepositoryFacade, options ...ServiceOption) portssvc.ClearingSvcFacade {
	deps := applyOptions(options)
	return &clearingService{
		BaseService: BaseService{clock: deps.clock},
		journalRepo: journalRepo,
		pageSize:    deps.pageSize,
	}
}

var _ portssvc.ClearingSvcFacade = (*clearingService)(nil)

// OpenItems pages through the store lazily. Every range over the sequence starts from the first page.
func (s *clearingService) OpenItems(ctx context.Context, partnerID string) iter.Seq2[domain.OpenItem, error] {
	return func(yield func(domain.OpenItem, error) bool) {
		if partnerID == "" {
			yield(domain.OpenItem{}, fmt.Errorf("%w: partner is required", apperrors.ErrValidation))
			return
		}

		var token *string
		pages := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.OpenItem{}, err)
				return
			}
			items, next, err := s.journalRepo.ListOpenItems(ctx, partnerID, s.pageSize, token)
			if err != nil {
				s.LogError(ctx, err, "Failed to list open items",
					slog.String("partner_id", partnerID),
					slog.Int("page", pages))
				yield(domain.OpenItem{}, err)
				return
			}
			pages++
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if next == nil || len(items) == 0 {
				s.LogDebug(ctx, "Open items exhausted",
					slog.String("partner_id", partnerID),
					slog.Int("pages", pages))
				return
			}
			token = next
		}
	}
}

// ClearManual stamps the selected lines with a fresh clearing ID if they belong to one partner,
// sit on posted entries, are still open and net to zero.
func (s *clearingService) ClearManual(ctx context.Context, lineIDs []string) (*domain.ClearingGroup, error) {
	group, err := s.clearManual(ctx, lineIDs)
	if err != nil {
		s.LogFailure(ctx, err, "Manual clearing rejected", slog.Int("lines", len(lineIDs)))
		return nil, err
	}
	s.LogInfo(ctx, "Lines cleared",
		slog.String("clearing_id", group.ClearingID),
		slog.String("partner_id", group.PartnerID),
		slog.Int("lines", len(group.Lines)))
	return group, nil
}

func (s *clearingService) clearManual(ctx context.Context, lineIDs []string) (*domain.ClearingGroup, error) {
	if len(lineIDs) == 0 {
		return nil, fmt.Errorf("%w: no lines selected", apperrors.ErrInvalidSelection)
	}
	if len(uniqueStrings(lineIDs)) != len(lineIDs) {
		return nil, fmt.Errorf("%w: duplicate line in selection", apperrors.ErrInvalidSelection)
	}

	found, err := s.journalRepo.FindLinesByIDs(ctx, lineIDs)
	if err != nil {
		return nil, err
	}

	var partnerID string
	selected := make([]domain.PostedLine, 0, len(lineIDs))
	plain := make([]domain.JournalLine, 0, len(lineIDs))
	for _, id := range lineIDs {
		line, ok := found[id]
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: %w: line %s", apperrors.ErrInvalidSelection, apperrors.ErrNotFound, id)
		case line.PartnerID == nil:
			return nil, fmt.Errorf("%w: line %s has no partner", apperrors.ErrInvalidSelection, id)
		case partnerID != "" && *line.PartnerID != partnerID:
			return nil, fmt.Errorf("%w: lines belong to partners %s and %s", apperrors.ErrInvalidSelection, partnerID, *line.PartnerID)
		case line.EntryStatus != domain.Posted:
			return nil, fmt.Errorf("%w: line %s is on a %s entry", apperrors.ErrInvalidSelection, id, line.EntryStatus)
		case line.IsReversal:
			return nil, fmt.Errorf("%w: line %s is on a reversal entry", apperrors.ErrInvalidSelection, id)
		case line.IsCleared():
			return nil, fmt.Errorf("%w: %w: line %s in group %s", apperrors.ErrInvalidSelection, apperrors.ErrAlreadyCleared, id, *line.ClearingID)
		}
		partnerID = *line.PartnerID
		selected = append(selected, line)
		plain = append(plain, line.JournalLine)
	}

	if residual := domain.SignedSum(plain); !residual.IsZero() {
		return nil, &apperrors.ImbalancedClearingError{Residual: residual}
	}

	clearingID := uuid.NewString()
	clearedAt := s.Now()
	if err := s.journalRepo.StampClearing(ctx, lineIDs, clearingID, clearedAt); err != nil {
		return nil, err
	}

	for i := range selected {
		selected[i].ClearingID = &clearingID
		selected[i].ClearedAt = &clearedAt
	}
	return &domain.ClearingGroup{
		ClearingID: clearingID,
		PartnerID:  partnerID,
		ClearedAt:  clearedAt,
		Lines:      selected,
	}, nil
}

func (s *clearingService) GetClearingGroup(ctx context.Context, clearingID string) (*domain.ClearingGroup, error) {
	lines, err := s.journalRepo.FindLinesByClearingID(ctx, clearingID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load clearing group", slog.String("clearing_id", clearingID))
		return nil, err
	}
	if len(lines) == 0 {
		err := fmt.Errorf("%w: clearing group %s", apperrors.ErrNotFound, clearingID)
		s.LogWarn(ctx, err, "Clearing group not found", slog.String("clearing_id", clearingID))
		return nil, err
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].PostingDate.Equal(lines[j].PostingDate) {
			return lines[i].PostingDate.Before(lines[j].PostingDate)
		}
		return lines[i].LineID < lines[j].LineID
	})

	group := &domain.ClearingGroup{ClearingID: clearingID, Lines: lines}
	if lines[0].PartnerID != nil {
		group.PartnerID = *lines[0].PartnerID
	}
	if lines[0].ClearedAt != nil {
		group.ClearedAt = *lines[0].ClearedAt
	}
	return group, nil
}

func (s *clearingService) ResetClearing(ctx context.Context, clearingID string) error {
	n, err := s.journalRepo.ResetClearing(ctx, clearingID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to reset clearing", slog.String("clearing_id", clearingID))
		return err
	}
	if n == 0 {
		err := fmt.Errorf("%w: clearing group %s", apperrors.ErrNotFound, clearingID)
		s.LogWarn(ctx, err, "Clearing group not found", slog.String("clearing_id", clearingID))
		return err
	}
	s.LogInfo(ctx, "Clearing reset",
		slog.String("clearing_id", clearingID),
		slog.Int("lines", n))
	return nil
}
