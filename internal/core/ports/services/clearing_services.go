package services

import (
	"context"
	"iter"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// ClearingSvcFacade matches and settles open items of one partner
type ClearingSvcFacade interface {
	// OpenItems returns a lazy, restartable sequence of the partner's open items.
	OpenItems(ctx context.Context, partnerID string) iter.Seq2[domain.OpenItem, error]

	// ClearManual stamps the selected lines with one clearing ID if they net to zero.
	ClearManual(ctx context.Context, lineIDs []string) (*domain.ClearingGroup, error)

	// GetClearingGroup retrieves the lines of a clearing group.
	GetClearingGroup(ctx context.Context, clearingID string) (*domain.ClearingGroup, error)

	// ResetClearing removes the clearing stamp from every line of the group.
	ResetClearing(ctx context.Context, clearingID string) error
}
