package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines ordered by line number.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindLinesByIDs retrieves lines with their entry header fields. Missing IDs are absent from the map.
	FindLinesByIDs(ctx context.Context, lineIDs []string) (map[string]domain.PostedLine, error)

	// FindLinesByClearingID retrieves every line stamped with clearingID.
	FindLinesByClearingID(ctx context.Context, clearingID string) ([]domain.PostedLine, error)

	// ListOpenItems retrieves a page of uncleared lines of posted, non-reversal entries for a partner,
	// ordered by posting date then line ID. It returns the items and a token for the next page.
	ListOpenItems(ctx context.Context, partnerID string, limit int, nextToken *string) ([]domain.OpenItem, *string, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveEntry inserts a new entry with its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntry replaces the entry header and lines if the stored version equals expectedVersion.
	// The stored version becomes entry.Version. A stale version returns apperrors.ErrConflict.
	UpdateEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int64) error

	// StampClearing sets clearingID and clearedAt on every line. Each line must still be uncleared
	// and belong to a posted entry, otherwise nothing is written and apperrors.ErrConflict is returned.
	// The version of every touched entry is incremented.
	StampClearing(ctx context.Context, lineIDs []string, clearingID string, clearedAt time.Time) error

	// ResetClearing removes the stamp from every line of the group and returns the number of lines reset.
	ResetClearing(ctx context.Context, clearingID string) (int, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
