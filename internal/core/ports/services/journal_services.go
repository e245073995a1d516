package services

import (
	"context"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntryByID retrieves a journal entry with its lines.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalWriterSvc defines the ledger's write operations
type JournalWriterSvc interface {
	// CreateEntry creates a new draft entry without lines.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest) (*domain.JournalEntry, error)

	// AddLine appends a line to a draft entry.
	AddLine(ctx context.Context, entryID string, req dto.AddLineRequest) (*domain.JournalLine, error)

	// RemoveLine removes a line from a draft entry.
	RemoveLine(ctx context.Context, entryID string, lineID string) error

	// PostEntry posts a draft entry exactly once if its debits equal its credits.
	PostEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// CancelEntry cancels a draft or posted entry.
	CancelEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ReverseEntry creates and posts the mirror of a posted entry and cancels the original.
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
