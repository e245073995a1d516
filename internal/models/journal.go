package models

import "time"

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft     JournalStatus = "DRAFT"
	Posted    JournalStatus = "POSTED"
	Cancelled JournalStatus = "CANCELLED"
)

// JournalEntry is a row of the journal_entries table. Lines live in journal_lines.
type JournalEntry struct {
	EntryID      string        `db:"entry_id"`
	PostingDate  time.Time     `db:"posting_date"`
	DocumentDate time.Time     `db:"document_date"`
	Description  string        `db:"description"`
	Reference    *string       `db:"reference"`
	Status       JournalStatus `db:"status"`
	ReversedBy   *string       `db:"reversed_by"`
	ReversalOf   *string       `db:"reversal_of"`
	IsReversal   bool          `db:"is_reversal"`
	SourceType   *string       `db:"source_type"`
	SourceID     *string       `db:"source_id"`
	Version      int64         `db:"version"`
	AuditFields
}
