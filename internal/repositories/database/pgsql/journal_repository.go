package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_core/internal/models"
	"github.com/SscSPs/bookkeeping_core/internal/utils/mapping"
	"github.com/SscSPs/bookkeeping_core/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	entryColumns = `entry_id, posting_date, document_date, description, reference, status,
	reversed_by, reversal_of, is_reversal, source_type, source_id, version,
	created_at, created_by, last_updated_at, last_updated_by`

	lineColumns = `line_id, entry_id, line_no, account_id, amount, transaction_type,
	cost_center_id, profit_center_id, partner_id, notes, clearing_id, cleared_at`

	postedLineColumns = `l.line_id, l.entry_id, l.line_no, l.account_id, l.amount, l.transaction_type,
	l.cost_center_id, l.profit_center_id, l.partner_id, l.notes, l.clearing_id, l.cleared_at,
	e.posting_date, e.document_date, e.description, e.reference, e.status AS entry_status, e.is_reversal`

	upsertLineQuery = `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (line_id) DO UPDATE SET
			line_no = EXCLUDED.line_no,
			account_id = EXCLUDED.account_id,
			amount = EXCLUDED.amount,
			transaction_type = EXCLUDED.transaction_type,
			cost_center_id = EXCLUDED.cost_center_id,
			profit_center_id = EXCLUDED.profit_center_id,
			partner_id = EXCLUDED.partner_id,
			notes = EXCLUDED.notes,
			clearing_id = EXCLUDED.clearing_id,
			cleared_at = EXCLUDED.cleared_at;
	`
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// SaveEntry inserts the entry header and queues its lines in one batch.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	return r.withinTx(ctx, func(q querier) error {
		query := `
			INSERT INTO journal_entries (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
		`
		_, err := q.Exec(ctx, query,
			m.EntryID,
			m.PostingDate,
			m.DocumentDate,
			m.Description,
			m.Reference,
			m.Status,
			m.ReversedBy,
			m.ReversalOf,
			m.IsReversal,
			m.SourceType,
			m.SourceID,
			m.Version,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
		if err != nil {
			return mapPgError(err, "insert journal entry "+m.EntryID)
		}
		return r.upsertLines(ctx, q, entry.Lines)
	})
}

// UpdateEntry rewrites the header under a version guard, then syncs the line set.
// The owning document is fixed at insert time and never rewritten.
func (r *PgxJournalRepository) UpdateEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int64) error {
	m := mapping.ToModelJournalEntry(entry)
	return r.withinTx(ctx, func(q querier) error {
		query := `
			UPDATE journal_entries
			SET posting_date = $2, document_date = $3, description = $4, reference = $5, status = $6,
				reversed_by = $7, reversal_of = $8, is_reversal = $9, version = $10,
				last_updated_at = $11, last_updated_by = $12
			WHERE entry_id = $1 AND version = $13;
		`
		cmdTag, err := q.Exec(ctx, query,
			m.EntryID,
			m.PostingDate,
			m.DocumentDate,
			m.Description,
			m.Reference,
			m.Status,
			m.ReversedBy,
			m.ReversalOf,
			m.IsReversal,
			m.Version,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
			expectedVersion,
		)
		if err != nil {
			return mapPgError(err, "update journal entry "+m.EntryID)
		}
		if cmdTag.RowsAffected() == 0 {
			return versionMismatch(ctx, q, "journal_entries", "entry_id", m.EntryID, expectedVersion)
		}

		keep := make([]string, len(entry.Lines))
		for i, l := range entry.Lines {
			keep[i] = l.LineID
		}
		if _, err := q.Exec(ctx,
			"DELETE FROM journal_lines WHERE entry_id = $1 AND NOT (line_id = ANY($2))", m.EntryID, keep); err != nil {
			return mapPgError(err, "delete removed lines of "+m.EntryID)
		}
		return r.upsertLines(ctx, q, entry.Lines)
	})
}

func (r *PgxJournalRepository) upsertLines(ctx context.Context, q querier, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		ml := mapping.ToModelJournalLine(l)
		batch.Queue(upsertLineQuery,
			ml.LineID,
			ml.EntryID,
			ml.LineNo,
			ml.AccountID,
			ml.Amount,
			ml.TransactionType,
			ml.CostCenterID,
			ml.ProfitCenterID,
			ml.PartnerID,
			ml.Notes,
			ml.ClearingID,
			ml.ClearedAt,
		)
	}
	// Close reports the first failing statement of the batch
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "write journal lines")
	}
	return nil
}

// FindEntryByID retrieves an entry with its lines ordered by line number.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	rows, err := r.db().Query(ctx, "SELECT "+entryColumns+" FROM journal_entries WHERE entry_id = $1", entryID)
	if err != nil {
		return nil, mapPgError(err, "find journal entry "+entryID)
	}
	header, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("journal entry " + entryID)
	}
	if err != nil {
		return nil, mapPgError(err, "scan journal entry "+entryID)
	}

	rows, err = r.db().Query(ctx,
		"SELECT "+lineColumns+" FROM journal_lines WHERE entry_id = $1 ORDER BY line_no", entryID)
	if err != nil {
		return nil, mapPgError(err, "find lines of "+entryID)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalLine])
	if err != nil {
		return nil, mapPgError(err, "scan lines of "+entryID)
	}

	entry := mapping.ToDomainJournalEntry(header, lines)
	return &entry, nil
}

func (r *PgxJournalRepository) queryPostedLines(ctx context.Context, what string, query string, args ...any) ([]domain.PostedLine, error) {
	rows, err := r.db().Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, what)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PostedLine])
	if err != nil {
		return nil, mapPgError(err, "scan "+what)
	}
	out := make([]domain.PostedLine, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainPostedLine(m)
	}
	return out, nil
}

// FindLinesByIDs retrieves lines joined with their entry headers.
func (r *PgxJournalRepository) FindLinesByIDs(ctx context.Context, lineIDs []string) (map[string]domain.PostedLine, error) {
	out := make(map[string]domain.PostedLine, len(lineIDs))
	if len(lineIDs) == 0 {
		return out, nil
	}
	lines, err := r.queryPostedLines(ctx, "find lines by IDs", `
		SELECT `+postedLineColumns+`
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.line_id = ANY($1);
	`, lineIDs)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		out[l.LineID] = l
	}
	return out, nil
}

// FindLinesByClearingID retrieves every line stamped with clearingID.
func (r *PgxJournalRepository) FindLinesByClearingID(ctx context.Context, clearingID string) ([]domain.PostedLine, error) {
	return r.queryPostedLines(ctx, "find lines of clearing "+clearingID, `
		SELECT `+postedLineColumns+`
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.clearing_id = $1
		ORDER BY e.posting_date, l.line_id;
	`, clearingID)
}

// ListOpenItems pages through a partner's uncleared lines with a (posting date, line ID) keyset.
func (r *PgxJournalRepository) ListOpenItems(ctx context.Context, partnerID string, limit int, nextToken *string) ([]domain.OpenItem, *string, error) {
	var afterDate *time.Time
	var afterLine *string
	if nextToken != nil {
		d, id, err := pagination.DecodeLineToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterDate, afterLine = &d, &id
	}
	// One extra row tells whether another page exists
	var fetch *int
	if limit > 0 {
		n := limit + 1
		fetch = &n
	}

	lines, err := r.queryPostedLines(ctx, "list open items of "+partnerID, `
		SELECT `+postedLineColumns+`
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.partner_id = $1
			AND l.clearing_id IS NULL
			AND e.status = 'POSTED'
			AND NOT e.is_reversal
			AND ($2::timestamptz IS NULL OR (e.posting_date, l.line_id) > ($2::timestamptz, $3::text))
		ORDER BY e.posting_date, l.line_id
		LIMIT $4;
	`, partnerID, afterDate, afterLine, fetch)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
		last := lines[len(lines)-1]
		t := pagination.EncodeLineToken(last.PostingDate, last.LineID)
		token = &t
	}
	items := make([]domain.OpenItem, len(lines))
	for i, l := range lines {
		items[i] = domain.OpenItem{PostedLine: l}
	}
	return items, token, nil
}

// StampClearing stamps the lines only where they are still uncleared on a posted entry.
// Rows lost to a concurrent writer make the affected count fall short.
func (r *PgxJournalRepository) StampClearing(ctx context.Context, lineIDs []string, clearingID string, clearedAt time.Time) error {
	want := make(map[string]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		want[id] = struct{}{}
	}
	return r.withinTx(ctx, func(q querier) error {
		rows, err := q.Query(ctx, `
			UPDATE journal_lines l
			SET clearing_id = $2, cleared_at = $3
			FROM journal_entries e
			WHERE e.entry_id = l.entry_id
				AND l.line_id = ANY($1)
				AND l.clearing_id IS NULL
				AND e.status = 'POSTED'
			RETURNING l.entry_id;
		`, lineIDs, clearingID, clearedAt)
		if err != nil {
			return mapPgError(err, "stamp clearing "+clearingID)
		}
		entryIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return mapPgError(err, "stamp clearing "+clearingID)
		}
		if len(entryIDs) != len(want) {
			return apperrors.NewConflictError(fmt.Sprintf(
				"clearing %s: %d of %d lines were no longer open", clearingID, len(want)-len(entryIDs), len(want)))
		}
		return bumpEntryVersions(ctx, q, entryIDs)
	})
}

// ResetClearing removes the stamp from every line of the group.
func (r *PgxJournalRepository) ResetClearing(ctx context.Context, clearingID string) (int, error) {
	var reset int
	err := r.withinTx(ctx, func(q querier) error {
		rows, err := q.Query(ctx, `
			UPDATE journal_lines
			SET clearing_id = NULL, cleared_at = NULL
			WHERE clearing_id = $1
			RETURNING entry_id;
		`, clearingID)
		if err != nil {
			return mapPgError(err, "reset clearing "+clearingID)
		}
		entryIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return mapPgError(err, "reset clearing "+clearingID)
		}
		reset = len(entryIDs)
		return bumpEntryVersions(ctx, q, entryIDs)
	})
	return reset, err
}

func bumpEntryVersions(ctx context.Context, q querier, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx,
		"UPDATE journal_entries SET version = version + 1 WHERE entry_id = ANY($1)", entryIDs); err != nil {
		return mapPgError(err, "bump entry versions")
	}
	return nil
}
