package pgsql

import (
	"context"
	"iter"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_core/internal/models"
	"github.com/SscSPs/bookkeeping_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultStreamBatch = 500

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
	batchSize int
}

// newReportingRepository creates a new reporting repository fetching batchSize lines per round trip.
func newReportingRepository(pool *pgxpool.Pool, batchSize int) *reportingRepository {
	if batchSize <= 0 {
		batchSize = defaultStreamBatch
	}
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: pool},
		batchSize:      batchSize,
	}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// lineKey is the stream position: the ordering key of the last line yielded.
type lineKey struct {
	postingDate time.Time
	entryID     string
	lineNo      int
}

// StreamPostedLines reads keyset batches inside one read-only REPEATABLE READ transaction,
// so the whole stream sees a single snapshot while writers proceed unblocked.
func (r *reportingRepository) StreamPostedLines(ctx context.Context, filter portsrepo.PostedLineFilter) iter.Seq2[domain.PostedLine, error] {
	return func(yield func(domain.PostedLine, error) bool) {
		tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			yield(domain.PostedLine{}, mapPgError(err, "begin report snapshot"))
			return
		}
		defer r.Rollback(context.WithoutCancel(ctx), tx)

		var after *lineKey
		for {
			batch, err := r.fetchBatch(ctx, tx, filter, after)
			if err != nil {
				yield(domain.PostedLine{}, err)
				return
			}
			for _, l := range batch {
				if err := ctx.Err(); err != nil {
					yield(domain.PostedLine{}, err)
					return
				}
				if !yield(l, nil) {
					return
				}
			}
			if len(batch) < r.batchSize {
				return
			}
			last := batch[len(batch)-1]
			after = &lineKey{postingDate: last.PostingDate, entryID: last.EntryID, lineNo: last.LineNo}
		}
	}
}

func (r *reportingRepository) fetchBatch(ctx context.Context, q querier, filter portsrepo.PostedLineFilter, after *lineKey) ([]domain.PostedLine, error) {
	var from, to, afterDate *time.Time
	var afterEntry *string
	var afterLineNo *int
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	if after != nil {
		afterDate, afterEntry, afterLineNo = &after.postingDate, &after.entryID, &after.lineNo
	}

	query := `
		SELECT ` + postedLineColumns + `
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.status = 'POSTED'
			AND NOT e.is_reversal
			AND ($1::timestamptz IS NULL OR e.posting_date >= $1::timestamptz)
			AND ($2::timestamptz IS NULL OR e.posting_date <= $2::timestamptz)
			AND ($3::text IS NULL OR l.cost_center_id = $3::text)
			AND ($4::text IS NULL OR l.profit_center_id = $4::text)
			AND ($5::timestamptz IS NULL
				OR (e.posting_date, e.entry_id, l.line_no) > ($5::timestamptz, $6::text, $7::int))
		ORDER BY e.posting_date, e.entry_id, l.line_no
		LIMIT $8;
	`
	rows, err := q.Query(ctx, query,
		from, to, filter.CostCenterID, filter.ProfitCenterID,
		afterDate, afterEntry, afterLineNo, r.batchSize)
	if err != nil {
		return nil, mapPgError(err, "stream posted lines")
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PostedLine])
	if err != nil {
		return nil, mapPgError(err, "scan posted lines")
	}
	out := make([]domain.PostedLine, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainPostedLine(m)
	}
	return out, nil
}
