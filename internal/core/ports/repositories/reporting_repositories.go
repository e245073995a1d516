package repositories

import (
	"context"
	"iter"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// PostedLineFilter restricts a posted-line stream.
// From and To are inclusive instants; nil dimensions are not filtered.
type PostedLineFilter struct {
	From           time.Time
	To             time.Time
	CostCenterID   *string
	ProfitCenterID *string
}

// ReportingRepository defines streaming reads over posted history.
type ReportingRepository interface {
	// StreamPostedLines yields the lines of posted, non-reversal entries whose posting date
	// falls in the filter range, ordered by posting date. The sequence holds no lock that
	// blocks writers and stops when the consumer stops or ctx is done.
	StreamPostedLines(ctx context.Context, filter PostedLineFilter) iter.Seq2[domain.PostedLine, error]
}
