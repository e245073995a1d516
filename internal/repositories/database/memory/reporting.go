package memory

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
)

// reportingRepo implements portsrepo.ReportingRepository over committed state.
type reportingRepo struct {
	s *Store
}

var _ portsrepo.ReportingRepository = (*reportingRepo)(nil)

type entryRef struct {
	entryID     string
	postingDate time.Time
}

// StreamPostedLines snapshots the matching entry IDs under the read lock, then loads one entry at a time
// as the consumer advances. The lock is never held while yielding, so a slow consumer never holds up writers.
// Entries that stop matching after the snapshot (cancelled or reversed) are skipped.
func (r *reportingRepo) StreamPostedLines(ctx context.Context, filter portsrepo.PostedLineFilter) iter.Seq2[domain.PostedLine, error] {
	return func(yield func(domain.PostedLine, error) bool) {
		for _, ref := range r.matchingEntries(filter) {
			if err := ctx.Err(); err != nil {
				yield(domain.PostedLine{}, err)
				return
			}
			e, ok := r.loadPosted(ref.entryID, filter)
			if !ok {
				continue
			}
			for _, l := range e.Lines {
				if !matchesDimensions(l, filter) {
					continue
				}
				if !yield(e.ToPostedLine(l), nil) {
					return
				}
			}
		}
	}
}

func (r *reportingRepo) matchingEntries(filter portsrepo.PostedLineFilter) []entryRef {
	r.s.mu.RLock()
	out := make([]entryRef, 0)
	for _, e := range r.s.entries {
		if includesEntry(e, filter) {
			out = append(out, entryRef{entryID: e.EntryID, postingDate: e.PostingDate})
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].postingDate.Equal(out[j].postingDate) {
			return out[i].postingDate.Before(out[j].postingDate)
		}
		return out[i].entryID < out[j].entryID
	})
	return out
}

// loadPosted clones a single entry with its lines in line order.
func (r *reportingRepo) loadPosted(entryID string, filter portsrepo.PostedLineFilter) (domain.JournalEntry, bool) {
	r.s.mu.RLock()
	e, ok := r.s.entries[entryID]
	if ok && includesEntry(e, filter) {
		e = e.Clone()
	} else {
		ok = false
	}
	r.s.mu.RUnlock()
	if !ok {
		return domain.JournalEntry{}, false
	}

	sort.Slice(e.Lines, func(a, b int) bool { return e.Lines[a].LineNo < e.Lines[b].LineNo })
	return e, true
}

func includesEntry(e domain.JournalEntry, filter portsrepo.PostedLineFilter) bool {
	if e.Status != domain.Posted || e.IsReversal {
		return false
	}
	if !filter.From.IsZero() && e.PostingDate.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && e.PostingDate.After(filter.To) {
		return false
	}
	return true
}

func matchesDimensions(l domain.JournalLine, filter portsrepo.PostedLineFilter) bool {
	if filter.CostCenterID != nil && (l.CostCenterID == nil || *l.CostCenterID != *filter.CostCenterID) {
		return false
	}
	if filter.ProfitCenterID != nil && (l.ProfitCenterID == nil || *l.ProfitCenterID != *filter.ProfitCenterID) {
		return false
	}
	return true
}
