package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_core/internal/utils/pagination"
)

// journalRepo implements portsrepo.JournalRepositoryFacade. With a nil tx every write
// runs in its own unit of work and reads see committed state.
type journalRepo struct {
	s  *Store
	tx *txn
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepo)(nil)

// entry resolves an entry as seen by the unit of work.
func (r *journalRepo) entry(id string) (domain.JournalEntry, bool) {
	if r.tx != nil {
		if st, ok := r.tx.entries[id]; ok {
			return st.value.Clone(), true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[id]
	if !ok {
		return domain.JournalEntry{}, false
	}
	return e.Clone(), true
}

// entryOfLine resolves the entry that owns lineID.
func (r *journalRepo) entryOfLine(lineID string) (domain.JournalEntry, bool) {
	if r.tx != nil {
		for _, st := range r.tx.entries {
			for _, l := range st.value.Lines {
				if l.LineID == lineID {
					return st.value.Clone(), true
				}
			}
		}
	}
	r.s.mu.RLock()
	entryID, ok := r.s.lineIndex[lineID]
	r.s.mu.RUnlock()
	if !ok {
		return domain.JournalEntry{}, false
	}
	return r.entry(entryID)
}

// snapshot copies every entry visible to the unit of work.
func (r *journalRepo) snapshot() []domain.JournalEntry {
	r.s.mu.RLock()
	out := make([]domain.JournalEntry, 0, len(r.s.entries))
	for id, e := range r.s.entries {
		if r.tx != nil {
			if _, ok := r.tx.entries[id]; ok {
				continue
			}
		}
		out = append(out, e.Clone())
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, st := range r.tx.entries {
			out = append(out, st.value.Clone())
		}
	}
	return out
}

func (r *journalRepo) autoCommit(ctx context.Context, fn func(repo *journalRepo) error) error {
	return r.s.WithTransaction(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		return fn(repos.Journals().(*journalRepo))
	})
}

func (r *journalRepo) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	e, ok := r.entry(entryID)
	if !ok {
		return nil, apperrors.NewNotFoundError("journal entry " + entryID)
	}
	sort.Slice(e.Lines, func(i, j int) bool { return e.Lines[i].LineNo < e.Lines[j].LineNo })
	return &e, nil
}

func (r *journalRepo) FindLinesByIDs(ctx context.Context, lineIDs []string) (map[string]domain.PostedLine, error) {
	out := make(map[string]domain.PostedLine, len(lineIDs))
	for _, id := range lineIDs {
		e, ok := r.entryOfLine(id)
		if !ok {
			continue
		}
		if idx := e.LineByID(id); idx >= 0 {
			out[id] = e.ToPostedLine(e.Lines[idx])
		}
	}
	return out, nil
}

func (r *journalRepo) FindLinesByClearingID(ctx context.Context, clearingID string) ([]domain.PostedLine, error) {
	var out []domain.PostedLine
	for _, e := range r.snapshot() {
		for _, l := range e.Lines {
			if l.ClearingID != nil && *l.ClearingID == clearingID {
				out = append(out, e.ToPostedLine(l))
			}
		}
	}
	return out, nil
}

func (r *journalRepo) ListOpenItems(ctx context.Context, partnerID string, limit int, nextToken *string) ([]domain.OpenItem, *string, error) {
	var afterDate time.Time
	var afterLine string
	if nextToken != nil {
		d, id, err := pagination.DecodeLineToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterDate, afterLine = d, id
	}

	var items []domain.OpenItem
	for _, e := range r.snapshot() {
		if e.Status != domain.Posted || e.IsReversal {
			continue
		}
		for _, l := range e.Lines {
			if l.IsCleared() || !l.BelongsToPartner(partnerID) {
				continue
			}
			if nextToken != nil && !after(e.PostingDate, l.LineID, afterDate, afterLine) {
				continue
			}
			items = append(items, domain.OpenItem{PostedLine: e.ToPostedLine(l)})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return after(items[j].PostingDate, items[j].LineID, items[i].PostingDate, items[i].LineID)
	})

	if limit <= 0 || len(items) <= limit {
		return items, nil, nil
	}
	page := items[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeLineToken(last.PostingDate, last.LineID)
	return page, &token, nil
}

// after reports whether (date, id) sorts strictly after (refDate, refID).
func after(date time.Time, id string, refDate time.Time, refID string) bool {
	if !date.Equal(refDate) {
		return date.After(refDate)
	}
	return id > refID
}

func (r *journalRepo) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	if r.tx == nil {
		return r.autoCommit(ctx, func(repo *journalRepo) error { return repo.SaveEntry(ctx, entry) })
	}
	if _, ok := r.entry(entry.EntryID); ok {
		return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
	}
	stage(r.tx.entries, entry.EntryID, entry.Clone(), 0, true)
	return nil
}

func (r *journalRepo) UpdateEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int64) error {
	if r.tx == nil {
		return r.autoCommit(ctx, func(repo *journalRepo) error { return repo.UpdateEntry(ctx, entry, expectedVersion) })
	}
	current, ok := r.entry(entry.EntryID)
	if !ok {
		return apperrors.NewNotFoundError("journal entry " + entry.EntryID)
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError(fmt.Sprintf("journal entry %s is at version %d, expected %d", entry.EntryID, current.Version, expectedVersion))
	}
	stage(r.tx.entries, entry.EntryID, entry.Clone(), current.Version, false)
	return nil
}

func (r *journalRepo) StampClearing(ctx context.Context, lineIDs []string, clearingID string, clearedAt time.Time) error {
	if r.tx == nil {
		return r.autoCommit(ctx, func(repo *journalRepo) error {
			return repo.StampClearing(ctx, lineIDs, clearingID, clearedAt)
		})
	}

	touched := make(map[string]*domain.JournalEntry)
	order := make([]string, 0)
	for _, lineID := range lineIDs {
		e, ok := r.entryOfLine(lineID)
		if !ok {
			return apperrors.NewConflictError("line " + lineID + " no longer exists")
		}
		if cached, ok := touched[e.EntryID]; ok {
			e = *cached
		}
		if e.Status != domain.Posted {
			return apperrors.NewConflictError(fmt.Sprintf("line %s is on a %s entry", lineID, e.Status))
		}
		idx := e.LineByID(lineID)
		if e.Lines[idx].IsCleared() {
			return apperrors.NewConflictError("line " + lineID + " was cleared concurrently")
		}
		id, at := clearingID, clearedAt
		e.Lines[idx].ClearingID = &id
		e.Lines[idx].ClearedAt = &at
		if _, ok := touched[e.EntryID]; !ok {
			order = append(order, e.EntryID)
		}
		touched[e.EntryID] = &e
	}

	for _, id := range order {
		e := touched[id]
		base := e.Version
		e.Version++
		stage(r.tx.entries, id, *e, base, false)
	}
	return nil
}

func (r *journalRepo) ResetClearing(ctx context.Context, clearingID string) (int, error) {
	if r.tx == nil {
		var n int
		err := r.autoCommit(ctx, func(repo *journalRepo) error {
			var err error
			n, err = repo.ResetClearing(ctx, clearingID)
			return err
		})
		return n, err
	}

	reset := 0
	for _, e := range r.snapshot() {
		changed := false
		for i, l := range e.Lines {
			if l.ClearingID != nil && *l.ClearingID == clearingID {
				e.Lines[i].ClearingID = nil
				e.Lines[i].ClearedAt = nil
				changed = true
				reset++
			}
		}
		if changed {
			base := e.Version
			e.Version++
			stage(r.tx.entries, e.EntryID, e, base, false)
		}
	}
	return reset, nil
}
