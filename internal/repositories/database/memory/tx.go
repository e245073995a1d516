package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
)

// staged is a pending write. base is the committed version the unit of work read;
// it must still be current at commit.
type staged[T any] struct {
	value T
	base  int64
	isNew bool
}

// txn is one unit of work. It is confined to the goroutine running the WithTransaction callback.
type txn struct {
	s        *Store
	entries  map[string]*staged[domain.JournalEntry]
	invoices map[string]*staged[domain.Invoice]
	payments map[string]*staged[domain.Payment]
}

var _ portsrepo.TransactionManager = (*Store)(nil)
var _ portsrepo.TxRepositories = (*txn)(nil)

// WithTransaction runs fn against a fresh unit of work and commits its staged writes atomically.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txn{
		s:        s,
		entries:  make(map[string]*staged[domain.JournalEntry]),
		invoices: make(map[string]*staged[domain.Invoice]),
		payments: make(map[string]*staged[domain.Payment]),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (tx *txn) Journals() portsrepo.JournalRepositoryFacade { return &journalRepo{s: tx.s, tx: tx} }
func (tx *txn) Invoices() portsrepo.InvoiceRepositoryFacade { return &invoiceRepo{s: tx.s, tx: tx} }
func (tx *txn) Payments() portsrepo.PaymentRepositoryFacade { return &paymentRepo{s: tx.s, tx: tx} }

func (tx *txn) empty() bool {
	return len(tx.entries) == 0 && len(tx.invoices) == 0 && len(tx.payments) == 0
}

// commit locks every touched aggregate in key order, verifies the versions read and applies all writes.
func (tx *txn) commit() error {
	if tx.empty() {
		return nil
	}

	keys := make([]string, 0, len(tx.entries)+len(tx.invoices)+len(tx.payments))
	for id := range tx.entries {
		keys = append(keys, "entry:"+id)
	}
	for id := range tx.invoices {
		keys = append(keys, "invoice:"+id)
	}
	for id := range tx.payments {
		keys = append(keys, "payment:"+id)
	}
	unlock := tx.s.locks.lockAll(keys)
	defer unlock()

	if err := tx.verify(); err != nil {
		return err
	}

	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range tx.entries {
		if old, ok := s.entries[id]; ok {
			for _, l := range old.Lines {
				delete(s.lineIndex, l.LineID)
			}
		}
		s.entries[id] = st.value
		for _, l := range st.value.Lines {
			s.lineIndex[l.LineID] = id
		}
	}
	for id, st := range tx.invoices {
		s.invoices[id] = st.value
	}
	for id, st := range tx.payments {
		s.payments[id] = st.value
	}
	return nil
}

func (tx *txn) verify() error {
	s := tx.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, st := range tx.entries {
		cur, ok := s.entries[id]
		if err := checkVersion("journal entry", id, st.isNew, st.base, ok, cur.Version); err != nil {
			return err
		}
	}
	for id, st := range tx.invoices {
		cur, ok := s.invoices[id]
		if err := checkVersion("invoice", id, st.isNew, st.base, ok, cur.Version); err != nil {
			return err
		}
	}
	for id, st := range tx.payments {
		cur, ok := s.payments[id]
		if err := checkVersion("payment", id, st.isNew, st.base, ok, cur.Version); err != nil {
			return err
		}
	}
	return nil
}

func checkVersion(kind, id string, isNew bool, base int64, exists bool, current int64) error {
	switch {
	case isNew && exists:
		return fmt.Errorf("%w: %s %s", apperrors.ErrDuplicate, kind, id)
	case !isNew && !exists:
		return apperrors.NewNotFoundError(kind + " " + id)
	case !isNew && current != base:
		return apperrors.NewConflictError(fmt.Sprintf("%s %s changed concurrently (version %d, expected %d)", kind, id, current, base))
	}
	return nil
}

// stage records v as the pending value of an aggregate first read at version base.
func stage[T any](m map[string]*staged[T], id string, v T, base int64, isNew bool) {
	if st, ok := m[id]; ok {
		st.value = v
		return
	}
	m[id] = &staged[T]{value: v, base: base, isNew: isNew}
}
