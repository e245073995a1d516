// Package memory is an in-process store implementing every persistence port.
// Aggregates carry versions; units of work stage their writes and commit them all
// at once after checking those versions under per-aggregate locks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
)

// Store holds committed state. mu guards the maps only; it is never held across a unit of work.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	accountCodes map[string]string // code -> account ID
	entries      map[string]domain.JournalEntry
	lineIndex    map[string]string // line ID -> entry ID
	invoices     map[string]domain.Invoice
	payments     map[string]domain.Payment

	locks keyLocks
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]string),
		entries:      make(map[string]domain.JournalEntry),
		lineIndex:    make(map[string]string),
		invoices:     make(map[string]domain.Invoice),
		payments:     make(map[string]domain.Payment),
		locks:        keyLocks{m: make(map[string]*sync.Mutex)},
	}
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   &accountRepo{s: s},
		JournalRepo:   &journalRepo{s: s},
		InvoiceRepo:   &invoiceRepo{s: s},
		PaymentRepo:   &paymentRepo{s: s},
		ReportingRepo: &reportingRepo{s: s},
		TxManager:     s,
	}
}

// keyLocks hands out one mutex per aggregate key.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	return l
}

// lockAll acquires the locks of keys in sorted order and returns the release func.
func (k *keyLocks) lockAll(keys []string) func() {
	sort.Strings(keys)
	held := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		l := k.get(key)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// accountRepo implements portsrepo.AccountRepositoryFacade.
// Accounts are reference data and are written outside units of work.
type accountRepo struct {
	s *Store
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepo)(nil)

func (r *accountRepo) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	return &acc, nil
}

func (r *accountRepo) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.accountCodes[code]
	if !ok {
		return nil, apperrors.NewNotFoundError("account with code " + code)
	}
	acc := r.s.accounts[id]
	return &acc, nil
}

func (r *accountRepo) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := r.s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (r *accountRepo) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	r.s.mu.RLock()
	all := make([]domain.Account, 0, len(r.s.accounts))
	for _, acc := range r.s.accounts {
		all = append(all, acc)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *accountRepo) SaveAccount(ctx context.Context, account domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accountCodes[account.Code]; ok {
		return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
	}
	if _, ok := r.s.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	r.s.accounts[account.AccountID] = account
	r.s.accountCodes[account.Code] = account.AccountID
	return nil
}

func (r *accountRepo) UpdateAccount(ctx context.Context, account domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.accounts[account.AccountID]
	if !ok {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	current.Name = account.Name
	current.IsActive = account.IsActive
	current.AuditFields.Touch(account.LastUpdatedBy, account.LastUpdatedAt)
	r.s.accounts[account.AccountID] = current
	return nil
}
