package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_core/internal/models"
	"github.com/SscSPs/bookkeeping_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, code, name, account_type, nature, level, parent_account_id, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db().Exec(ctx, query,
		m.AccountID,
		m.Code,
		m.Name,
		m.AccountType,
		m.Nature,
		m.Level,
		m.ParentAccountID,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "save account "+m.Code)
	}
	return nil
}

func (r *PgxAccountRepository) findOne(ctx context.Context, where string, arg any, label string) (*domain.Account, error) {
	rows, err := r.db().Query(ctx, "SELECT "+accountColumns+" FROM accounts WHERE "+where, arg)
	if err != nil {
		return nil, mapPgError(err, "find "+label)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(label)
	}
	if err != nil {
		return nil, mapPgError(err, "scan "+label)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, "account_id = $1", accountID, "account "+accountID)
}

// FindAccountByCode retrieves an account by its chart-of-accounts code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.findOne(ctx, "code = $1", code, "account with code "+code)
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := r.db().Query(ctx, "SELECT "+accountColumns+" FROM accounts WHERE account_id = ANY($1)", accountIDs)
	if err != nil {
		return nil, mapPgError(err, "find accounts by IDs")
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, mapPgError(err, "scan accounts")
	}
	for _, m := range ms {
		out[m.AccountID] = mapping.ToDomainAccount(m)
	}
	return out, nil
}

// ListAccounts retrieves a page of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	var pageLimit *int
	if limit > 0 {
		pageLimit = &limit
	}
	rows, err := r.db().Query(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY code LIMIT $1 OFFSET $2", pageLimit, offset)
	if err != nil {
		return nil, mapPgError(err, "list accounts")
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, mapPgError(err, "scan accounts")
	}
	return mapping.ToDomainAccountSlice(ms), nil
}

// UpdateAccount updates the mutable fields of an account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		UPDATE accounts
		SET name = $2, is_active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1;
	`
	cmdTag, err := r.db().Exec(ctx, query, m.AccountID, m.Name, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "update account "+m.AccountID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + m.AccountID)
	}
	return nil
}
