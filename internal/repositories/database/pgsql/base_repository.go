// Package pgsql implements the persistence ports on PostgreSQL through pgx.
// Optimistic versions are enforced with version-guarded UPDATE statements.
package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// BaseRepository provides common functionality for all repositories.
// Tx is set when the repository is bound to a unit of work.
type BaseRepository struct {
	Pool *pgxpool.Pool
	Tx   pgx.Tx
}

// db returns the transaction when bound to one, the pool otherwise.
func (r *BaseRepository) db() querier {
	if r.Tx != nil {
		return r.Tx
	}
	return r.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, "commit transaction")
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// withinTx runs fn on the bound transaction, or on a fresh one committed when fn succeeds.
// Multi-statement writes go through it so they never land half-applied.
func (r *BaseRepository) withinTx(ctx context.Context, fn func(q querier) error) error {
	if r.Tx != nil {
		return fn(r.Tx)
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Ignored once committed
	if err := fn(tx); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// mapPgError translates driver errors into the apperrors taxonomy.
func mapPgError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s: %s", apperrors.ErrDuplicate, what, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s: %s references a missing row", apperrors.ErrValidation, what, pgErr.ConstraintName)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperrors.NewConflictError(what + ": " + pgErr.Message)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.NewAppError(500, "failed to "+what, err)
}

// versionMismatch resolves an UPDATE that matched no row into NotFound or Conflict.
func versionMismatch(ctx context.Context, q querier, table, keyColumn, id string, expected int64) error {
	var current int64
	err := q.QueryRow(ctx, "SELECT version FROM "+table+" WHERE "+keyColumn+" = $1", id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError(table + " " + id)
	}
	if err != nil {
		return mapPgError(err, "read version of "+table+" "+id)
	}
	return apperrors.NewConflictError(fmt.Sprintf("%s %s is at version %d, expected %d", table, id, current, expected))
}
