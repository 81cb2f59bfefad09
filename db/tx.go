package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tx — one request's session
// ─────────────────────────────────────────────────────────────────────────────

// Tx wraps *sql.Tx and mirrors the DB API surface so repositories can accept
// either *DB or *Tx through Querier. A Tx owns exactly one pooled connection
// from Begin until Commit or Rollback.
type Tx struct {
	sqltx  *sql.Tx
	hooks  hookChain
	errMap ErrorMapper
	bind   BindType
}

// Raw returns the underlying *sql.Tx.
func (t *Tx) Raw() *sql.Tx { return t.sqltx }

// Exec executes a statement that does not return rows.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	res, err := t.sqltx.ExecContext(ctx, query, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// QueryRow executes a query expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	raw := t.sqltx.QueryRowContext(ctx, query, args...)
	t.hooks.After(ctx, query, args, time.Since(start), nil)
	return &Row{raw: raw, errMap: t.errMap}
}

// Rebind rewrites '?' placeholders into the driver's native style.
func (t *Tx) Rebind(query string) string { return Rebind(t.bind, query) }

func (t *Tx) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return t.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// ExecTx — scoped transaction
// ─────────────────────────────────────────────────────────────────────────────

// TxOptions allows callers to configure isolation level and read-only flag.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ExecTx begins a transaction, runs fn and commits when fn returns nil.
// Any error returned by fn, or a panic inside it, rolls the transaction back.
// Either way the connection goes back to the pool exactly once.
//
// A failure to begin is reported as ErrConnectionFailed.
//
//	err := database.ExecTx(ctx, func(tx *db.Tx) error {
//	    _, err := repo.NewUserRepo(tx).Create(ctx, params)
//	    return err
//	})
func (d *DB) ExecTx(ctx context.Context, fn func(*Tx) error, opts ...TxOptions) (err error) {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()

	var sqlOpts *sql.TxOptions
	if len(opts) > 0 {
		sqlOpts = &sql.TxOptions{
			Isolation: opts[0].Isolation,
			ReadOnly:  opts[0].ReadOnly,
		}
	}

	sqltx, err := d.sqldb.BeginTx(ctx, sqlOpts)
	if err != nil {
		return beginErr(d.mapErr(err))
	}

	tx := &Tx{
		sqltx:  sqltx,
		hooks:  d.hooks,
		errMap: d.errMap,
		bind:   d.bind,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqltx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("edu-platform/db: rollback failed (%v) after original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return d.mapErr(err)
	}

	if err = sqltx.Commit(); err != nil {
		return d.mapErr(err)
	}
	return nil
}

// beginErr keeps a driver classification (timeout, connection) when there is
// one and otherwise marks the failure as a connection failure.
func beginErr(err error) error {
	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}
	return &DBError{Sentinel: ErrConnectionFailed, Cause: err, Message: "begin transaction"}
}

// ─────────────────────────────────────────────────────────────────────────────
// Querier — the shared interface accepted by repositories
// ─────────────────────────────────────────────────────────────────────────────

// Querier is the minimal interface shared by both *DB and *Tx.
// Repository constructors accept Querier so they work inside transactions.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
	Rebind(query string) string
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
