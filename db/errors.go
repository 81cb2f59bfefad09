package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sentinel errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("edu-platform/db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("edu-platform/db: duplicate key")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("edu-platform/db: foreign key violation")

	// ErrNotNullViolation is returned when a NOT NULL column receives NULL.
	ErrNotNullViolation = errors.New("edu-platform/db: not null violation")

	// ErrDeadlock is returned when the database detects a deadlock.
	ErrDeadlock = errors.New("edu-platform/db: deadlock detected")

	// ErrTimeout is returned when a statement exceeds its deadline.
	ErrTimeout = errors.New("edu-platform/db: query timeout")

	// ErrCheckViolation is returned when a CHECK constraint is violated.
	ErrCheckViolation = errors.New("edu-platform/db: check constraint violation")

	// ErrConnectionFailed is returned when no connection could be obtained.
	ErrConnectionFailed = errors.New("edu-platform/db: connection failed")
)

func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }
func IsNotNullViolation(err error) bool    { return errors.Is(err, ErrNotNullViolation) }
func IsDeadlock(err error) bool            { return errors.Is(err, ErrDeadlock) }
func IsTimeout(err error) bool             { return errors.Is(err, ErrTimeout) }
func IsCheckViolation(err error) bool      { return errors.Is(err, ErrCheckViolation) }
func IsConnectionFailed(err error) bool    { return errors.Is(err, ErrConnectionFailed) }

// IsConstraintViolation reports whether err is any integrity failure raised
// by the storage layer at write time.
func IsConstraintViolation(err error) bool {
	return IsDuplicateKey(err) || IsForeignKeyViolation(err) ||
		IsNotNullViolation(err) || IsCheckViolation(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// DBError — sentinel plus original driver error
// ─────────────────────────────────────────────────────────────────────────────

// DBError wraps a sentinel error with the original driver error so callers can
// use errors.Is(err, ErrDuplicateKey) or inspect the raw driver error.
type DBError struct {
	// Sentinel is one of the package-level Err* variables.
	Sentinel error
	// Cause is the original driver error.
	Cause error
	// Message is an optional human-readable hint.
	Message string
}

func (e *DBError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Sentinel, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ─────────────────────────────────────────────────────────────────────────────
// ErrorMapper
// ─────────────────────────────────────────────────────────────────────────────

// ErrorMapper translates raw driver errors into the package's sentinel errors.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc adapts a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper returns a mapper covering lib/pq, pgx, MySQL and SQLite.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}

	// Already mapped, do not double-wrap.
	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}

	var pqe *pq.Error
	if errors.As(err, &pqe) {
		if mapped := mapByPGCode(string(pqe.Code), err); mapped != nil {
			return mapped
		}
		return err
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		if mapped := mapByPGCode(pge.Code, err); mapped != nil {
			return mapped
		}
		return err
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if mapped := mapMySQLError(me.Number, err); mapped != nil {
			return mapped
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}

	// SQLite errors are matched on text so the cgo driver stays out of this package.
	if mapped := mapSQLiteError(err); mapped != nil {
		return mapped
	}

	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq and pgx share SQLSTATE codes)
// ─────────────────────────────────────────────────────────────────────────────

// https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapByPGCode(code string, cause error) error {
	switch code {
	case "23505": // unique_violation
		return &DBError{Sentinel: ErrDuplicateKey, Cause: cause}
	case "23503": // foreign_key_violation
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: cause}
	case "23502": // not_null_violation
		return &DBError{Sentinel: ErrNotNullViolation, Cause: cause}
	case "23514": // check_violation
		return &DBError{Sentinel: ErrCheckViolation, Cause: cause}
	case "40P01": // deadlock_detected
		return &DBError{Sentinel: ErrDeadlock, Cause: cause}
	case "57014": // query_canceled (statement_timeout)
		return &DBError{Sentinel: ErrTimeout, Cause: cause}
	case "08000", "08003", "08006", "08001", "08004", "08007", "08P01", "53300":
		return &DBError{Sentinel: ErrConnectionFailed, Cause: cause}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

func mapMySQLError(number uint16, cause error) error {
	switch number {
	case 1062: // ER_DUP_ENTRY
		return &DBError{Sentinel: ErrDuplicateKey, Cause: cause}
	case 1452, 1216, 1217: // ER_NO_REFERENCED_ROW, ER_ROW_IS_REFERENCED
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: cause}
	case 1048: // ER_BAD_NULL_ERROR
		return &DBError{Sentinel: ErrNotNullViolation, Cause: cause}
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return &DBError{Sentinel: ErrCheckViolation, Cause: cause}
	case 1213: // ER_LOCK_DEADLOCK
		return &DBError{Sentinel: ErrDeadlock, Cause: cause}
	case 3024: // ER_QUERY_TIMEOUT
		return &DBError{Sentinel: ErrTimeout, Cause: cause}
	case 1040, 1045:
		return &DBError{Sentinel: ErrConnectionFailed, Cause: cause}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

func mapSQLiteError(err error) error {
	s := err.Error()
	switch {
	case strings.Contains(s, "UNIQUE constraint failed"):
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case strings.Contains(s, "FOREIGN KEY constraint failed"):
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case strings.Contains(s, "NOT NULL constraint failed"):
		return &DBError{Sentinel: ErrNotNullViolation, Cause: err}
	case strings.Contains(s, "CHECK constraint failed"):
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case strings.Contains(s, "database is locked"):
		return &DBError{Sentinel: ErrDeadlock, Cause: err}
	}
	return nil
}
