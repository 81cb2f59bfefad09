package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/Skryldev/edu-platform/db"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDefaultErrorMapper(t *testing.T) {
	m := db.DefaultErrorMapper()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, db.ErrNotFound},
		{"deadline", context.DeadlineExceeded, db.ErrTimeout},
		{"pq unique", &pq.Error{Code: "23505"}, db.ErrDuplicateKey},
		{"pq wrapped unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), db.ErrDuplicateKey},
		{"pq not null", &pq.Error{Code: "23502"}, db.ErrNotNullViolation},
		{"pq too many connections", &pq.Error{Code: "53300"}, db.ErrConnectionFailed},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, db.ErrDuplicateKey},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, db.ErrDeadlock},
		{"mysql dup entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, db.ErrDuplicateKey},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, db.ErrForeignKeyViolation},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), db.ErrDuplicateKey},
		{"conn done", sql.ErrConnDone, db.ErrConnectionFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Map(tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
			if !errors.Is(got, tc.in) {
				t.Fatalf("original error must stay reachable, got %v", got)
			}
		})
	}
}

func TestDefaultErrorMapper_PassThrough(t *testing.T) {
	m := db.DefaultErrorMapper()

	if m.Map(nil) != nil {
		t.Fatal("nil must map to nil")
	}

	plain := errors.New("something else")
	if got := m.Map(plain); got != plain {
		t.Fatalf("unknown errors must pass through, got %v", got)
	}

	unknownPQ := &pq.Error{Code: "42601"}
	if got := m.Map(unknownPQ); got != error(unknownPQ) {
		t.Fatalf("unclassified driver errors must pass through, got %v", got)
	}

	mapped := m.Map(sql.ErrNoRows)
	if again := m.Map(mapped); again != mapped {
		t.Fatal("mapped errors must not be wrapped twice")
	}
}
