package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Skryldev/edu-platform/db"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupSQLite returns a single-connection in-memory database with the users table.
func setupSQLite(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(db.Config{
		DSN:          ":memory:",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	_, err = database.Exec(context.Background(), `
		CREATE TABLE users (
			user_id   TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			surname   TEXT NOT NULL,
			email     TEXT NOT NULL UNIQUE,
			is_active BOOLEAN DEFAULT TRUE
		)`)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return database
}

// setupMockDB wraps a go-sqlmock connection as a postgres pool.
func setupMockDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	return db.New(sqldb, db.Config{DriverName: "postgres"}), mock
}

func newTestRouter(sessions TxRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewUserHandler(sessions, discardLogger), discardLogger)
}

func postUser(router http.Handler, body string) *httptest.ResponseRecorder {
	return postUserWithContext(context.Background(), router, body)
}

func postUserWithContext(ctx context.Context, router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/user/", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func countUsers(t *testing.T, database *db.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}
