package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type showUserJSON struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}

func decodeUser(t *testing.T, body []byte) showUserJSON {
	t.Helper()
	var out showUserJSON
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func decodeDetail(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Detail
}

// ─────────────────────────────────────────────────────────────────────────────
// End to end on SQLite
// ─────────────────────────────────────────────────────────────────────────────

func TestCreateUser_Success(t *testing.T) {
	database := setupSQLite(t)
	router := newTestRouter(database)

	resp := postUser(router, `{"name":"Анна","surname":"Иванова","email":"anna@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	out := decodeUser(t, resp.Body.Bytes())
	id, err := uuid.Parse(out.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, "Анна", out.Name)
	assert.Equal(t, "Иванова", out.Surname)
	assert.Equal(t, "anna@example.com", out.Email)
	require.NotNil(t, out.IsActive, "is_active must be present")
	assert.True(t, *out.IsActive)

	assert.Equal(t, 1, countUsers(t, database))
}

func TestCreateUser_FreshIDs(t *testing.T) {
	database := setupSQLite(t)
	router := newTestRouter(database)

	seen := make(map[string]bool)
	for i := range 5 {
		resp := postUser(router, fmt.Sprintf(`{"name":"John","surname":"Smith","email":"john%d@example.com"}`, i))
		require.Equal(t, http.StatusCreated, resp.Code)

		id := decodeUser(t, resp.Body.Bytes()).UserID
		assert.False(t, seen[id], "user_id %s reused", id)
		seen[id] = true
	}
}

func TestCreateUser_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		detail string
	}{
		{"digit in name", `{"name":"John2","surname":"Smith","email":"j@example.com"}`, "Name should contains only letters"},
		{"symbol in surname", `{"name":"John","surname":"Sm*th","email":"j@example.com"}`, "Surname should contains only letters"},
		{"invalid email", `{"name":"John","surname":"Smith","email":"not-an-email"}`, "Email should be a valid email address"},
		{"missing fields", `{}`, "Name should contains only letters"},
		{"malformed json", `{"name":`, "Request body must be a JSON object with name, surname and email"},
		{"wrong type", `{"name":1,"surname":"Smith","email":"j@example.com"}`, "Request body must be a JSON object with name, surname and email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			database := setupSQLite(t)
			router := newTestRouter(database)

			resp := postUser(router, tc.body)

			assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
			assert.Equal(t, tc.detail, decodeDetail(t, resp.Body.Bytes()))
			assert.Equal(t, 0, countUsers(t, database), "no row may be persisted")
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	database := setupSQLite(t)
	router := newTestRouter(database)

	first := postUser(router, `{"name":"Anna","surname":"Smith","email":"same@example.com"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	firstUser := decodeUser(t, first.Body.Bytes())

	second := postUser(router, `{"name":"Maria","surname":"Smith","email":"same@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, second.Code)
	assert.Equal(t, "Internal Server Error", decodeDetail(t, second.Body.Bytes()))

	var (
		name     string
		isActive bool
	)
	err := database.QueryRow(context.Background(),
		`SELECT name, is_active FROM users WHERE user_id = ?`, firstUser.UserID).Scan(&name, &isActive)
	require.NoError(t, err)
	assert.Equal(t, "Anna", name)
	assert.True(t, isActive)
	assert.Equal(t, 1, countUsers(t, database))
}

func TestCreateUser_ClientCancellationDoesNotAbortInsert(t *testing.T) {
	database := setupSQLite(t)
	router := newTestRouter(database)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := postUserWithContext(ctx, router, `{"name":"Late","surname":"Client","email":"late@example.com"}`)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, 1, countUsers(t, database))
}

func TestCreateUser_ConcurrentRequests(t *testing.T) {
	database := setupSQLite(t)
	router := newTestRouter(database)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := postUser(router, fmt.Sprintf(`{"name":"User","surname":"Parallel","email":"p%d@example.com"}`, i))
			codes[i] = resp.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "request %d", i)
	}
	assert.Equal(t, n, countUsers(t, database))
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction sequence on go-sqlmock
// ─────────────────────────────────────────────────────────────────────────────

var (
	insertSQL = regexp.QuoteMeta(`INSERT INTO users (user_id, name, surname, email, is_active) VALUES ($1, $2, $3, $4, $5)`)
	selectSQL = regexp.QuoteMeta(`SELECT user_id, name, surname, email, is_active FROM users WHERE user_id = $1`)
)

func TestCreateUser_CommitsOneTransaction(t *testing.T) {
	database, mock := setupMockDB(t)
	router := newTestRouter(database)
	stored := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).
		WithArgs(sqlmock.AnyArg(), "Анна", "Иванова", "anna@example.com", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectSQL).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "surname", "email", "is_active"}).
			AddRow(stored.String(), "Анна", "Иванова", "anna@example.com", true))
	mock.ExpectCommit()

	resp := postUser(router, `{"name":"Анна","surname":"Иванова","email":"anna@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, stored.String(), decodeUser(t, resp.Body.Bytes()).UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_RollsBackOnConstraintViolation(t *testing.T) {
	database, mock := setupMockDB(t)
	router := newTestRouter(database)

	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).
		WithArgs(sqlmock.AnyArg(), "John", "Smith", "taken@example.com", true).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "users_email_key"`})
	mock.ExpectRollback()

	resp := postUser(router, `{"name":"John","surname":"Smith","email":"taken@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Internal Server Error", decodeDetail(t, resp.Body.Bytes()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_SessionNotReceived(t *testing.T) {
	database, mock := setupMockDB(t)
	router := newTestRouter(database)

	mock.ExpectBegin().WillReturnError(errors.New("dial tcp 0.0.0.0:5432: connect: connection refused"))

	resp := postUser(router, `{"name":"John","surname":"Smith","email":"j@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_ValidationNeverOpensSession(t *testing.T) {
	database, mock := setupMockDB(t)
	router := newTestRouter(database)

	resp := postUser(router, `{"name":"John2","surname":"Smith","email":"j@example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "Name should contains only letters", decodeDetail(t, resp.Body.Bytes()))

	// No expectations were set: any Begin/Exec would have failed the request.
	assert.NoError(t, mock.ExpectationsWereMet())
}
