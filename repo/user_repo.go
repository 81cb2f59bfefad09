package repo

import (
	"context"
	"fmt"

	"github.com/Skryldev/edu-platform/db"
	"github.com/Skryldev/edu-platform/models"
	"github.com/google/uuid"
)

// ─────────────────────────────────────────────────────────────────────────────
// UserRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// UserRepository is the data access layer for users.
type UserRepository interface {
	// Create stages a new active user with a fresh id and flushes it: the row
	// is written and readable through the same Querier but committed only
	// when the surrounding transaction is. Constraint failures are returned
	// as mapped db errors (see db.IsDuplicateKey).
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// userRepo — concrete implementation
// ─────────────────────────────────────────────────────────────────────────────

type userRepo struct {
	q db.Querier
}

// NewUserRepo returns a UserRepository backed by q.
// q is normally the request's *db.Tx; a *db.DB autocommits each statement.
func NewUserRepo(q db.Querier) UserRepository {
	return &userRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

// Written with '?' placeholders and rebound per driver.
const (
	sqlInsertUser = `
		INSERT INTO users (user_id, name, surname, email, is_active)
		VALUES (?, ?, ?, ?, ?)`

	sqlGetUserByID = `
		SELECT user_id, name, surname, email, is_active
		FROM   users
		WHERE  user_id = ?`
)

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

func (r *userRepo) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	id := uuid.New()

	_, err := r.q.Exec(ctx, r.q.Rebind(sqlInsertUser),
		id, params.Name, params.Surname, params.Email, true)
	if err != nil {
		return nil, fmt.Errorf("repo/user: insert: %w", err)
	}

	// Read the flushed row back so the caller gets what storage holds.
	row := r.q.QueryRow(ctx, r.q.Rebind(sqlGetUserByID), id)
	return scanUser(row)
}

// scanUser is the single place that maps user columns.
func scanUser(row *db.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.UserID, &u.Name, &u.Surname, &u.Email, &u.IsActive); err != nil {
		return nil, fmt.Errorf("repo/user: %w", err)
	}
	return u, nil
}

var _ UserRepository = (*userRepo)(nil)
