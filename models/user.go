package models

import (
	"github.com/google/uuid"
)

// User represents a row in the "users" table.
// Fields map 1-to-1 with columns; no automatic relation loading.
type User struct {
	UserID   uuid.UUID
	Name     string
	Surname  string
	Email    string
	IsActive bool
}

// CreateUserParams holds the validated fields required to create a new user.
// The id and the active flag are assigned by the repository.
type CreateUserParams struct {
	Name    string
	Surname string
	Email   string
}

// UserCreate is the request body of user registration.
type UserCreate struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Params converts a validated body into repository input.
func (u UserCreate) Params() CreateUserParams {
	return CreateUserParams{Name: u.Name, Surname: u.Surname, Email: u.Email}
}

// ShowUser is the response representation of a stored user.
type ShowUser struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
	Email    string    `json:"email"`
	IsActive bool      `json:"is_active"`
}

// NewShowUser copies the stored fields of u.
func NewShowUser(u *User) ShowUser {
	return ShowUser{
		UserID:   u.UserID,
		Name:     u.Name,
		Surname:  u.Surname,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}
