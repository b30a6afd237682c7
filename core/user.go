package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailConflict = errors.New("email already registered")
)

type (
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		IsAdmin      bool      `json:"is_admin"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	UserStore interface {
		// CreateUser persists a new user. Returns ErrEmailConflict if the
		// email is already registered.
		CreateUser(ctx context.Context, user *User) error

		GetUser(ctx context.Context, id string) (*User, error)
		GetUserByEmail(ctx context.Context, email string) (*User, error)
	}
)
