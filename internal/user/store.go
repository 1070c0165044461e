package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("email already taken")
)

// Store defines the interface for user persistence.
type Store interface {
	// GetByID retrieves a user by ID. Returns ErrUserNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email. Returns ErrUserNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create stores a new user. Returns ErrEmailTaken on email conflict.
	Create(ctx context.Context, u *User) error
}
