package session

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound indicates no session was found for the token.
	ErrSessionNotFound = errors.New("session.not_found")
	// ErrSessionExpired indicates the session lifetime has elapsed.
	ErrSessionExpired = errors.New("session.expired")
	// ErrInvalidSession indicates a malformed session was passed to a store.
	ErrInvalidSession = errors.New("session.invalid")
	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")
)

// Store defines the interface for session persistence.
type Store interface {
	// Save creates or replaces a session keyed by its token.
	Save(ctx context.Context, session *Session) error

	// Get retrieves a session by token.
	// Returns ErrSessionNotFound or ErrSessionExpired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error
}
