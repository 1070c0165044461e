// Package session provides cookie-token HTTP sessions with pluggable
// storage. A session is anonymous until Authenticate binds it to a user;
// authentication rotates the token to prevent fixation.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a user session.
type Session struct {
	Token     string     `json:"token"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewSession creates a session with the given token and lifetime.
func NewSession(token string, userID *uuid.UUID, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsAuthenticated returns true if the session is bound to a user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsExpired returns true if the session lifetime has elapsed.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}
