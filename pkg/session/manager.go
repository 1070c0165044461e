package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Manager handles session lifecycle and cookie transport.
type Manager struct {
	store  Store
	config Config
}

// Option configures the session manager.
type Option func(*Manager)

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// New creates a session manager.
func New(opts ...Option) *Manager {
	m := &Manager{config: DefaultConfig()}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	return m
}

// Get retrieves the session identified by the request cookie.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}
	return m.store.Get(ctx, cookie.Value)
}

// Ensure returns the request's session, creating an anonymous one if needed.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if session, err := m.Get(ctx, r); err == nil {
		return session, nil
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := NewSession(token, nil, m.config.Lifetime)
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}

	m.setCookie(w, token)
	return session, nil
}

// Authenticate binds the request's session to a user. The token is rotated
// to prevent session fixation.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	if old, err := m.Get(ctx, r); err == nil {
		_ = m.store.Delete(ctx, old.Token)
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	session := NewSession(token, &userID, m.config.Lifetime)
	if err := m.store.Save(ctx, session); err != nil {
		return err
	}

	m.setCookie(w, token)
	return nil
}

// Logout destroys the request's session and clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	session, err := m.Get(ctx, r)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil
		}
		return err
	}

	if err := m.store.Delete(ctx, session.Token); err != nil {
		return err
	}

	m.clearCookie(w)
	return nil
}

// Middleware resolves the request's session and, when found, stores it in
// the request context. Requests without a valid session pass through
// unchanged; route guards decide what that means.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Get(r.Context(), r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.config.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   m.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
