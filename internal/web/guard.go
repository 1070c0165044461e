package web

import (
	"net/http"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/pkg/session"
)

// RequireAuth redirects anonymous requests to the login page. It relies on
// the session middleware having resolved the session into the request
// context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.UserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePremium redirects users without an access-granting subscription to
// the subscribe page. Must be mounted after RequireAuth; an anonymous
// request reaching it is denied the same way.
func RequirePremium(gate *billing.AccessGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := session.UserIDFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !gate.CanAccessPremium(r.Context(), userID) {
				http.Redirect(w, r, "/subscribe", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
