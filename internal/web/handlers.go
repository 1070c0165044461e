package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/internal/user"
	"github.com/membergate/membergate/pkg/session"
)

// CheckoutGateway is the slice of the payment gateway the HTTP layer needs:
// starting checkouts and exposing the browser-side API key.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, origin string) (*billing.CheckoutSession, error)
	PublishableKey() string
}

// Handlers serves the application pages and checkout endpoints.
type Handlers struct {
	sessions *session.Manager
	users    user.Store
	gate     *billing.AccessGate
	gateway  CheckoutGateway
	views    *Views
	log      *slog.Logger
}

// NewHandlers creates the page handlers. Panics on nil dependencies to
// fail fast during initialization.
func NewHandlers(sessions *session.Manager, users user.Store, gate *billing.AccessGate, gateway CheckoutGateway, views *Views, log *slog.Logger) *Handlers {
	if sessions == nil {
		panic("web: session manager is required")
	}
	if users == nil {
		panic("web: user store is required")
	}
	if gate == nil {
		panic("web: access gate is required")
	}
	if gateway == nil {
		panic("web: checkout gateway is required")
	}
	if views == nil {
		panic("web: views are required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Handlers{
		sessions: sessions,
		users:    users,
		gate:     gate,
		gateway:  gateway,
		views:    views,
		log:      log,
	}
}

type homePageData struct {
	Email        string
	Subscription *billing.SubscriptionRecord
	HasPremium   bool
}

// Home renders the account overview with the current subscription status.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	owner, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := homePageData{Email: owner.Email}
	record, err := h.gate.Subscription(ctx, userID)
	switch {
	case err == nil:
		data.Subscription = record
		data.HasPremium = record.IsActive()
	case errors.Is(err, billing.ErrRecordNotFound):
		// Never checked out; the page renders the subscribe prompt.
	default:
		h.renderError(w, r, err)
		return
	}

	if err := h.views.Render(w, "home", data); err != nil {
		h.log.ErrorContext(ctx, "rendering home", slog.String("error", err.Error()))
	}
}

// Dashboard renders the premium content. Reaching it at all means the
// premium guard already passed.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Render(w, "dashboard", nil); err != nil {
		h.log.ErrorContext(r.Context(), "rendering dashboard", slog.String("error", err.Error()))
	}
}

// Subscribe renders the pricing page users land on when they lack an
// access-granting subscription.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Render(w, "subscribe", nil); err != nil {
		h.log.ErrorContext(r.Context(), "rendering subscribe", slog.String("error", err.Error()))
	}
}

// Success renders the post-checkout landing page. The subscription record
// itself is written by the webhook flow, not here.
func (h *Handlers) Success(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Render(w, "success", nil); err != nil {
		h.log.ErrorContext(r.Context(), "rendering success", slog.String("error", err.Error()))
	}
}

// Cancel renders the abandoned-checkout page.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Render(w, "cancel", nil); err != nil {
		h.log.ErrorContext(r.Context(), "rendering cancel", slog.String("error", err.Error()))
	}
}

// Config exposes the browser-side payment configuration.
func (h *Handlers) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publicKey": h.gateway.PublishableKey(),
	})
}

// CreateCheckoutSession starts a hosted checkout for the authenticated
// user and returns the session id the browser redirects with.
func (h *Handlers) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	checkout, err := h.gateway.CreateCheckoutSession(ctx, userID, requestOrigin(r))
	if err != nil {
		h.log.ErrorContext(ctx, "creating checkout session",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkout unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": checkout.ID})
}

type loginPageData struct {
	Email string
	Error string
}

// LoginPage renders the login form. Already-authenticated users are sent
// home.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := h.views.Render(w, "login", loginPageData{}); err != nil {
		h.log.ErrorContext(r.Context(), "rendering login", slog.String("error", err.Error()))
	}
}

// Login authenticates the submitted credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, "", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		h.renderLoginError(w, email, http.StatusUnprocessableEntity)
		return
	}

	account, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			h.renderLoginError(w, email, http.StatusUnauthorized)
			return
		}
		h.renderError(w, r, err)
		return
	}

	if !account.CheckPassword(password) {
		h.renderLoginError(w, email, http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Authenticate(ctx, w, r, account.ID); err != nil {
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session and returns to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.log.ErrorContext(r.Context(), "logging out", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handlers) renderLoginError(w http.ResponseWriter, email string, status int) {
	err := h.views.RenderStatus(w, status, "login", loginPageData{
		Email: email,
		Error: "Invalid email or password.",
	})
	if err != nil {
		h.log.Error("rendering login", slog.String("error", err.Error()))
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requestOrigin reconstructs the scheme://host origin the browser used,
// honoring the proxy's forwarded-proto header. Used to build the checkout
// success and cancel return URLs.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
