package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/membergate/membergate/internal/billing"
)

// Stripe sends at most 64KB per event; anything larger is not a webhook.
const maxWebhookBody = 64 * 1024

// EventVerifier authenticates a raw webhook payload and normalizes it.
type EventVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*billing.Event, error)
}

// EventHandler reconciles one verified event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *billing.Event) error
}

// WebhookHandler terminates the provider's webhook deliveries.
type WebhookHandler struct {
	verifier   EventVerifier
	reconciler EventHandler
	log        *slog.Logger
}

// NewWebhookHandler creates the webhook endpoint handler. Panics on nil
// dependencies to fail fast during initialization.
func NewWebhookHandler(verifier EventVerifier, reconciler EventHandler, log *slog.Logger) *WebhookHandler {
	if verifier == nil {
		panic("web: event verifier is required")
	}
	if reconciler == nil {
		panic("web: event handler is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &WebhookHandler{verifier: verifier, reconciler: reconciler, log: log}
}

// ServeHTTP verifies and dispatches one delivery. Signature verification
// needs the exact bytes Stripe signed, so the body is read raw and never
// re-parsed before verification. Responses drive the provider's retry
// behavior: 400 rejects forged or unverifiable deliveries without retry,
// 200 acknowledges everything that was dispatched (including events the
// reconciler chose to drop), and 500 asks the provider to redeliver after
// a hard reconciliation failure.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.WarnContext(ctx, "reading webhook body", slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.WarnContext(ctx, "webhook verification failed", slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.reconciler.HandleEvent(ctx, event); err != nil {
		h.log.ErrorContext(ctx, "webhook reconciliation failed",
			slog.String("provider_kind", event.ProviderKind),
			slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
