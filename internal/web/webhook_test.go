package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/internal/user"
	"github.com/membergate/membergate/internal/web"
)

type stubVerifier struct {
	event *billing.Event
	err   error
}

func (s *stubVerifier) VerifyWebhook(payload []byte, signature string) (*billing.Event, error) {
	return s.event, s.err
}

type stubReconciler struct {
	err     error
	handled []*billing.Event
}

func (s *stubReconciler) HandleEvent(ctx context.Context, event *billing.Event) error {
	s.handled = append(s.handled, event)
	return s.err
}

func postWebhook(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"x"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	t.Run("rejects unverifiable deliveries without dispatch", func(t *testing.T) {
		t.Parallel()

		reconciler := &stubReconciler{}
		handler := web.NewWebhookHandler(&stubVerifier{err: billing.ErrSignatureInvalid}, reconciler, nil)

		rec := postWebhook(t, handler)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, reconciler.handled)
	})

	t.Run("acknowledges dispatched events", func(t *testing.T) {
		t.Parallel()

		reconciler := &stubReconciler{}
		handler := web.NewWebhookHandler(&stubVerifier{
			event: &billing.Event{Kind: billing.EventSubscriptionDeleted, ProviderKind: "customer.subscription.deleted"},
		}, reconciler, nil)

		rec := postWebhook(t, handler)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, reconciler.handled, 1)
		assert.Equal(t, billing.EventSubscriptionDeleted, reconciler.handled[0].Kind)
	})

	t.Run("acknowledges unrecognized event kinds", func(t *testing.T) {
		t.Parallel()

		handler := web.NewWebhookHandler(&stubVerifier{
			event: &billing.Event{Kind: billing.EventUnknown, ProviderKind: "invoice.paid"},
		}, &stubReconciler{}, nil)

		assert.Equal(t, http.StatusOK, postWebhook(t, handler).Code)
	})

	t.Run("surfaces hard reconciliation failures for redelivery", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{
			billing.ErrMalformedEvent,
			billing.ErrUnknownUser,
			billing.ErrProviderUnavailable,
		} {
			handler := web.NewWebhookHandler(&stubVerifier{
				event: &billing.Event{Kind: billing.EventCheckoutCompleted},
			}, &stubReconciler{err: err}, nil)

			assert.Equal(t, http.StatusInternalServerError, postWebhook(t, handler).Code)
		}
	})
}

// The webhook endpoint wired through the full router, verifying silent
// drops still acknowledge with 200 and that no record is written.
func TestWebhookThroughRouter(t *testing.T) {
	t.Parallel()

	records := billing.NewMemoryStore()
	deps := newTestDeps(t, records)

	verifier := &stubVerifier{
		event: &billing.Event{
			Kind:           billing.EventSubscriptionDeleted,
			CustomerID:     "cus_unknown",
			SubscriptionID: "sub_unknown",
		},
	}
	reconciler := billing.NewReconciler(&stubGateway{}, records, user.NewMemoryStore())
	router := web.Router(deps.sessions, deps.handlers, web.NewWebhookHandler(verifier, reconciler, nil), deps.gate, nil)

	rec := postWebhook(t, router)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := records.GetByCustomerID(context.Background(), "cus_unknown")
	assert.ErrorIs(t, err, billing.ErrRecordNotFound)
}
