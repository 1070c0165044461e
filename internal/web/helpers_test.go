package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/internal/user"
	"github.com/membergate/membergate/internal/web"
	"github.com/membergate/membergate/pkg/session"
)

// stubGateway satisfies billing.Gateway with canned responses.
type stubGateway struct {
	checkout    *billing.CheckoutSession
	checkoutErr error
	snapshot    *billing.SubscriptionSnapshot
	snapshotErr error
	customer    *billing.Customer
	customerErr error
}

func (s *stubGateway) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, origin string) (*billing.CheckoutSession, error) {
	return s.checkout, s.checkoutErr
}

func (s *stubGateway) GetSubscription(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	return s.snapshot, s.snapshotErr
}

func (s *stubGateway) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	return s.customer, s.customerErr
}

func (s *stubGateway) VerifyWebhook(payload []byte, signature string) (*billing.Event, error) {
	return nil, billing.ErrSignatureInvalid
}

func (s *stubGateway) PublishableKey() string { return "pk_test_123" }

type testDeps struct {
	sessions *session.Manager
	users    *user.MemoryStore
	records  billing.Store
	gate     *billing.AccessGate
	gateway  *stubGateway
	handlers *web.Handlers
}

func newTestDeps(t *testing.T, records billing.Store) *testDeps {
	t.Helper()

	if records == nil {
		records = billing.NewMemoryStore()
	}

	store := session.NewMemoryStore(0)
	t.Cleanup(store.Close)

	sessions := session.New(session.WithStore(store))
	users := user.NewMemoryStore()
	gate := billing.NewAccessGate(records)
	gateway := &stubGateway{checkout: &billing.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}}

	views, err := web.NewViews()
	require.NoError(t, err)

	return &testDeps{
		sessions: sessions,
		users:    users,
		records:  records,
		gate:     gate,
		gateway:  gateway,
		handlers: web.NewHandlers(sessions, users, gate, gateway, views, nil),
	}
}

func (d *testDeps) router(t *testing.T) http.Handler {
	t.Helper()

	verifier := &stubVerifier{err: billing.ErrSignatureInvalid}
	reconciler := billing.NewReconciler(&stubGateway{}, billing.NewMemoryStore(), user.NewMemoryStore())
	return web.Router(d.sessions, d.handlers, web.NewWebhookHandler(verifier, reconciler, nil), d.gate, nil)
}

// createUser registers an account and returns it.
func (d *testDeps) createUser(t *testing.T, email string) *user.User {
	t.Helper()

	u, err := user.New(email, "password")
	require.NoError(t, err)
	require.NoError(t, d.users.Create(context.Background(), u))
	return u
}

// signIn starts an authenticated session and returns its cookie.
func (d *testDeps) signIn(t *testing.T, userID uuid.UUID) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, d.sessions.Authenticate(context.Background(), rec, req, userID))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}
