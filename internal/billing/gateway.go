package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Gateway is the thin call wrapper around the payment provider. All
// protocol detail, retries and rate limiting live in the provider's SDK;
// implementations only translate between SDK types and this module's.
type Gateway interface {
	// CreateCheckoutSession requests a hosted checkout session for one
	// user on the configured plan. No local state changes; everything
	// downstream happens via webhook events.
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, origin string) (*CheckoutSession, error)

	// GetSubscription is a point-in-time read-through to the provider,
	// with no local caching. Fails with ErrProviderUnavailable on
	// transport or auth errors.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)

	// GetCustomer retrieves the provider's customer object, exposing the
	// user id stored in its metadata during checkout.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	// VerifyWebhook authenticates a raw webhook payload against its
	// signature header and normalizes it into an Event. Returns
	// ErrSignatureInvalid when authenticity cannot be established.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// CheckoutSession is a handle to a provider-hosted checkout flow. The
// front-end uses the ID to redirect the user to the provider's page.
type CheckoutSession struct {
	ID  string
	URL string
}

// SubscriptionSnapshot is an authoritative point-in-time view of a
// subscription at the provider.
type SubscriptionSnapshot struct {
	ID         string
	CustomerID string
	Status     Status
	PeriodEnd  *time.Time
}

// Customer is the provider's customer object reduced to what user
// resolution needs.
type Customer struct {
	ID     string
	UserID string // from metadata; empty when the mapping was never written
}

// EventKind is the normalized webhook event kind.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionCreated EventKind = "subscription_created"
	EventSubscriptionDeleted EventKind = "subscription_deleted"

	// EventUnknown covers provider event kinds this module does not
	// reconcile. They are accepted and ignored.
	EventUnknown EventKind = "unknown"
)

// Event is a normalized webhook event. Fields are populated on a
// best-effort basis from the provider payload; handlers decide which
// absences are fatal.
type Event struct {
	Kind         EventKind
	ProviderKind string // original provider event name, for logging

	UserID         string // checkout correlation id, when the kind carries one
	CustomerID     string
	SubscriptionID string
	CanceledAt     *time.Time // only on subscription deletion, from the event body
}
