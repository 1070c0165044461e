package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
)

// StripeConfig holds configuration for the Stripe gateway.
type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	PublishableKey string `env:"STRIPE_PUBLISHABLE_KEY,required"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PriceID        string `env:"STRIPE_PRICE_ID,required"`
}

// StripeGateway implements Gateway for Stripe.
type StripeGateway struct {
	client *stripe.Client
	config StripeConfig
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(config StripeConfig) (*StripeGateway, error) {
	if config.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	if config.PriceID == "" {
		return nil, errors.New("stripe price ID is required")
	}

	return &StripeGateway{
		client: stripe.NewClient(config.SecretKey),
		config: config,
	}, nil
}

// PublishableKey returns the public API key the front-end needs to redirect
// users to the hosted checkout page.
func (g *StripeGateway) PublishableKey() string {
	return g.config.PublishableKey
}

// CreateCheckoutSession creates a subscription-mode checkout session scoped
// to one user on the configured price. The user id is embedded both as the
// client reference id and in session metadata: the reference id does not
// survive every event type, so metadata is the fallback path for resolving
// the user later.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, origin string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		ClientReferenceID:  stripe.String(userID.String()),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(g.config.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(origin + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(origin + "/cancel"),
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	}

	session, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// GetSubscription retrieves the authoritative subscription snapshot.
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	sub, err := g.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	snapshot := &SubscriptionSnapshot{
		ID:        sub.ID,
		Status:    Status(sub.Status),
		PeriodEnd: subscriptionPeriodEnd(sub),
	}
	if sub.Customer != nil {
		snapshot.CustomerID = sub.Customer.ID
	}
	return snapshot, nil
}

// GetCustomer retrieves a provider customer and the user id written into
// its metadata during checkout, if any.
func (g *StripeGateway) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	cust, err := g.client.V1Customers.Retrieve(ctx, customerID, nil)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	customer := &Customer{ID: cust.ID}
	if cust.Metadata != nil {
		customer.UserID = cust.Metadata["user_id"]
	}
	return customer, nil
}

// VerifyWebhook authenticates the raw payload against the Stripe-Signature
// header and normalizes the event. Signature verification needs the exact
// request bytes, so callers must not parse or re-serialize the body first.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := stripe.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	return normalizeEvent(stripeEvent)
}

// normalizeEvent maps a verified Stripe event onto the provider-neutral
// event shape the reconciler consumes.
func normalizeEvent(stripeEvent stripe.Event) (*Event, error) {
	event := &Event{ProviderKind: string(stripeEvent.Type)}

	switch stripeEvent.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: decoding checkout session: %w", ErrMalformedEvent, err)
		}

		event.Kind = EventCheckoutCompleted
		event.UserID = session.ClientReferenceID
		if event.UserID == "" && session.Metadata != nil {
			event.UserID = session.Metadata["user_id"]
		}
		if session.Customer != nil {
			event.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			event.SubscriptionID = session.Subscription.ID
		}

	case "customer.subscription.created", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: decoding subscription: %w", ErrMalformedEvent, err)
		}

		if stripeEvent.Type == "customer.subscription.created" {
			event.Kind = EventSubscriptionCreated
		} else {
			event.Kind = EventSubscriptionDeleted
			if sub.CanceledAt > 0 {
				canceledAt := time.Unix(sub.CanceledAt, 0).UTC()
				event.CanceledAt = &canceledAt
			}
		}

		event.SubscriptionID = sub.ID
		if sub.Customer != nil {
			event.CustomerID = sub.Customer.ID
		}

	default:
		event.Kind = EventUnknown
	}

	return event, nil
}

// subscriptionPeriodEnd extracts the current billing period end. Period
// boundaries live on subscription items in current Stripe API versions;
// the latest one across items wins.
func subscriptionPeriodEnd(sub *stripe.Subscription) *time.Time {
	if sub.Items == nil {
		return nil
	}

	var latest int64
	for _, item := range sub.Items.Data {
		if item != nil && item.CurrentPeriodEnd > latest {
			latest = item.CurrentPeriodEnd
		}
	}

	if latest == 0 {
		return nil
	}
	periodEnd := time.Unix(latest, 0).UTC()
	return &periodEnd
}
