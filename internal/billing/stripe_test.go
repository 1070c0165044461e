package billing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
)

func TestNewStripeGateway(t *testing.T) {
	t.Parallel()

	valid := StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  "whsec_test",
		PriceID:        "price_123",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		gateway, err := NewStripeGateway(valid)
		require.NoError(t, err)
		assert.Equal(t, "pk_test_123", gateway.PublishableKey())
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		for name, mutate := range map[string]func(*StripeConfig){
			"secret key":     func(c *StripeConfig) { c.SecretKey = "" },
			"webhook secret": func(c *StripeConfig) { c.WebhookSecret = "" },
			"price id":       func(c *StripeConfig) { c.PriceID = "" },
		} {
			cfg := valid
			mutate(&cfg)
			_, err := NewStripeGateway(cfg)
			assert.Error(t, err, name)
		}
	})
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	gateway, err := NewStripeGateway(StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  "whsec_test",
		PriceID:        "price_123",
	})
	require.NoError(t, err)

	payload := []byte(`{"type":"checkout.session.completed"}`)

	_, err = gateway.VerifyWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = gateway.VerifyWebhook(payload, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func rawEvent(t *testing.T, eventType string, object any) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestNormalizeEvent(t *testing.T) {
	t.Parallel()

	t.Run("checkout session completed", func(t *testing.T) {
		t.Parallel()

		event, err := normalizeEvent(rawEvent(t, "checkout.session.completed", map[string]any{
			"id":                  "cs_test_1",
			"client_reference_id": "6b9f3a1e-8a9e-4bd2-b7a6-0f2dce0af1f2",
			"customer":            "cus_1",
			"subscription":        "sub_1",
		}))
		require.NoError(t, err)

		assert.Equal(t, EventCheckoutCompleted, event.Kind)
		assert.Equal(t, "checkout.session.completed", event.ProviderKind)
		assert.Equal(t, "6b9f3a1e-8a9e-4bd2-b7a6-0f2dce0af1f2", event.UserID)
		assert.Equal(t, "cus_1", event.CustomerID)
		assert.Equal(t, "sub_1", event.SubscriptionID)
	})

	t.Run("checkout falls back to metadata user id", func(t *testing.T) {
		t.Parallel()

		event, err := normalizeEvent(rawEvent(t, "checkout.session.completed", map[string]any{
			"id":       "cs_test_1",
			"customer": "cus_1",
			"metadata": map[string]string{"user_id": "6b9f3a1e-8a9e-4bd2-b7a6-0f2dce0af1f2"},
		}))
		require.NoError(t, err)

		assert.Equal(t, "6b9f3a1e-8a9e-4bd2-b7a6-0f2dce0af1f2", event.UserID)
		assert.Empty(t, event.SubscriptionID)
	})

	t.Run("subscription created", func(t *testing.T) {
		t.Parallel()

		event, err := normalizeEvent(rawEvent(t, "customer.subscription.created", map[string]any{
			"id":       "sub_1",
			"customer": "cus_1",
			"status":   "trialing",
		}))
		require.NoError(t, err)

		assert.Equal(t, EventSubscriptionCreated, event.Kind)
		assert.Equal(t, "sub_1", event.SubscriptionID)
		assert.Equal(t, "cus_1", event.CustomerID)
		assert.Nil(t, event.CanceledAt)
	})

	t.Run("subscription deleted carries canceled at", func(t *testing.T) {
		t.Parallel()

		canceledAt := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
		event, err := normalizeEvent(rawEvent(t, "customer.subscription.deleted", map[string]any{
			"id":          "sub_1",
			"customer":    "cus_1",
			"status":      "canceled",
			"canceled_at": canceledAt.Unix(),
		}))
		require.NoError(t, err)

		assert.Equal(t, EventSubscriptionDeleted, event.Kind)
		require.NotNil(t, event.CanceledAt)
		assert.Equal(t, canceledAt, *event.CanceledAt)
	})

	t.Run("unrelated event types pass through as unknown", func(t *testing.T) {
		t.Parallel()

		event, err := normalizeEvent(rawEvent(t, "invoice.payment_succeeded", map[string]any{"id": "in_1"}))
		require.NoError(t, err)
		assert.Equal(t, EventUnknown, event.Kind)
		assert.Equal(t, "invoice.payment_succeeded", event.ProviderKind)
	})

	t.Run("undecodable payload is malformed", func(t *testing.T) {
		t.Parallel()

		_, err := normalizeEvent(stripe.Event{
			Type: "customer.subscription.created",
			Data: &stripe.EventData{Raw: json.RawMessage(`{"id":42}`)},
		})
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}

func TestSubscriptionPeriodEnd(t *testing.T) {
	t.Parallel()

	t.Run("latest item wins", func(t *testing.T) {
		t.Parallel()

		earlier := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		later := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

		got := subscriptionPeriodEnd(&stripe.Subscription{
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{CurrentPeriodEnd: earlier.Unix()},
					{CurrentPeriodEnd: later.Unix()},
				},
			},
		})
		require.NotNil(t, got)
		assert.Equal(t, later, *got)
	})

	t.Run("no items", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, subscriptionPeriodEnd(&stripe.Subscription{}))
		assert.Nil(t, subscriptionPeriodEnd(&stripe.Subscription{Items: &stripe.SubscriptionItemList{}}))
	})
}
