package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/membergate/membergate/internal/user"
)

// UserDirectory resolves checkout correlation ids to known user accounts.
// Satisfied by user.Store implementations.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Reconciler projects provider-declared subscription state onto the local
// record store. It never second-guesses the provider: status always comes
// from the freshest available read (a live snapshot where possible), and
// every write is a full-overwrite upsert so replays and reordered
// deliveries converge to the same final record.
//
// No timestamps are compared to reject "stale" events; the policy is
// last-write-wins by arrival order.
type Reconciler struct {
	gateway Gateway
	records Store
	users   UserDirectory
	log     *slog.Logger
}

// ReconcilerOption configures the reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger for dropped-event and fallback diagnostics.
func WithLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReconciler creates a reconciler. Panics on nil dependencies to fail
// fast during initialization.
func NewReconciler(gateway Gateway, records Store, users UserDirectory, opts ...ReconcilerOption) *Reconciler {
	if gateway == nil {
		panic("billing: Gateway is required")
	}
	if records == nil {
		panic("billing: Store is required")
	}
	if users == nil {
		panic("billing: UserDirectory is required")
	}

	r := &Reconciler{
		gateway: gateway,
		records: records,
		users:   users,
		log:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HandleEvent dispatches a verified event to its handler. Unrecognized
// kinds are ignored: the provider emits far more event types than this
// module reconciles.
func (r *Reconciler) HandleEvent(ctx context.Context, event *Event) error {
	switch event.Kind {
	case EventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionCreated:
		return r.handleSubscriptionCreated(ctx, event)
	case EventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event)
	default:
		r.log.DebugContext(ctx, "ignoring event", slog.String("provider_kind", event.ProviderKind))
		return nil
	}
}

// handleCheckoutCompleted records the outcome of a finished checkout.
//
// The checkout payload does not reliably carry subscription status, so the
// authoritative snapshot is fetched from the provider instead of trusting
// the event body. The final upsert is a full overwrite, which makes
// replayed deliveries converge to the same record.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, event *Event) error {
	// This module only supports subscription-mode checkout; a completed
	// session without a subscription is a contract violation.
	if event.SubscriptionID == "" {
		return fmt.Errorf("%w: checkout session has no subscription id", ErrMalformedEvent)
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: correlation id %q: %w", ErrUnknownUser, event.UserID, err)
	}

	owner, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return fmt.Errorf("%w: correlation id %q", ErrUnknownUser, event.UserID)
		}
		return fmt.Errorf("resolving user %s: %w", userID, err)
	}

	snapshot, err := r.gateway.GetSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetching subscription %s: %w", event.SubscriptionID, err)
	}

	if err := r.records.Upsert(ctx, &SubscriptionRecord{
		UserID:                 owner.ID,
		ProviderCustomerID:     event.CustomerID,
		ProviderSubscriptionID: snapshot.ID,
		Status:                 snapshot.Status,
		PeriodEnd:              snapshot.PeriodEnd,
	}); err != nil {
		return fmt.Errorf("saving subscription record: %w", err)
	}

	r.log.InfoContext(ctx, "checkout completed",
		slog.String("user_id", owner.ID.String()),
		slog.String("subscription_id", snapshot.ID),
		slog.String("status", string(snapshot.Status)))
	return nil
}

// handleSubscriptionCreated reconciles a subscription-created notification.
//
// Webhook delivery order is not guaranteed: this event may arrive before
// the checkout-completed one. When no record exists yet for the customer,
// the owning user is resolved by reverse-looking-up the customer at the
// provider and reading the user id out of its metadata. A missing mapping
// is dropped silently; the record is created later when the checkout event
// arrives, or never, which is an accepted best-effort gap.
func (r *Reconciler) handleSubscriptionCreated(ctx context.Context, event *Event) error {
	if event.SubscriptionID == "" || event.CustomerID == "" {
		return fmt.Errorf("%w: subscription event missing ids", ErrMalformedEvent)
	}

	// Event payload completeness varies by provider API version, so the
	// inline body's status is never trusted.
	snapshot, err := r.gateway.GetSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetching subscription %s: %w", event.SubscriptionID, err)
	}

	record, err := r.records.GetByCustomerID(ctx, event.CustomerID)
	switch {
	case err == nil:
		record.ProviderSubscriptionID = snapshot.ID
		record.Status = snapshot.Status
		record.PeriodEnd = snapshot.PeriodEnd

		if err := r.records.Upsert(ctx, record); err != nil {
			return fmt.Errorf("saving subscription record: %w", err)
		}
		return nil

	case errors.Is(err, ErrRecordNotFound):
		customer, err := r.gateway.GetCustomer(ctx, event.CustomerID)
		if err != nil {
			return fmt.Errorf("fetching customer %s: %w", event.CustomerID, err)
		}

		if customer.UserID == "" {
			r.log.InfoContext(ctx, "dropping subscription event, customer has no user mapping",
				slog.String("customer_id", event.CustomerID),
				slog.String("subscription_id", event.SubscriptionID))
			return nil
		}

		userID, err := uuid.Parse(customer.UserID)
		if err != nil {
			r.log.WarnContext(ctx, "dropping subscription event, unparsable user mapping",
				slog.String("customer_id", event.CustomerID),
				slog.String("user_id", customer.UserID))
			return nil
		}

		owner, err := r.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return fmt.Errorf("%w: customer metadata user id %q", ErrUnknownUser, customer.UserID)
			}
			return fmt.Errorf("resolving user %s: %w", userID, err)
		}

		if err := r.records.Upsert(ctx, &SubscriptionRecord{
			UserID:                 owner.ID,
			ProviderCustomerID:     event.CustomerID,
			ProviderSubscriptionID: snapshot.ID,
			Status:                 snapshot.Status,
			PeriodEnd:              snapshot.PeriodEnd,
		}); err != nil {
			return fmt.Errorf("saving subscription record: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("looking up record for customer %s: %w", event.CustomerID, err)
	}
}

// handleSubscriptionDeleted retires a subscription record.
//
// A fresh snapshot is preferred for the terminal status, but the
// subscription may already be unretrievable upstream; then the status
// falls back to "canceled" so the cancellation is never lost once a
// record was found. The event's own canceled_at timestamp, when present,
// becomes the new period end.
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, event *Event) error {
	if event.SubscriptionID == "" || event.CustomerID == "" {
		r.log.WarnContext(ctx, "dropping malformed subscription deletion",
			slog.String("subscription_id", event.SubscriptionID),
			slog.String("customer_id", event.CustomerID))
		return nil
	}

	record, err := r.records.GetByCustomerID(ctx, event.CustomerID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			// Nothing to reconcile; accepted best-effort gap.
			r.log.InfoContext(ctx, "dropping deletion for unknown customer",
				slog.String("customer_id", event.CustomerID))
			return nil
		}
		return fmt.Errorf("looking up record for customer %s: %w", event.CustomerID, err)
	}

	status := StatusCanceled
	if snapshot, err := r.gateway.GetSubscription(ctx, event.SubscriptionID); err == nil {
		status = snapshot.Status
	} else {
		r.log.WarnContext(ctx, "subscription unretrievable, falling back to canceled",
			slog.String("subscription_id", event.SubscriptionID),
			slog.String("error", err.Error()))
	}

	record.Status = status
	if event.CanceledAt != nil {
		record.PeriodEnd = event.CanceledAt
	}

	if err := r.records.Upsert(ctx, record); err != nil {
		return fmt.Errorf("saving subscription record: %w", err)
	}

	r.log.InfoContext(ctx, "subscription retired",
		slog.String("user_id", record.UserID.String()),
		slog.String("subscription_id", event.SubscriptionID),
		slog.String("status", string(status)))
	return nil
}
