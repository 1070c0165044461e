package billing

import (
	"context"

	"github.com/google/uuid"
)

// AccessGate answers whether a user may reach premium content. It only
// reads the record store and has no side effects.
type AccessGate struct {
	records Store
}

// NewAccessGate creates an access gate over the given record store.
func NewAccessGate(records Store) *AccessGate {
	if records == nil {
		panic("billing: Store is required")
	}
	return &AccessGate{records: records}
}

// CanAccessPremium reports whether the user holds a subscription in an
// access-granting status. Users without a record, and lookups that fail,
// are denied: the gate fails closed.
func (g *AccessGate) CanAccessPremium(ctx context.Context, userID uuid.UUID) bool {
	record, err := g.records.Get(ctx, userID)
	if err != nil {
		return false
	}
	return record.IsActive()
}

// Subscription returns the user's record for display purposes.
// Returns ErrRecordNotFound for users who never checked out.
func (g *AccessGate) Subscription(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error) {
	return g.records.Get(ctx, userID)
}
