package billing

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for subscription record persistence.
// Each user has at most one record, so UserID serves as the primary key.
//
// Upsert must be atomic per record: concurrent webhook deliveries for the
// same subscription rely on the store's own write atomicity instead of
// locking in the reconciler.
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error)

	// GetByCustomerID retrieves a record by the provider's customer ID.
	// Returns ErrRecordNotFound if no record exists.
	GetByCustomerID(ctx context.Context, customerID string) (*SubscriptionRecord, error)

	// Upsert creates or fully overwrites the record for record.UserID.
	Upsert(ctx context.Context, record *SubscriptionRecord) error
}
