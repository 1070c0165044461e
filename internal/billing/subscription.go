package billing

import (
	"time"

	"github.com/google/uuid"
)

// Status is a subscription status string as reported by the payment
// provider. Values are copied verbatim from provider payloads and never
// invented locally, so unknown provider-defined values pass through
// untouched. The constants below only name the values this module makes
// decisions on.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusInactive Status = "inactive"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
)

// SubscriptionRecord is the local projection of one user's subscription at
// the payment provider. Each user has at most one record; records are
// never hard-deleted, only retired by a terminal status.
type SubscriptionRecord struct {
	UserID                 uuid.UUID
	ProviderCustomerID     string
	ProviderSubscriptionID string // empty until the first successful checkout
	Status                 Status
	PeriodEnd              *time.Time // end of the current billing period
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsActive reports whether the subscription grants premium access.
func (r *SubscriptionRecord) IsActive() bool {
	return r != nil && (r.Status == StatusActive || r.Status == StatusTrialing)
}
