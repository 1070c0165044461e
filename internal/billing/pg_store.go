package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/membergate/membergate/pkg/pg"
)

// PGStore implements Store backed by PostgreSQL. The upsert is a single
// INSERT ... ON CONFLICT statement, giving the per-record atomicity the
// reconciler requires without application-level locking.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed record store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error) {
	const query = `
		SELECT user_id, provider_customer_id, provider_subscription_id,
		       status, period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1`

	return s.scanRecord(s.pool.QueryRow(ctx, query, userID))
}

func (s *PGStore) GetByCustomerID(ctx context.Context, customerID string) (*SubscriptionRecord, error) {
	if customerID == "" {
		return nil, ErrRecordNotFound
	}

	const query = `
		SELECT user_id, provider_customer_id, provider_subscription_id,
		       status, period_end, created_at, updated_at
		FROM subscriptions
		WHERE provider_customer_id = $1`

	return s.scanRecord(s.pool.QueryRow(ctx, query, customerID))
}

func (s *PGStore) Upsert(ctx context.Context, record *SubscriptionRecord) error {
	const query = `
		INSERT INTO subscriptions (
			user_id, provider_customer_id, provider_subscription_id,
			status, period_end, created_at, updated_at
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			provider_customer_id     = EXCLUDED.provider_customer_id,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			status                   = EXCLUDED.status,
			period_end               = EXCLUDED.period_end,
			updated_at               = now()`

	_, err := s.pool.Exec(ctx, query,
		record.UserID,
		record.ProviderCustomerID,
		record.ProviderSubscriptionID,
		string(record.Status),
		record.PeriodEnd,
	)
	return err
}

type row interface {
	Scan(dest ...any) error
}

func (s *PGStore) scanRecord(r row) (*SubscriptionRecord, error) {
	var record SubscriptionRecord
	var subscriptionID *string

	err := r.Scan(
		&record.UserID,
		&record.ProviderCustomerID,
		&subscriptionID,
		&record.Status,
		&record.PeriodEnd,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if subscriptionID != nil {
		record.ProviderSubscriptionID = *subscriptionID
	}
	return &record, nil
}
