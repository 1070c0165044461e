package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using process-local storage. Suitable for
// development and tests; the mutex provides the per-record write atomicity
// the reconciler depends on.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*SubscriptionRecord
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*SubscriptionRecord)}
}

func (m *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (m *MemoryStore) GetByCustomerID(ctx context.Context, customerID string) (*SubscriptionRecord, error) {
	if customerID == "" {
		return nil, ErrRecordNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.records {
		if record.ProviderCustomerID == customerID {
			recordCopy := *record
			return &recordCopy, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryStore) Upsert(ctx context.Context, record *SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	recordCopy := *record
	recordCopy.UpdatedAt = now
	if existing, ok := m.records[record.UserID]; ok {
		recordCopy.CreatedAt = existing.CreatedAt
	} else {
		recordCopy.CreatedAt = now
	}

	m.records[record.UserID] = &recordCopy
	return nil
}
