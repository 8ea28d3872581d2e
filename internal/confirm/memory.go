package confirm

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store.  Expired entries are dropped on
// access and swept on every Put.
type MemoryStore struct {
	mu   sync.Mutex
	now  func() time.Time
	byID map[string]Pending
}

// NewMemoryStore returns an empty store.  now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, byID: make(map[string]Pending)}
}

func (m *MemoryStore) Put(ctx context.Context, p Pending, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.ExpiresAt = m.now().UTC().Add(ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for tok, q := range m.byID {
		if !now.Before(q.ExpiresAt) {
			delete(m.byID, tok)
		}
	}
	m.byID[p.Token] = p
	return nil
}

func (m *MemoryStore) Take(ctx context.Context, token string) (Pending, error) {
	if err := ctx.Err(); err != nil {
		return Pending{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[token]
	if !ok {
		return Pending{}, ErrNotFound
	}
	delete(m.byID, token)
	if !m.now().Before(p.ExpiresAt) {
		return Pending{}, ErrNotFound
	}
	return p, nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
