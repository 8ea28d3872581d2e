package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/zone-queue/internal/model"
)

// MemoryReservationRepo is an in-process ReservationStore used by tests
// and by local runs with STORE_BACKEND=memory.  It keeps rows in
// insertion order and returns copies so callers cannot mutate stored
// state.
type MemoryReservationRepo struct {
	mu   sync.RWMutex
	rows []model.Reservation
}

// NewMemoryReservationRepo creates an empty in-memory store.
func NewMemoryReservationRepo() *MemoryReservationRepo {
	return &MemoryReservationRepo{}
}

// Count returns the number of stored reservations.
func (m *MemoryReservationRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *MemoryReservationRepo) Insert(ctx context.Context, r *model.Reservation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *r)
	return true, nil
}

func (m *MemoryReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	return m.filter(ctx, func(r model.Reservation) bool { return r.UserID == userID })
}

func (m *MemoryReservationRepo) ListByZone(ctx context.Context, zone string) ([]model.Reservation, error) {
	return m.filter(ctx, func(r model.Reservation) bool { return r.Zone == zone })
}

func (m *MemoryReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return m.filter(ctx, func(model.Reservation) bool { return true })
}

func (m *MemoryReservationRepo) ListExpired(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	return m.filter(ctx, func(r model.Reservation) bool { return r.Expired(now) })
}

func (m *MemoryReservationRepo) LatestInZone(ctx context.Context, zone string) (*model.Reservation, error) {
	rows, err := m.ListByZone(ctx, zone)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	last := rows[len(rows)-1]
	return &last, nil
}

func (m *MemoryReservationRepo) EarliestInZone(ctx context.Context, zone string) (*model.Reservation, error) {
	rows, err := m.ListByZone(ctx, zone)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	first := rows[0]
	return &first, nil
}

func (m *MemoryReservationRepo) DeleteOne(ctx context.Context, userID, zone string) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, r := range m.rows {
		if r.UserID != userID || r.Zone != zone {
			continue
		}
		if idx < 0 || r.CreatedAt.Before(m.rows[idx].CreatedAt) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil
	}
	removed := m.rows[idx]
	m.rows = append(m.rows[:idx], m.rows[idx+1:]...)
	return &removed, nil
}

func (m *MemoryReservationRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return m.deleteWhere(func(r model.Reservation) bool {
		_, ok := set[r.ID]
		return ok
	}), nil
}

func (m *MemoryReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.deleteWhere(func(r model.Reservation) bool { return r.Expired(now) }), nil
}

func (m *MemoryReservationRepo) deleteWhere(match func(model.Reservation) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, r := range m.rows {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n
}

func (m *MemoryReservationRepo) filter(ctx context.Context, match func(model.Reservation) bool) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]model.Reservation, 0, len(m.rows))
	for _, r := range m.rows {
		if match(r) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
