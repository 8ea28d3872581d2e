package repository

import (
	"context"
	"time"

	"github.com/iliyamo/zone-queue/internal/model"
)

// ReservationStore is the persistence contract the reservation engine
// relies on.  Every list method returns reservations ordered by
// created_at ascending (FIFO order).  Implementations must not cache
// state between calls; the store is the only source of truth.
type ReservationStore interface {
	// Insert persists a new reservation.  It reports whether the write
	// was acknowledged.
	Insert(ctx context.Context, r *model.Reservation) (bool, error)
	// ListByUser returns every reservation held by userID.
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	// ListByZone returns the queue of a zone.
	ListByZone(ctx context.Context, zone string) ([]model.Reservation, error)
	// LatestInZone returns the most recently created reservation of a
	// zone, or nil when the zone is empty.
	LatestInZone(ctx context.Context, zone string) (*model.Reservation, error)
	// EarliestInZone returns the active holder of a zone, or nil when the
	// zone is empty.
	EarliestInZone(ctx context.Context, zone string) (*model.Reservation, error)
	// ListAll returns every reservation across zones.
	ListAll(ctx context.Context) ([]model.Reservation, error)
	// ListExpired returns reservations whose expires_at is before now.
	ListExpired(ctx context.Context, now time.Time) ([]model.Reservation, error)
	// DeleteOne removes a single reservation matching userID and zone and
	// returns the removed row, or nil when nothing matched.
	DeleteOne(ctx context.Context, userID, zone string) (*model.Reservation, error)
	// DeleteByIDs removes the given reservations and returns how many
	// rows were deleted.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	// DeleteExpired removes every reservation whose expires_at is before
	// now and returns how many rows were deleted.  The engine purges by
	// id so it can report who lapsed; this bulk form stays part of the
	// store contract and is covered by both implementations' tests.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ ReservationStore = (*ReservationRepo)(nil)
	_ ReservationStore = (*MemoryReservationRepo)(nil)
)
