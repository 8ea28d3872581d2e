// Package service implements the reservation queue engine: admission
// control against the per-member and per-zone limits, cascading expiry
// of the zone queues, cancellation and the expiry purge that detects
// promotions.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/lock"
	"github.com/iliyamo/zone-queue/internal/model"
	"github.com/iliyamo/zone-queue/internal/render"
	"github.com/iliyamo/zone-queue/internal/repository"
)

// DefaultStoreTimeout bounds every individual store call when Options
// does not set one.
const DefaultStoreTimeout = 3 * time.Second

// DefaultLockTimeout bounds the wait for the zone and member locks.
const DefaultLockTimeout = 5 * time.Second

// Reason explains why an admission was refused for capacity.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonUserLimit Reason = "user_limit"
	ReasonZoneFull  Reason = "zone_full"
)

// Admission is the outcome of an admission attempt that did not fail on
// the store.  Accepted=false with a Reason is a capacity rejection.
type Admission struct {
	ExpiresAt time.Time
	Accepted  bool
	Reason    Reason
}

// EventSink receives the result of every purge that produced events,
// including the purges run implicitly by Admit, Cancel and Table.
type EventSink interface {
	Publish(ctx context.Context, res PurgeResult)
}

// Options tunes a ReservationEngine.  Zero values select defaults.
type Options struct {
	StoreTimeout time.Duration
	LockTimeout  time.Duration
	Sink         EventSink
	Logger       *zap.Logger
	// Now overrides the clock; tests use it to move time forward.
	Now func() time.Time
}

// ReservationEngine owns the reservation rules.  It keeps no queue state
// of its own: every call reads and writes the store.  Read-check-write
// sequences are serialized through the Locker on the member and zone
// keys they touch.
type ReservationEngine struct {
	store        repository.ReservationStore
	locker       lock.Locker
	sink         EventSink
	log          *zap.Logger
	now          func() time.Time
	storeTimeout time.Duration
	lockTimeout  time.Duration

	hmu      sync.Mutex
	handoffs map[string]handoff
}

// NewReservationEngine wires an engine to its store and locker.  Both
// dependencies must be non-nil.
func NewReservationEngine(store repository.ReservationStore, locker lock.Locker, opts Options) *ReservationEngine {
	if store == nil || locker == nil {
		panic("nil dependency passed to NewReservationEngine")
	}
	e := &ReservationEngine{
		store:        store,
		locker:       locker,
		sink:         opts.Sink,
		log:          opts.Logger,
		now:          opts.Now,
		storeTimeout: opts.StoreTimeout,
		lockTimeout:  opts.LockTimeout,
		handoffs:     make(map[string]handoff),
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.storeTimeout <= 0 {
		e.storeTimeout = DefaultStoreTimeout
	}
	if e.lockTimeout <= 0 {
		e.lockTimeout = DefaultLockTimeout
	}
	return e
}

// clock returns the current time in UTC truncated to microseconds, the
// precision of the store's timestamp columns.
func (e *ReservationEngine) clock() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// withStore derives the context of a single store call.
func (e *ReservationEngine) withStore(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.storeTimeout)
}

// lock acquires keys, waiting at most lockTimeout.  The returned unlock
// is not tied to ctx.
func (e *ReservationEngine) lock(ctx context.Context, keys ...string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()
	return e.locker.Lock(lctx, keys...)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// BuildCandidate returns an unsaved reservation for the member in the
// zone, or nil when userName or zone is empty.  ExpiresAt is provisional
// until Admit computes the cascade.
func (e *ReservationEngine) BuildCandidate(userName, userID, zone string) *model.Reservation {
	if userName == "" || zone == "" {
		return nil
	}
	now := e.clock()
	return &model.Reservation{
		ID:        uuid.NewString(),
		UserName:  userName,
		UserID:    userID,
		Zone:      zone,
		CreatedAt: now,
		ExpiresAt: now.Add(model.SlotDuration),
	}
}

// Admit tries to persist the candidate.  It returns the final expiry and
// true when the reservation was stored.  A capacity rejection is
// (zero, false, nil); a store failure is (zero, false, ErrStoreUnavailable).
func (e *ReservationEngine) Admit(ctx context.Context, cand *model.Reservation) (time.Time, bool, error) {
	a, err := e.AdmitDetailed(ctx, cand)
	if err != nil {
		return time.Time{}, false, err
	}
	return a.ExpiresAt, a.Accepted, nil
}

// AdmitDetailed is Admit with the rejection reason.
//
// The queue position is stamped while the zone lock is held: CreatedAt is
// set to the admission instant (strictly after the current tail) so that
// FIFO order always matches insertion order, and ExpiresAt cascades from
// the most recently created reservation of the zone.
func (e *ReservationEngine) AdmitDetailed(ctx context.Context, cand *model.Reservation) (Admission, error) {
	if cand == nil {
		return Admission{}, ErrInvalidCandidate
	}
	if _, err := e.PurgeExpired(ctx, nil); err != nil {
		return Admission{}, err
	}

	unlock, err := e.lock(ctx, lock.UserKey(cand.UserID), lock.ZoneKey(cand.Zone))
	if err != nil {
		return Admission{}, storeErr("lock", err)
	}
	defer unlock()

	sctx, cancel := e.withStore(ctx)
	defer cancel()

	byUser, err := e.store.ListByUser(sctx, cand.UserID)
	if err != nil {
		return Admission{}, storeErr("count by user", err)
	}
	byZone, err := e.store.ListByZone(sctx, cand.Zone)
	if err != nil {
		return Admission{}, storeErr("count by zone", err)
	}
	if len(byUser) >= model.MaxPerUser {
		e.log.Info("admission refused",
			zap.String("user_id", cand.UserID), zap.String("zone", cand.Zone),
			zap.String("reason", string(ReasonUserLimit)), zap.Int("held", len(byUser)))
		return Admission{Reason: ReasonUserLimit}, nil
	}
	if len(byZone) >= model.MaxPerZone {
		e.log.Info("admission refused",
			zap.String("user_id", cand.UserID), zap.String("zone", cand.Zone),
			zap.String("reason", string(ReasonZoneFull)), zap.Int("queued", len(byZone)))
		return Admission{Reason: ReasonZoneFull}, nil
	}

	latest, err := e.store.LatestInZone(sctx, cand.Zone)
	if err != nil {
		return Admission{}, storeErr("latest in zone", err)
	}

	row := *cand
	row.CreatedAt = e.clock()
	row.ExpiresAt = row.CreatedAt.Add(model.SlotDuration)
	if latest != nil {
		if !row.CreatedAt.After(latest.CreatedAt) {
			row.CreatedAt = latest.CreatedAt.Add(time.Microsecond)
		}
		row.ExpiresAt = latest.ExpiresAt.Add(model.SlotDuration)
	}

	ok, err := e.store.Insert(sctx, &row)
	if err != nil {
		return Admission{}, storeErr("insert", err)
	}
	if !ok {
		return Admission{}, storeErr("insert", repository.ErrNotAcknowledged)
	}
	*cand = row
	e.log.Info("reservation admitted",
		zap.String("id", row.ID), zap.String("user_id", row.UserID), zap.String("zone", row.Zone),
		zap.Int("position", len(byZone)), zap.Time("expires_at", row.ExpiresAt))
	return Admission{ExpiresAt: row.ExpiresAt, Accepted: true}, nil
}

// Cancel removes the member's reservation in the zone.  It returns
// whether a row was removed and a copy of it; pass the copy to
// PurgeExpired so that the next member is promoted when the removed row
// was the active one.  The holder that follows an active row is read
// under the same lock as the deletion.
func (e *ReservationEngine) Cancel(ctx context.Context, userID, zone string) (bool, *model.Reservation, error) {
	if userID == "" || zone == "" {
		return false, nil, nil
	}
	if _, err := e.PurgeExpired(ctx, nil); err != nil {
		return false, nil, err
	}

	unlock, err := e.lock(ctx, lock.UserKey(userID), lock.ZoneKey(zone))
	if err != nil {
		return false, nil, storeErr("lock", err)
	}
	defer unlock()

	sctx, cancel := e.withStore(ctx)
	defer cancel()
	head, err := e.store.EarliestInZone(sctx, zone)
	if err != nil {
		return false, nil, storeErr("earliest in zone", err)
	}
	removed, err := e.store.DeleteOne(sctx, userID, zone)
	if err != nil {
		return false, nil, storeErr("delete one", err)
	}
	if removed == nil {
		return false, nil, nil
	}
	if head != nil && head.ID == removed.ID {
		// The row is already gone; without a successor read the purge
		// falls back to comparing creation times.
		next, err := e.store.EarliestInZone(sctx, zone)
		if err != nil {
			e.log.Warn("successor read failed", zap.String("zone", zone), zap.Error(err))
		} else {
			h := handoff{}
			if next != nil {
				h.successorID = next.ID
			}
			e.putHandoff(removed.ID, h)
		}
	}
	e.log.Info("reservation cancelled",
		zap.String("id", removed.ID), zap.String("user_id", userID), zap.String("zone", zone))
	return true, removed, nil
}

// ListByUser returns the member's current reservations after a purge.
func (e *ReservationEngine) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	if _, err := e.PurgeExpired(ctx, nil); err != nil {
		return nil, err
	}
	sctx, cancel := e.withStore(ctx)
	defer cancel()
	rows, err := e.store.ListByUser(sctx, userID)
	if err != nil {
		return nil, storeErr("list by user", err)
	}
	return rows, nil
}

// Reservations returns every current reservation in FIFO order after a
// purge.
func (e *ReservationEngine) Reservations(ctx context.Context) ([]model.Reservation, error) {
	if _, err := e.PurgeExpired(ctx, nil); err != nil {
		return nil, err
	}
	sctx, cancel := e.withStore(ctx)
	defer cancel()
	rows, err := e.store.ListAll(sctx)
	if err != nil {
		return nil, storeErr("list all", err)
	}
	return rows, nil
}

// Table renders the current queues of every non-empty zone.
func (e *ReservationEngine) Table(ctx context.Context) (string, error) {
	rows, err := e.Reservations(ctx)
	if err != nil {
		return "", err
	}
	return render.Table(rows), nil
}
