package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/lock"
	"github.com/iliyamo/zone-queue/internal/model"
)

// PurgeResult lists the events produced by a purge.  ToNotify holds the
// reservations that lapsed and were deleted.  NextTurn holds, for every
// zone whose active holder was removed, the new active holder, or nil
// when the zone became empty; nil entries carry no notification and must
// be skipped by consumers.
type PurgeResult struct {
	ToNotify []model.Reservation
	NextTurn []*model.Reservation
}

// Empty reports whether the purge produced no event at all.
func (p PurgeResult) Empty() bool {
	return len(p.ToNotify) == 0 && len(p.NextTurn) == 0
}

// Promotions returns the non-nil NextTurn entries.
func (p PurgeResult) Promotions() []model.Reservation {
	out := make([]model.Reservation, 0, len(p.NextTurn))
	for _, r := range p.NextTurn {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// PurgeExpired deletes every reservation whose expiry is in the past and
// reports who lapsed and who became the active holder of their zone.
// deleted, when non-nil, is a reservation removed by a cancellation just
// before the call: its zone is examined too, and its member's successor is
// promoted when it was the active one.
//
// The zones involved are locked for the whole read-delete sequence, so the
// promotion is computed from the exact pre-deletion queue.  The locks are
// released before the result is handed to the EventSink.  On a store
// failure nothing is reported and the error wraps ErrStoreUnavailable.
func (e *ReservationEngine) PurgeExpired(ctx context.Context, deleted *model.Reservation) (PurgeResult, error) {
	var ho *handoff
	if deleted != nil {
		if h, ok := e.takeHandoff(deleted.ID); ok {
			ho = &h
		}
	}
	res, err := e.purgeLocked(ctx, deleted, ho)
	if err != nil || res.Empty() {
		return res, err
	}
	e.log.Info("purge completed",
		zap.Int("expired", len(res.ToNotify)), zap.Int("promoted", len(res.Promotions())))
	if e.sink != nil {
		e.sink.Publish(ctx, res)
	}
	return res, nil
}

func (e *ReservationEngine) purgeLocked(ctx context.Context, deleted *model.Reservation, ho *handoff) (PurgeResult, error) {
	now := e.clock()

	sctx, cancel := e.withStore(ctx)
	expired, err := e.store.ListExpired(sctx, now)
	cancel()
	if err != nil {
		return PurgeResult{}, storeErr("list expired", err)
	}

	zones := make([]string, 0, len(expired)+1)
	seen := make(map[string]struct{}, len(expired)+1)
	addZone := func(z string) {
		if _, ok := seen[z]; !ok {
			seen[z] = struct{}{}
			zones = append(zones, z)
		}
	}
	for _, r := range expired {
		addZone(r.Zone)
	}
	if deleted != nil && deleted.Zone != "" {
		addZone(deleted.Zone)
	}
	if len(zones) == 0 {
		return PurgeResult{}, nil
	}

	keys := make([]string, len(zones))
	for i, z := range zones {
		keys[i] = lock.ZoneKey(z)
	}
	unlock, err := e.lock(ctx, keys...)
	if err != nil {
		return PurgeResult{}, storeErr("lock", err)
	}
	defer unlock()

	sctx, cancel = e.withStore(ctx)
	defer cancel()

	// Snapshot every queue before deleting; the locks keep them stable.
	queues := make(map[string][]model.Reservation, len(zones))
	var doomed []model.Reservation
	for _, z := range zones {
		rows, err := e.store.ListByZone(sctx, z)
		if err != nil {
			return PurgeResult{}, storeErr("list by zone", err)
		}
		queues[z] = rows
		for _, r := range rows {
			if r.Expired(now) {
				doomed = append(doomed, r)
			}
		}
	}

	if len(doomed) > 0 {
		ids := make([]string, len(doomed))
		for i, r := range doomed {
			ids[i] = r.ID
		}
		if _, err := e.store.DeleteByIDs(sctx, ids); err != nil {
			return PurgeResult{}, storeErr("delete expired", err)
		}
	}

	res := PurgeResult{ToNotify: doomed}
	for _, z := range zones {
		rows := queues[z]
		var next *model.Reservation
		for i := range rows {
			if !rows[i].Expired(now) {
				r := rows[i]
				next = &r
				break
			}
		}
		headRemoved := len(rows) > 0 && rows[0].Expired(now)
		if !headRemoved && deleted != nil && deleted.Zone == z {
			if ho != nil {
				headRemoved = ho.matches(next)
			} else {
				headRemoved = wasHead(*deleted, rows)
			}
		}
		if headRemoved {
			res.NextTurn = append(res.NextTurn, next)
		}
	}
	return res, nil
}

// wasHead reports whether the removed reservation was ahead of every
// reservation still queued in its zone.
func wasHead(removed model.Reservation, remaining []model.Reservation) bool {
	for _, r := range remaining {
		if r.ID == removed.ID {
			continue
		}
		if r.CreatedAt.Before(removed.CreatedAt) {
			return false
		}
	}
	return true
}

// handoff records, for a cancelled active reservation, who held the zone
// right after the deletion.  It is captured under the cancel's zone lock
// and consumed by the follow-up purge, so a successor that was itself
// cancelled in between is never announced.
type handoff struct {
	successorID string // "" when the zone became empty
}

// matches reports whether the zone's current holder is still the one
// captured at cancellation.
func (h handoff) matches(current *model.Reservation) bool {
	if current == nil {
		return h.successorID == ""
	}
	return current.ID == h.successorID
}

// maxHandoffs bounds handoffs whose follow-up purge never came.
const maxHandoffs = 1024

func (e *ReservationEngine) putHandoff(removedID string, h handoff) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	if len(e.handoffs) >= maxHandoffs {
		e.handoffs = make(map[string]handoff)
	}
	e.handoffs[removedID] = h
}

func (e *ReservationEngine) takeHandoff(removedID string) (handoff, bool) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	h, ok := e.handoffs[removedID]
	delete(e.handoffs, removedID)
	return h, ok
}
