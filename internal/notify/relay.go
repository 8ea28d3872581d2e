// Package notify turns purge events into messages addressed to members
// and hands them to a delivery Sink.  Delivery is best effort: failures
// are logged and never reach the reservation engine.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/model"
	"github.com/iliyamo/zone-queue/internal/service"
)

// Notice is one message for one member.
type Notice struct {
	Kind        string
	Reservation model.Reservation
	Text        string
}

// Sink delivers a notice to its member.
type Sink interface {
	Send(ctx context.Context, n Notice) error
}

// Relay implements service.EventSink.
type Relay struct {
	sink    Sink
	log     *zap.Logger
	loc     *time.Location
	timeout time.Duration
}

// NewRelay returns a Relay delivering through sink.  Dates in messages
// are rendered in loc.
func NewRelay(sink Sink, loc *time.Location, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{sink: sink, log: log, loc: loc, timeout: 5 * time.Second}
}

var _ service.EventSink = (*Relay)(nil)

// Notices maps a purge result to the messages to send, skipping the nil
// next-turn entries of zones that became empty.
func (r *Relay) Notices(res service.PurgeResult) []Notice {
	out := make([]Notice, 0, len(res.ToNotify)+len(res.NextTurn))
	for _, row := range res.ToNotify {
		out = append(out, Notice{Kind: KindExpired, Reservation: row, Text: ExpiredMessage(row)})
	}
	for _, row := range res.Promotions() {
		out = append(out, Notice{Kind: KindNextTurn, Reservation: row, Text: NextTurnMessage(row, r.loc)})
	}
	return out
}

// Publish sends every notice of res.  It does not inherit the caller's
// cancellation: the purge already happened, so its notices go out even
// when the triggering request ends.
func (r *Relay) Publish(ctx context.Context, res service.PurgeResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	for _, n := range r.Notices(res) {
		if err := r.sink.Send(ctx, n); err != nil {
			r.log.Warn("notification not delivered",
				zap.String("kind", n.Kind),
				zap.String("user_id", n.Reservation.UserID),
				zap.String("zone", n.Reservation.Zone),
				zap.Error(err))
		}
	}
}
