package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/queue"
)

// Notice kinds, shared with the broker payload.
const (
	KindExpired  = queue.KindExpired
	KindNextTurn = queue.KindNextTurn
)

// LogSink writes notices to the structured log.  It is the fallback when
// no broker is configured.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a sink logging through log.
func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Send(_ context.Context, n Notice) error {
	s.log.Info("notification",
		zap.String("kind", n.Kind),
		zap.String("user_id", n.Reservation.UserID),
		zap.String("zone", n.Reservation.Zone),
		zap.String("message", n.Text))
	return nil
}
