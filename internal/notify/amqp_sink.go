package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/queue"
)

// AMQPSink publishes notices as queue.NotificationEvent to the durable
// zone.notifications queue.  Each Send dials the broker, which keeps the
// sink stateless; notifications are rare (a few per purge).
type AMQPSink struct {
	url string
	log *zap.Logger
}

// NewAMQPSink returns a sink publishing to the broker at url.
func NewAMQPSink(url string, log *zap.Logger) *AMQPSink {
	return &AMQPSink{url: url, log: log}
}

// Event builds the broker payload of a notice.
func Event(n Notice, at time.Time) queue.NotificationEvent {
	return queue.NotificationEvent{
		Kind:          n.Kind,
		UserID:        n.Reservation.UserID,
		UserName:      n.Reservation.UserName,
		Zone:          n.Reservation.Zone,
		ReservationID: n.Reservation.ID,
		Message:       n.Text,
		ExpiresAt:     n.Reservation.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:     at.UTC().Format(time.RFC3339),
	}
}

// Send publishes one notice.  Any error is logged and returned so the
// relay can record the failed delivery; messages are marked persistent.
func (s *AMQPSink) Send(ctx context.Context, n Notice) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		s.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		s.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.NotificationsQueue, // name
		true,                     // durable
		false,                    // autoDelete
		false,                    // exclusive
		false,                    // noWait
		nil,                      // args
	); err != nil {
		s.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(Event(n, time.Now()))
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                       // default exchange
		queue.NotificationsQueue, // routing key = queue name
		false,                    // mandatory
		false,                    // immediate
		pub,
	); err != nil {
		s.log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
