// Package queue contains the background consumer that listens to the
// zone.notifications queue and hands each notification to a delivery
// function, by default an append-only log file at logs/notifications.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliverFunc delivers one notification to its recipient.
type DeliverFunc func(ev NotificationEvent) error

// StartNotificationConsumer connects to RabbitMQ, declares the
// notifications queue (durable) and consumes messages until ctx is done.
// Each message is passed to deliver; a message that cannot be decoded or
// delivered is logged and rejected without requeue so the loop keeps
// going.  Broker failures trigger a reconnect with exponential backoff.
func StartNotificationConsumer(ctx context.Context, url string, deliver DeliverFunc, log *zap.Logger) error {
	if deliver == nil {
		deliver = LogFileDelivery(filepath.Join("logs", "notifications.log"))
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("notification-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, deliver, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("notification-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, deliver DeliverFunc, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("notification-consumer: set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(NotificationsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(d.Body, deliver); err != nil {
				log.Warn("notification-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one broker payload and delivers it.
func HandleMessage(body []byte, deliver DeliverFunc) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.UserID == "" || ev.Message == "" {
		return errors.New("notification without recipient or message")
	}
	return deliver(ev)
}

// LogFileDelivery appends each notification as a single line to path,
// creating the parent directory when needed.
func LogFileDelivery(path string) DeliverFunc {
	return func(ev NotificationEvent) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("mkdir logs: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()

		line := fmt.Sprintf("[%s] %s | user_id=%s | zone=\"%s\" | reservation_id=%s | message=\"%s\"\n",
			ev.CreatedAt, ev.Kind, ev.UserID, ev.Zone, ev.ReservationID, ev.Message)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
		return nil
	}
}
