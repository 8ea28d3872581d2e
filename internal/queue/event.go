// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationsQueue is the durable queue carrying member notifications.
const NotificationsQueue = "zone.notifications"

// Notification kinds.
const (
	KindExpired  = "expired"
	KindNextTurn = "next_turn"
)

// NotificationEvent is published whenever a member must be told about a
// change of their reservation: it lapsed, or they became the active
// holder of a zone.  It carries the rendered text so that the delivering
// side does not need access to the reservation store.
type NotificationEvent struct {
	Kind          string `json:"kind"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name,omitempty"`
	Zone          string `json:"zone,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	Message       string `json:"message"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}
