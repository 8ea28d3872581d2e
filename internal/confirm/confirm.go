// Package confirm holds pending reserve/cancel requests until the member
// accepts or declines them.  A pending request lives for a bounded time
// and can be taken exactly once.
package confirm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown, already used or expired tokens.
var ErrNotFound = errors.New("confirmation not found or expired")

// Action is the operation waiting for confirmation.
type Action string

const (
	ActionReserve Action = "reserve"
	ActionCancel  Action = "cancel"
)

// Pending is one request awaiting confirmation.  Zone is the catalog name
// the member's query resolved to.
type Pending struct {
	Token     string    `json:"token"`
	Action    Action    `json:"action"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Zone      string    `json:"zone"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps pending requests.  Take removes the request atomically so a
// confirmation cannot be replayed.
type Store interface {
	Put(ctx context.Context, p Pending, ttl time.Duration) error
	Take(ctx context.Context, token string) (Pending, error)
}

// NewPending stamps a fresh token and deadline on a request.
func NewPending(action Action, userID, userName, zone string, now time.Time, ttl time.Duration) Pending {
	return Pending{
		Token:     uuid.NewString(),
		Action:    action,
		UserID:    userID,
		UserName:  userName,
		Zone:      zone,
		ExpiresAt: now.UTC().Add(ttl),
	}
}
