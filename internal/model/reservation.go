package model

import "time"

const (
    // MaxPerUser is the number of reservations a single member may hold
    // across every zone at the same time.
    MaxPerUser = 3
    // MaxPerZone is the queue capacity of a zone: one active slot plus
    // four waiting slots.
    MaxPerZone = 5
    // WaitingSlots is the number of waiting positions behind the active
    // holder of a zone.
    WaitingSlots = MaxPerZone - 1
    // SlotDuration is how long each position in a zone's queue lasts.
    SlotDuration = 24 * time.Hour
)

// Reservation records a member's claim on a zone.  Within a zone,
// reservations form a FIFO queue ordered by CreatedAt: the earliest is
// the active holder and the rest are waiting.  ExpiresAt is computed
// once at admission time from the previous occupant's expiry and is
// never modified afterwards.  This struct corresponds to a row in the
// `zone_reservations` table.
//
// Fields:
//  ID        – primary key identifier (uuid).
//  UserName  – display name of the member, informational only.
//  UserID    – stable platform identity used for limits and notifications.
//  Zone      – canonical zone name from the catalog.
//  CreatedAt – creation timestamp, defines FIFO order within the zone.
//  ExpiresAt – when the reservation lapses.
type Reservation struct {
    ID        string    `json:"id"`         // zone_reservations.id
    UserName  string    `json:"user_name"`  // zone_reservations.user_name
    UserID    string    `json:"user_id"`    // zone_reservations.user_id
    Zone      string    `json:"zone"`       // zone_reservations.zone
    CreatedAt time.Time `json:"created_at"` // zone_reservations.created_at
    ExpiresAt time.Time `json:"expires_at"` // zone_reservations.expires_at
}

// Expired reports whether the reservation has lapsed at the given instant.
func (r Reservation) Expired(now time.Time) bool {
    return r.ExpiresAt.Before(now)
}
