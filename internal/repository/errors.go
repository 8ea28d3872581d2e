// Package repository defines the persistence contract for zone
// reservations and its implementations.
package repository

import "errors"

// ErrNotAcknowledged is returned when the store accepted a write request
// but did not report the expected number of affected rows.
var ErrNotAcknowledged = errors.New("write not acknowledged")
