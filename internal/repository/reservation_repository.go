package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/zone-queue/internal/model"
)

// ReservationRepo implements ReservationStore on top of MySQL.  Rows live
// in the zone_reservations table.  All timestamp fields are stored in UTC
// with microsecond precision (DATETIME(6)) so that the 24h cascade
// survives a round-trip exactly.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_name, user_id, zone, created_at, expires_at`

// Insert stores a new reservation.  The write is acknowledged when
// exactly one row was affected.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) (bool, error) {
    const q = `INSERT INTO zone_reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        res.ID, res.UserName, res.UserID, res.Zone,
        res.CreatedAt.UTC(), res.ExpiresAt.UTC(),
    )
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// ListByUser returns all reservations held by a user, oldest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM zone_reservations WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
}

// ListByZone returns the queue of a zone, active holder first.
func (r *ReservationRepo) ListByZone(ctx context.Context, zone string) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM zone_reservations WHERE zone = ? ORDER BY created_at ASC, id ASC`, zone)
}

// ListAll returns every reservation ordered by creation time.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM zone_reservations ORDER BY created_at ASC, id ASC`)
}

// ListExpired returns reservations that lapsed before now.
func (r *ReservationRepo) ListExpired(ctx context.Context, now time.Time) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM zone_reservations WHERE expires_at < ? ORDER BY created_at ASC, id ASC`, now.UTC())
}

// LatestInZone returns the most recently created reservation in a zone
// or nil when the zone has no reservation.
func (r *ReservationRepo) LatestInZone(ctx context.Context, zone string) (*model.Reservation, error) {
    return r.one(ctx, `SELECT `+reservationColumns+` FROM zone_reservations WHERE zone = ? ORDER BY created_at DESC, id DESC LIMIT 1`, zone)
}

// EarliestInZone returns the active holder of a zone or nil when the zone
// has no reservation.
func (r *ReservationRepo) EarliestInZone(ctx context.Context, zone string) (*model.Reservation, error) {
    return r.one(ctx, `SELECT `+reservationColumns+` FROM zone_reservations WHERE zone = ? ORDER BY created_at ASC, id ASC LIMIT 1`, zone)
}

// DeleteOne removes one reservation for the user in the zone and returns
// a copy of the removed row.  The select and delete run in a single
// transaction with the row locked so that the returned copy is exactly
// what was deleted.  It returns nil, nil when nothing matched.
func (r *ReservationRepo) DeleteOne(ctx context.Context, userID, zone string) (*model.Reservation, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const sel = `SELECT ` + reservationColumns + ` FROM zone_reservations
                 WHERE user_id = ? AND zone = ? ORDER BY created_at ASC, id ASC LIMIT 1 FOR UPDATE`
    var res model.Reservation
    err = scanReservation(tx.QueryRowContext(ctx, sel, userID, zone), &res)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    result, err := tx.ExecContext(ctx, `DELETE FROM zone_reservations WHERE id = ?`, res.ID)
    if err != nil {
        return nil, err
    }
    if n, err := result.RowsAffected(); err != nil {
        return nil, err
    } else if n != 1 {
        return nil, ErrNotAcknowledged
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &res, nil
}

// DeleteByIDs removes the reservations with the given IDs.  Passing an
// empty slice has no effect and returns 0.
func (r *ReservationRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
    if len(ids) == 0 {
        return 0, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    result, err := r.db.ExecContext(ctx, `DELETE FROM zone_reservations WHERE id IN (`+placeholders+`)`, args...)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

// DeleteExpired removes every reservation that lapsed before now.
func (r *ReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
    result, err := r.db.ExecContext(ctx, `DELETE FROM zone_reservations WHERE expires_at < ?`, now.UTC())
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        var res model.Reservation
        if err := scanReservation(rows, &res); err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func (r *ReservationRepo) one(ctx context.Context, query string, args ...interface{}) (*model.Reservation, error) {
    var res model.Reservation
    err := scanReservation(r.db.QueryRowContext(ctx, query, args...), &res)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &res, nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanReservation(s rowScanner, res *model.Reservation) error {
    if err := s.Scan(&res.ID, &res.UserName, &res.UserID, &res.Zone, &res.CreatedAt, &res.ExpiresAt); err != nil {
        return err
    }
    res.CreatedAt = res.CreatedAt.UTC()
    res.ExpiresAt = res.ExpiresAt.UTC()
    return nil
}
