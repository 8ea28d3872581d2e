package database

import (
	"context"
	"database/sql"
)

// zone_reservations holds the per-zone queues.  The (zone, created_at)
// index serves FIFO reads, (user_id) serves the per-user limit and
// (expires_at) serves the purge.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS zone_reservations (
	id          CHAR(36)     NOT NULL PRIMARY KEY,
	user_name   VARCHAR(128) NOT NULL,
	user_id     VARCHAR(64)  NOT NULL,
	zone        VARCHAR(128) NOT NULL,
	created_at  DATETIME(6)  NOT NULL,
	expires_at  DATETIME(6)  NOT NULL,
	KEY idx_zone_created (zone, created_at),
	KEY idx_user (user_id),
	KEY idx_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrate creates the tables used by the service when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}
