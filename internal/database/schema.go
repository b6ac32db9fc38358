package database

import (
	"context"
	"database/sql"
)

// Schema for the four tables.  Seat lists on holds and bookings are
// JSON arrays; MySQL has no partial indexes, so seats.hold_expires_at
// is indexed unconditionally.  Cascade deletes make a show own its
// seats, holds and bookings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS shows (
		show_id    VARCHAR(255) NOT NULL,
		created_at DATETIME     NOT NULL,
		PRIMARY KEY (show_id)
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		show_id         VARCHAR(255) NOT NULL,
		seat_id         VARCHAR(255) NOT NULL,
		status          ENUM('available','held','booked') NOT NULL DEFAULT 'available',
		hold_id         CHAR(36)     NULL,
		hold_expires_at DATETIME     NULL,
		PRIMARY KEY (show_id, seat_id),
		KEY idx_seats_status (status),
		KEY idx_seats_hold_expires (hold_expires_at),
		CONSTRAINT fk_seats_show FOREIGN KEY (show_id)
			REFERENCES shows (show_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS holds (
		hold_id    CHAR(36)     NOT NULL,
		show_id    VARCHAR(255) NOT NULL,
		seat_ids   JSON         NOT NULL,
		expires_at DATETIME     NOT NULL,
		created_at DATETIME     NOT NULL,
		PRIMARY KEY (hold_id),
		KEY idx_holds_expires (expires_at),
		KEY idx_holds_show (show_id),
		CONSTRAINT fk_holds_show FOREIGN KEY (show_id)
			REFERENCES shows (show_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id CHAR(36)     NOT NULL,
		show_id    VARCHAR(255) NOT NULL,
		seat_ids   JSON         NOT NULL,
		booked_at  DATETIME     NOT NULL,
		PRIMARY KEY (booking_id),
		KEY idx_bookings_show (show_id),
		CONSTRAINT fk_bookings_show FOREIGN KEY (show_id)
			REFERENCES shows (show_id) ON DELETE CASCADE
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
// Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
