package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/showgrid/seat-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table.  Bookings
// reuse their hold's identifier as primary key, so a confirmation
// retry resolves to the original row by plain lookup.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// CreateTx inserts a booking row within the provided transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	seats, err := json.Marshal(b.SeatIDs)
	if err != nil {
		return fmt.Errorf("encode seat_ids: %w", err)
	}
	const q = `INSERT INTO bookings (booking_id, show_id, seat_ids, booked_at) VALUES (?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q, b.BookingID, b.ShowID, seats, b.BookedAt)
	return err
}

// GetByIDTx fetches the booking for (show_id, booking_id).  It is the
// idempotent replay path of confirmation: when a hold row is gone, a
// booking under the same identifier means the hold was already
// confirmed.  Returns sql.ErrNoRows when absent.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, showID, bookingID string) (*model.Booking, error) {
	const q = `SELECT booking_id, show_id, seat_ids, booked_at
	           FROM bookings WHERE booking_id = ? AND show_id = ?`
	var b model.Booking
	var seats []byte
	err := tx.QueryRowContext(ctx, q, bookingID, showID).Scan(&b.BookingID, &b.ShowID, &seats, &b.BookedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seats, &b.SeatIDs); err != nil {
		return nil, fmt.Errorf("decode seat_ids for booking %s: %w", b.BookingID, err)
	}
	b.BookedAt = b.BookedAt.UTC()
	return &b, nil
}

// DeleteAllTx removes every booking row, returning the number deleted.
func (r *BookingRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
