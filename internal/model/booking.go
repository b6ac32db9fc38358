package model

import "time"

// Booking is a permanent seat assignment produced by confirming a
// hold.  The booking deliberately reuses its hold's identifier as
// primary key, which is what makes confirmation idempotent: a retry
// resolves to this row instead of creating a duplicate.
//
// Fields:
//  BookingID – identifier, equal to the confirmed hold's HoldID.
//  ShowID    – owning show.
//  SeatIDs   – booked seats, in the hold's request order.
//  BookedAt  – when the hold was first confirmed (UTC).
type Booking struct {
	BookingID string    // bookings.booking_id
	ShowID    string    // bookings.show_id
	SeatIDs   []string  // bookings.seat_ids (JSON column)
	BookedAt  time.Time // bookings.booked_at
}
