package model

import "time"

// Hold is a temporary, exclusive claim on one or more seats of a show.
// A hold either becomes a booking before ExpiresAt or its seats return
// to available.  SeatIDs preserves the order of the originating
// request.
//
// Fields:
//  HoldID    – generated identifier (primary key).
//  ShowID    – owning show.
//  SeatIDs   – claimed seats, in request order.
//  ExpiresAt – deadline after which the hold is dead (UTC).
//  CreatedAt – when the hold was placed (UTC).
type Hold struct {
	HoldID    string    // holds.hold_id
	ShowID    string    // holds.show_id
	SeatIDs   []string  // holds.seat_ids (JSON column)
	ExpiresAt time.Time // holds.expires_at
	CreatedAt time.Time // holds.created_at
}
