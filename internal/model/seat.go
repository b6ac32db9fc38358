package model

import "time"

// SeatStatus enumerates the lifecycle states of a seat.  The values are
// the lowercase strings serialized over the wire.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatBooked    SeatStatus = "booked"
)

// Seat is one reservable position within a show, identified by the
// composite key (show_id, seat_id).  HoldID and HoldExpiresAt are set
// if and only if the seat is held; available and booked seats carry
// neither.
//
// Fields:
//  ShowID        – owning show.
//  SeatID        – identifier unique within the show.
//  Status        – current lifecycle state.
//  HoldID        – owning hold when Status == SeatHeld (nullable).
//  HoldExpiresAt – hold deadline when Status == SeatHeld (nullable).
type Seat struct {
	ShowID        string     // seats.show_id
	SeatID        string     // seats.seat_id
	Status        SeatStatus // seats.status
	HoldID        *string    // seats.hold_id (nullable)
	HoldExpiresAt *time.Time // seats.hold_expires_at (nullable)
}
