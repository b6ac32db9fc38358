package model

import "time"

// Show represents a single ticketed event (e.g. a screening) with a
// fixed seat map.  The seat set is established when the show is
// initialized and never changes afterwards.  Deleting a show cascades
// to its seats, holds and bookings.
//
// Fields:
//  ShowID    – caller-supplied opaque identifier (primary key).
//  CreatedAt – when the show was initialized (UTC).
type Show struct {
	ShowID    string    // shows.show_id
	CreatedAt time.Time // shows.created_at
}
