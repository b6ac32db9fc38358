// Package engine implements the reservation state machine over shows,
// seats, holds and bookings.  Every operation runs inside a single
// store transaction; seat row locks are always taken in ascending
// seat_id order, and confirmation locks the hold row before any seat
// row.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShowNotFound is returned when the target show does not exist.
var ErrShowNotFound = errors.New("show not found")

// ErrShowAlreadyExists is returned by InitializeShow when the show_id
// is already taken.
var ErrShowAlreadyExists = errors.New("show already exists")

// ErrInvalidSeatIDs is returned when a hold request references seats
// unknown to the show.
var ErrInvalidSeatIDs = errors.New("invalid seat ID(s)")

// ErrHoldNotFound is returned when neither a hold nor a booking exists
// for the given identifier under the show.
var ErrHoldNotFound = errors.New("hold not found or expired")

// ErrHoldExpired is returned when a confirmation arrives after the
// hold's deadline; the seats have been returned to available.
var ErrHoldExpired = errors.New("hold expired")

// ErrHoldInvalidated is returned when a hold's seats are no longer in
// the state the hold row promises.  This cannot happen through the
// engine's own operations; it guards against external mutation of the
// store.
var ErrHoldInvalidated = errors.New("hold invalidated (seat state mismatch)")

// ErrUnavailable is returned when the store could not be reached or
// the operation's deadline expired before commit; the transaction was
// rolled back and the store is unchanged.
var ErrUnavailable = errors.New("store unavailable")

// SeatsUnavailableError reports which requested seats were not
// available, failing the hold as a whole.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}
