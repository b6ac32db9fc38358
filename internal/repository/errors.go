// Package repository contains the data access layer for shows, seats,
// holds and bookings.  These sentinel values allow higher layers to
// distinguish between different failure scenarios without inspecting
// driver errors.
package repository

import "errors"

// ErrShowExists is returned when initializing a show whose show_id is
// already taken, either detected up front or via the primary key
// constraint on a concurrent insert. Handlers should translate this
// into an HTTP 409 response.
var ErrShowExists = errors.New("show already exists")

// ErrHoldNotFound indicates that no hold row exists for the requested
// (show_id, hold_id) pair.
var ErrHoldNotFound = errors.New("hold not found")
