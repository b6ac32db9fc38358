package engine

import "github.com/google/uuid"

// IDSource yields opaque, collision-resistant identifiers for holds.
// Bookings do not draw from it; they adopt their hold's identifier.
type IDSource interface {
	NewID() string
}

// UUIDSource generates random (version 4) UUIDs in canonical textual
// form.
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}
