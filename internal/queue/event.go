// Package queue defines the booking event payload plus the publisher
// and background consumer that move it over RabbitMQ.
package queue

// BookingConfirmedEvent is published when a hold is successfully
// converted into a booking.  It carries enough for downstream
// consumers to log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID string   `json:"booking_id"`
	ShowID    string   `json:"show_id"`
	SeatIDs   []string `json:"seat_ids"`
	BookedAt  string   `json:"booked_at"`
}
