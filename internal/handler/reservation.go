package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/showgrid/seat-reservation/internal/engine"
)

// BookingPublisher emits an event after a booking commits.  The queue
// package provides the real implementation; a nil publisher disables
// events entirely.
type BookingPublisher interface {
	PublishBookingConfirmed(ctx context.Context, receipt *engine.BookingReceipt) error
}

// ReservationHandler serves the hold / book / release operations.
type ReservationHandler struct {
	Engine    Reservations
	Publisher BookingPublisher
}

// NewReservationHandler constructs a ReservationHandler.  publisher
// may be nil.
func NewReservationHandler(eng Reservations, publisher BookingPublisher) *ReservationHandler {
	return &ReservationHandler{Engine: eng, Publisher: publisher}
}

// HoldSeats handles POST /shows/:show_id/hold.  On success the
// response carries the hold id, its expiry and the held seats in
// request order.  When any requested seat is not available the whole
// request fails with 409 and the conflicting seats are listed.
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	showID := c.Param("show_id")
	body, verr := bindObject(c)
	if verr != nil {
		return badRequest(c, verr)
	}
	seatIDs, verr := validateSeatIDs(body["seat_ids"])
	if verr != nil {
		return badRequest(c, verr)
	}
	rawDur, present := body["hold_duration_seconds"]
	duration, verr := parseHoldDuration(rawDur, present)
	if verr != nil {
		return badRequest(c, verr)
	}

	receipt, err := h.Engine.HoldSeats(c.Request().Context(), showID, seatIDs, duration)
	if err != nil {
		var unavailable *engine.SeatsUnavailableError
		switch {
		case errors.Is(err, engine.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, engine.ErrInvalidSeatIDs):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.As(err, &unavailable):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":             "seats unavailable",
				"unavailable_seats": unavailable.Seats,
			})
		}
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":    receipt.HoldID,
		"expires_at": rfc3339(receipt.ExpiresAt),
		"seat_ids":   receipt.SeatIDs,
	})
}

// BookHold handles POST /shows/:show_id/book.  Booking is idempotent:
// repeating the request with the same hold id returns the original
// receipt with status 200.
func (h *ReservationHandler) BookHold(c echo.Context) error {
	showID := c.Param("show_id")
	body, verr := bindObject(c)
	if verr != nil {
		return badRequest(c, verr)
	}
	holdID, verr := validateHoldID(body["hold_id"])
	if verr != nil {
		return badRequest(c, verr)
	}

	receipt, err := h.Engine.BookHold(c.Request().Context(), showID, holdID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrHoldNotFound),
			errors.Is(err, engine.ErrHoldExpired),
			errors.Is(err, engine.ErrHoldInvalidated):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return engineError(c, err)
	}

	if h.Publisher != nil {
		// Fire and forget: the booking is already committed, a
		// broker outage must not fail the request.
		go func(r engine.BookingReceipt) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.Publisher.PublishBookingConfirmed(ctx, &r); err != nil {
				log.Printf("booking event publish failed: %v", err)
			}
		}(*receipt)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": receipt.BookingID,
		"seat_ids":   receipt.SeatIDs,
		"booked_at":  rfc3339(receipt.BookedAt),
	})
}

// ReleaseHold handles POST /shows/:show_id/release-hold.  Releasing an
// unknown or already-expired hold is a 404; release is not idempotent
// the way booking is.
func (h *ReservationHandler) ReleaseHold(c echo.Context) error {
	showID := c.Param("show_id")
	body, verr := bindObject(c)
	if verr != nil {
		return badRequest(c, verr)
	}
	holdID, verr := validateHoldID(body["hold_id"])
	if verr != nil {
		return badRequest(c, verr)
	}

	if err := h.Engine.ReleaseHold(c.Request().Context(), showID, holdID); err != nil {
		if errors.Is(err, engine.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		}
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "hold released"})
}
