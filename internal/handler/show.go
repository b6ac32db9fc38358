package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/showgrid/seat-reservation/internal/engine"
	"github.com/showgrid/seat-reservation/internal/model"
)

// ShowHandler serves show initialization and the seat-status query.
type ShowHandler struct {
	Engine Reservations
}

// NewShowHandler constructs a ShowHandler.
func NewShowHandler(eng Reservations) *ShowHandler {
	return &ShowHandler{Engine: eng}
}

// InitializeShow handles POST /shows/:show_id/initialize.  The body
// must carry a seat_ids array; the show is created with every seat
// available.  Responds 201 on success and 409 when the show already
// exists.
func (h *ShowHandler) InitializeShow(c echo.Context) error {
	showID := c.Param("show_id")
	body, verr := bindObject(c)
	if verr != nil {
		return badRequest(c, verr)
	}
	seatIDs, verr := validateSeatIDs(body["seat_ids"])
	if verr != nil {
		return badRequest(c, verr)
	}
	summary, err := h.Engine.InitializeShow(c.Request().Context(), showID, seatIDs)
	if err != nil {
		if errors.Is(err, engine.ErrShowAlreadyExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "show already exists"})
		}
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    fmt.Sprintf("show initialized with %d seats", summary.SeatCount),
		"show_id":    summary.ShowID,
		"seat_count": summary.SeatCount,
	})
}

// seatEntry is the wire form of one seat in the status payload.
type seatEntry struct {
	SeatID        string `json:"seat_id"`
	Status        string `json:"status"`
	HoldExpiresAt string `json:"hold_expires_at,omitempty"`
}

// SeatStatus handles GET /shows/:show_id/seats.  The response is a
// snapshot; a concurrently committing writer may not be visible yet.
func (h *ShowHandler) SeatStatus(c echo.Context) error {
	showID := c.Param("show_id")
	report, err := h.Engine.SeatStatus(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, engine.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return engineError(c, err)
	}
	seats := make([]seatEntry, 0, len(report.Seats))
	for _, s := range report.Seats {
		entry := seatEntry{SeatID: s.SeatID, Status: string(s.Status)}
		if s.Status == model.SeatHeld && s.HoldExpiresAt != nil {
			entry.HoldExpiresAt = rfc3339(*s.HoldExpiresAt)
		}
		seats = append(seats, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_seats":     report.TotalSeats,
		"available_seats": report.AvailableSeats,
		"held_seats":      report.HeldSeats,
		"booked_seats":    report.BookedSeats,
		"seats":           seats,
	})
}

// engineError maps the residual engine failures shared by every
// endpoint: store unavailability to 503, anything unexpected to 500.
func engineError(c echo.Context, err error) error {
	if errors.Is(err, engine.ErrUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	}
	c.Logger().Errorf("engine error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
