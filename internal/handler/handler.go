// Package handler contains the HTTP adapters over the reservation
// engine.  Handlers validate request bodies, call one engine operation
// and map its result or error onto the wire format; they own no
// transaction or locking logic.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/showgrid/seat-reservation/internal/engine"
)

// Reservations is the slice of the engine the HTTP layer depends on.
// Tests substitute a fake.
type Reservations interface {
	InitializeShow(ctx context.Context, showID string, seatIDs []string) (*engine.ShowSummary, error)
	HoldSeats(ctx context.Context, showID string, seatIDs []string, durationSec int) (*engine.HoldReceipt, error)
	BookHold(ctx context.Context, showID, holdID string) (*engine.BookingReceipt, error)
	ReleaseHold(ctx context.Context, showID, holdID string) error
	SeatStatus(ctx context.Context, showID string) (*engine.StatusReport, error)
	ResetAll(ctx context.Context) (*engine.ResetReport, error)
}

// bindObject decodes the request body into a JSON object.  Anything
// that is not an object (missing body, arrays, scalars, malformed
// JSON) is rejected.
func bindObject(c echo.Context) (map[string]interface{}, *ValidationError) {
	notObject := &ValidationError{Message: "request body must be a JSON object"}
	if c.Request().ContentLength == 0 {
		return nil, notObject
	}
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil || body == nil {
		return nil, notObject
	}
	return body, nil
}

// badRequest writes a uniform 400 payload from a validation error.
func badRequest(c echo.Context, verr *ValidationError) error {
	payload := echo.Map{"error": verr.Message}
	if len(verr.Details) > 0 {
		payload["details"] = verr.Details
	}
	return c.JSON(http.StatusBadRequest, payload)
}

// rfc3339 renders a UTC timestamp for the wire.
func rfc3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
