package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the operational reset endpoint.
type AdminHandler struct {
	Engine Reservations
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(eng Reservations) *AdminHandler {
	return &AdminHandler{Engine: eng}
}

// ResetAll handles POST /reset.  Shows and seat rows survive; every
// hold and booking is removed and all seats return to available.  The
// body must be empty or an empty JSON object so a mistargeted request
// carrying a payload fails loudly instead of wiping state.
func (h *AdminHandler) ResetAll(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset payload must be empty"})
	}
	if !emptyOrEmptyObject(raw) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset payload must be empty"})
	}

	report, rerr := h.Engine.ResetAll(c.Request().Context())
	if rerr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "reset failed",
			"details": rerr.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "all shows reset",
		"holds_cleared":    report.HoldsCleared,
		"bookings_cleared": report.BookingsCleared,
		"seats_reset":      report.SeatsReset,
	})
}

// emptyOrEmptyObject reports whether the body is absent, whitespace,
// or exactly "{}" after trimming.
func emptyOrEmptyObject(body []byte) bool {
	trimmed := make([]byte, 0, len(body))
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		trimmed = append(trimmed, b)
	}
	return len(trimmed) == 0 || string(trimmed) == "{}"
}
