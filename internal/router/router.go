// Package router wires the HTTP routes onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/showgrid/seat-reservation/internal/handler"
)

// Register maps every endpoint to its handler.  Show-scoped operations
// live under /shows/:show_id; /reset and /health are global.
func Register(e *echo.Echo, shows *handler.ShowHandler, reservations *handler.ReservationHandler, admin *handler.AdminHandler, health *handler.HealthHandler) {
	g := e.Group("/shows/:show_id")
	// Seed a show with its seat map.  Must run before any hold.
	g.POST("/initialize", shows.InitializeShow)
	// Snapshot of every seat's state plus aggregate counts.
	g.GET("/seats", shows.SeatStatus)
	// Place a temporary hold on a set of seats.
	g.POST("/hold", reservations.HoldSeats)
	// Convert a live hold into a permanent booking (idempotent).
	g.POST("/book", reservations.BookHold)
	// Give a hold back before it expires.
	g.POST("/release-hold", reservations.ReleaseHold)

	e.POST("/reset", admin.ResetAll)
	e.GET("/health", health.Health)
}
