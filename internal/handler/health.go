package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/showgrid/seat-reservation/internal/repository"
)

// HealthHandler answers liveness probes with a database round trip.
type HealthHandler struct {
	DB    *sql.DB
	Shows *repository.ShowRepo
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sql.DB, shows *repository.ShowRepo) *HealthHandler {
	return &HealthHandler{DB: db, Shows: shows}
}

// Health handles GET /health.  A failed database probe still answers
// 200 so orchestrators can read the payload; the status field carries
// the verdict.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	var one int
	if err := h.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return unhealthy(c, err)
	}
	shows, err := h.Shows.Count(ctx)
	if err != nil {
		return unhealthy(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"database": "connected",
		"shows":    shows,
	})
}

// unhealthy reports a failed probe, keeping the failure detail in the
// payload so operators see the cause without reading server logs.
func unhealthy(c echo.Context, err error) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "unhealthy",
		"database": "disconnected",
		"error":    err.Error(),
	})
}
