package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/seat-reservation/internal/repository"
)

func TestHealthUnreachableDatabase(t *testing.T) {
	// sql.Open does not dial; the probe inside the handler is what
	// fails, against a port nothing listens on.
	db, err := sql.Open("mysql", "u:p@tcp(127.0.0.1:1)/seats?timeout=500ms")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := echo.New()
	h := NewHealthHandler(db, repository.NewShowRepo(db))
	e.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "disconnected", body["database"])
	detail, ok := body["error"].(string)
	require.True(t, ok, "unhealthy payload must carry the failure detail")
	assert.NotEmpty(t, detail)
	_, present := body["shows"]
	assert.False(t, present, "show count is meaningless without a database")
}
