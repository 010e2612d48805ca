package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports process liveness. Kept unauthenticated for probes.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
