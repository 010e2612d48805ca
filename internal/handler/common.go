// Package handler exposes the terminal's HTTP surface: operator auth,
// reader control, cardholder lookup, purchases and reservation serving.
// Every endpoint answers the same envelope: {"success":true,"data":...} or
// {"success":false,"error":"..."}.
package handler

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/repository"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// failErr maps a service or repository error onto the HTTP envelope.
// Validation problems are 400, missing records 404, state conflicts 409,
// lost store connections 503; anything else is reported as a generic 500
// without leaking internals.
func failErr(c echo.Context, err error) error {
	switch {
	case service.IsValidation(err):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrPersonNotFound),
		errors.Is(err, repository.ErrFoodNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUIDExists),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrAlreadyServed),
		errors.Is(err, service.ErrReservationCancelled):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return fail(c, http.StatusServiceUnavailable, "service unavailable")
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, "internal error")
}
