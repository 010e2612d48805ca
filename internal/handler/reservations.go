package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// ReservationHandler serves reservation lookups and the served transition.
type ReservationHandler struct {
	Workflow *service.ReservationWorkflow
	Hub      service.Broadcaster
}

func NewReservationHandler(w *service.ReservationWorkflow, hub service.Broadcaster) *ReservationHandler {
	return &ReservationHandler{Workflow: w, Hub: hub}
}

// TodayFor lists a person's still-servable reservations for today.
func (h *ReservationHandler) TodayFor(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reservations, err := h.Workflow.TodayFor(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	if reservations == nil {
		reservations = []model.MealReservation{}
	}
	return ok(c, http.StatusOK, reservations)
}

// ByID returns one reservation.
func (h *ReservationHandler) ByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Workflow.GetByID(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, res)
}

// Confirm marks a reservation served and records its billing purchase, then
// announces the change to every display.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.Workflow.Confirm(ctx, id)
	if err != nil {
		return failErr(c, err)
	}

	h.Hub.Broadcast("reservationUpdate", result)
	return ok(c, http.StatusOK, result)
}

// Stats returns today's reservation counters.
func (h *ReservationHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Workflow.Stats(ctx)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, stats)
}
