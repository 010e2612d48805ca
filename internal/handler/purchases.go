package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// PurchaseHandler records purchases and serves the food catalog and ledger
// views. Completed purchases are announced on the realtime channel so every
// display refreshes.
type PurchaseHandler struct {
	Ledger *service.PurchaseLedger
	Hub    service.Broadcaster
}

func NewPurchaseHandler(l *service.PurchaseLedger, hub service.Broadcaster) *PurchaseHandler {
	return &PurchaseHandler{Ledger: l, Hub: hub}
}

// Foods returns purchasable food items grouped by category.
func (h *PurchaseHandler) Foods(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	grouped, err := h.Ledger.AvailableFoods(ctx)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, grouped)
}

// Complete validates and records one purchase. Submitted line prices must
// match the catalog and the submitted total must match the computed total.
func (h *PurchaseHandler) Complete(c echo.Context) error {
	var in service.CompletePurchaseInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.ValidateItems(ctx, in.Items); err != nil {
		return failErr(c, err)
	}
	result, err := h.Ledger.Complete(ctx, in)
	if err != nil {
		return failErr(c, err)
	}

	h.Hub.Broadcast("purchaseUpdate", result)
	return ok(c, http.StatusCreated, result)
}

// History returns a person's recent purchases, newest first.
func (h *PurchaseHandler) History(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	purchases, err := h.Ledger.History(ctx, id, limit)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, purchases)
}

// Stats returns purchase counters for the dashboard.
func (h *PurchaseHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Ledger.Stats(ctx)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, stats)
}
