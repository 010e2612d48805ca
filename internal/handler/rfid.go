package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/reader"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// RFIDHandler exposes reader status and control. Manual scans feed the same
// pipeline as hardware card taps.
type RFIDHandler struct {
	Manager  *reader.Manager
	Pipeline *service.ScanPipeline
}

func NewRFIDHandler(m *reader.Manager, p *service.ScanPipeline) *RFIDHandler {
	return &RFIDHandler{Manager: m, Pipeline: p}
}

// Status returns the reader descriptor: connection state, mode,
// capabilities and the most recent scan.
func (h *RFIDHandler) Status(c echo.Context) error {
	return ok(c, http.StatusOK, h.Manager.Info())
}

// History returns recent scans, newest first. Capped at 50 entries.
func (h *RFIDHandler) History(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	return ok(c, http.StatusOK, h.Pipeline.History().Recent(limit))
}

type manualScanReq struct {
	UID string `json:"uid"`
}

// ManualScan injects a synthetic card tap. Only the mock reader accepts
// injected scans; against hardware this is a client error.
func (h *RFIDHandler) ManualScan(c echo.Context) error {
	var req manualScanReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	uid := service.NormalizeUID(req.UID)
	if uid == "" {
		return fail(c, http.StatusBadRequest, "uid is required")
	}
	if err := h.Manager.TriggerScan(uid); err != nil {
		if errors.Is(err, reader.ErrNotMockMode) || errors.Is(err, reader.ErrNotConnected) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"uid": uid, "queued": true})
}

// Reconnect forces a reader reconnect attempt. The attempt runs in the
// background; progress arrives over the realtime channel.
func (h *RFIDHandler) Reconnect(c echo.Context) error {
	go h.Manager.Reconnect(context.Background())
	return ok(c, http.StatusAccepted, map[string]any{"reconnecting": true})
}
