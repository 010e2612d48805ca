package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/hub"
	"github.com/iliyamo/cafeteria-pos/internal/reader"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// WSHandler upgrades display clients onto the realtime channel. Clients
// receive every broadcast event and may issue the same commands the HTTP
// surface accepts; command outcomes go back to the requester only, state
// changes are broadcast to everyone.
type WSHandler struct {
	Hub      *hub.Hub
	Manager  *reader.Manager
	Pipeline *service.ScanPipeline
	Ledger   *service.PurchaseLedger
	Workflow *service.ReservationWorkflow
	Station  service.Station

	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, m *reader.Manager, p *service.ScanPipeline, l *service.PurchaseLedger, w *service.ReservationWorkflow, station service.Station) *WSHandler {
	return &WSHandler{
		Hub:      h,
		Manager:  m,
		Pipeline: p,
		Ledger:   l,
		Workflow: w,
		Station:  station,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Displays are same-host kiosk pages or LAN dashboards.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// clientCommand is the wire format for client→server messages.
type clientCommand struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Serve upgrades the connection and runs the client's read loop until it
// disconnects.
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	client := h.Hub.Register(conn)
	log.Printf("ws: client %s connected (%d online)", client.ID, h.Hub.ClientCount())

	client.Send("connected", map[string]any{
		"client_id": client.ID,
		"cafeteria": h.Station,
		"rfid":      h.Manager.Info(),
		"timestamp": time.Now().UTC(),
	})

	defer func() {
		h.Hub.Unregister(client)
		log.Printf("ws: client %s disconnected (%d online)", client.ID, h.Hub.ClientCount())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			client.Send("error", map[string]any{"error": "invalid message"})
			continue
		}
		h.dispatch(client, cmd)
	}
}

func (h *WSHandler) dispatch(client *hub.Client, cmd clientCommand) {
	switch cmd.Event {
	case "requestRfidStatus":
		client.Send("rfidStatus", h.Manager.Info())

	case "manualScan":
		var req struct {
			UID string `json:"uid"`
		}
		if err := json.Unmarshal(cmd.Data, &req); err != nil || req.UID == "" {
			client.Send("error", map[string]any{"error": "uid is required"})
			return
		}
		if err := h.Manager.TriggerScan(service.NormalizeUID(req.UID)); err != nil {
			client.Send("error", map[string]any{"error": err.Error()})
		}

	case "completePurchase":
		h.completePurchase(client, cmd.Data)

	case "confirmReservation":
		h.confirmReservation(client, cmd.Data)

	default:
		client.Send("error", map[string]any{"error": "unknown event: " + cmd.Event})
	}
}

func (h *WSHandler) completePurchase(client *hub.Client, data json.RawMessage) {
	var in service.CompletePurchaseInput
	if err := json.Unmarshal(data, &in); err != nil {
		client.Send("purchaseError", map[string]any{"error": "invalid purchase data"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.ValidateItems(ctx, in.Items); err != nil {
		client.Send("purchaseError", map[string]any{"error": err.Error()})
		return
	}
	result, err := h.Ledger.Complete(ctx, in)
	if err != nil {
		client.Send("purchaseError", map[string]any{"error": commandError(err)})
		return
	}
	client.Send("purchaseCompleted", result)
	h.Hub.Broadcast("purchaseUpdate", result)
}

func (h *WSHandler) confirmReservation(client *hub.Client, data json.RawMessage) {
	var req struct {
		ReservationID uint64 `json:"reservation_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ReservationID == 0 {
		client.Send("reservationError", map[string]any{"error": "reservation_id is required"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.Workflow.Confirm(ctx, req.ReservationID)
	if err != nil {
		client.Send("reservationError", map[string]any{
			"reservation_id": req.ReservationID,
			"error":          commandError(err),
		})
		return
	}
	client.Send("reservationConfirmed", result)
	h.Hub.Broadcast("reservationUpdate", result)
}

// commandError converts an error into a client-safe message. Expected
// failures keep their text; anything else is reported generically.
func commandError(err error) string {
	switch {
	case service.IsValidation(err),
		errors.Is(err, service.ErrAlreadyServed),
		errors.Is(err, service.ErrReservationCancelled),
		errors.Is(err, repository.ErrPersonNotFound),
		errors.Is(err, repository.ErrFoodNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return err.Error()
	}
	var denied *service.AccessDenied
	if errors.As(err, &denied) {
		return denied.Message
	}
	log.Printf("ws: command failed: %v", err)
	return "internal error"
}
