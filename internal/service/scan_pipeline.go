package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
)

// ReservationSource is the slice of the reservation workflow the pipeline
// needs.
type ReservationSource interface {
	TodayFor(ctx context.Context, personID uint64) ([]model.MealReservation, error)
}

// ScanPipeline turns one raw card identifier into a deterministic broadcast
// sequence: a cardScanned progress event always precedes exactly one
// terminal scanResult. Manual and hardware scans enter through the same
// Process call.
type ScanPipeline struct {
	directory    *UserDirectory
	reservations ReservationSource
	hub          Broadcaster
	history      *ScanHistory
	station      Station
	now          func() time.Time
}

func NewScanPipeline(directory *UserDirectory, reservations ReservationSource, hub Broadcaster, history *ScanHistory, station Station) *ScanPipeline {
	return &ScanPipeline{
		directory:    directory,
		reservations: reservations,
		hub:          hub,
		history:      history,
		station:      station,
		now:          time.Now,
	}
}

// History exposes the shared scan ring.
func (p *ScanPipeline) History() *ScanHistory { return p.history }

// scanResult is the terminal event payload for one scan.
type scanResult struct {
	UID          string                  `json:"uid"`
	Success      bool                    `json:"success"`
	Error        string                  `json:"error,omitempty"`
	Message      string                  `json:"message,omitempty"`
	User         any                     `json:"user,omitempty"`
	Reservations []model.MealReservation `json:"reservations"`
	Cafeteria    *Station                `json:"cafeteria,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

// Process runs the full pipeline for one raw UID. Every step either
// advances or emits a terminal result; no partial state reaches clients.
// The final scan-bookkeeping write is eventually consistent: its failure is
// logged but does not retract the already-broadcast success.
func (p *ScanPipeline) Process(ctx context.Context, rawUID string) {
	uid := NormalizeUID(rawUID)
	ts := p.now().UTC()

	p.history.Add(uid, ts)
	p.hub.Broadcast("cardScanned", map[string]any{
		"uid":       uid,
		"timestamp": ts,
		"status":    "processing",
	})

	person, err := p.directory.ResolveUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			log.Printf("pipeline: unknown uid %s", uid)
			p.hub.Broadcast("scanResult", scanResult{
				UID:       uid,
				Error:     "User not found",
				Message:   "This card is not registered in the system",
				Timestamp: p.now().UTC(),
			})
			return
		}
		log.Printf("pipeline: lookup failed for uid %s: %v", uid, err)
		p.hub.Broadcast("scanResult", scanResult{
			UID:       uid,
			Error:     "Processing error",
			Message:   "Failed to process card scan",
			Timestamp: p.now().UTC(),
		})
		return
	}

	if err := p.directory.Authorize(ctx, person); err != nil {
		var denied *AccessDenied
		if errors.As(err, &denied) {
			log.Printf("pipeline: access denied for uid %s: %s", uid, denied.Reason)
			p.hub.Broadcast("scanResult", scanResult{
				UID:     uid,
				Error:   "Access denied",
				Message: denied.Message,
				User: map[string]any{
					"name":   person.Name,
					"uid":    person.UID,
					"status": denied.Reason,
				},
				Timestamp: p.now().UTC(),
			})
			return
		}
		log.Printf("pipeline: access check failed for uid %s: %v", uid, err)
		p.hub.Broadcast("scanResult", scanResult{
			UID:       uid,
			Error:     "Processing error",
			Message:   "Failed to process card scan",
			Timestamp: p.now().UTC(),
		})
		return
	}

	// Read-path storage failures degrade to an empty list to keep the
	// display responsive.
	reservations, err := p.reservations.TodayFor(ctx, person.ID)
	if err != nil {
		log.Printf("pipeline: reservation lookup failed for person %d: %v", person.ID, err)
	}
	if reservations == nil {
		reservations = []model.MealReservation{}
	}

	p.history.MarkProcessed(uid)
	station := p.station
	p.hub.Broadcast("scanResult", scanResult{
		UID:          uid,
		Success:      true,
		User:         person,
		Reservations: reservations,
		Cafeteria:    &station,
		Timestamp:    p.now().UTC(),
	})

	if err := p.directory.RecordScan(ctx, person.ID); err != nil {
		log.Printf("pipeline: scan bookkeeping failed for person %d: %v", person.ID, err)
	}
}
