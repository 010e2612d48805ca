package service

import (
	"context"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/queue"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
)

// The services depend on narrow store interfaces rather than the concrete
// MySQL repositories so tests can substitute in-memory fakes. The
// repository types satisfy these interfaces.

// PersonStore is the record-store surface needed by the user directory.
type PersonStore interface {
	GetByUID(ctx context.Context, uid string) (*model.Person, error)
	GetByID(ctx context.Context, id uint64) (*model.Person, error)
	Create(ctx context.Context, p *model.Person) (*model.Person, error)
	Search(ctx context.Context, query string, limit int) ([]model.Person, error)
	RecordScan(ctx context.Context, id uint64, at time.Time) error
	ClearBlock(ctx context.Context, id uint64) error
}

// FoodStore reads the food catalog.
type FoodStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Food, error)
	ListAvailable(ctx context.Context) ([]model.Food, error)
}

// PurchaseStore persists and lists purchases.
type PurchaseStore interface {
	Create(ctx context.Context, p *model.Purchase) error
	ListByPerson(ctx context.Context, personID uint64, limit int) ([]model.Purchase, error)
	Stats(ctx context.Context, dayStart time.Time) (repository.PurchaseStats, error)
}

// ReservationStore reads reservations and performs the served transition.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.MealReservation, error)
	ListForDay(ctx context.Context, personID uint64, from, to time.Time) ([]model.MealReservation, error)
	MarkServed(ctx context.Context, id uint64, station string, at time.Time) error
	Stats(ctx context.Context, dayStart, dayEnd time.Time) (repository.ReservationStats, error)
}

// Broadcaster delivers a named event to every connected display client.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// BillingPublisher hands recorded billed purchases to the reconciliation
// queue. Publishing is best effort; callers log and continue on error.
type BillingPublisher interface {
	PublishPurchaseRecorded(ctx context.Context, ev queue.PurchaseRecordedEvent) error
}

// Station identifies this terminal in events and persisted records.
type Station struct {
	Cafeteria string `json:"name"`
	ID        string `json:"station"`
}
