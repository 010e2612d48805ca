package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
)

// ReservationWorkflow drives the reservation state machine at the terminal.
// Confirming a reservation marks it served and synthesizes exactly one
// pending purchase for billing. The two writes are deliberately not one
// storage transaction: serving is guaranteed first, billing is best effort,
// and a billing failure is reported with both facts so an operator can
// reconcile manually.
type ReservationWorkflow struct {
	reservations ReservationStore
	persons      PersonStore
	foods        FoodStore
	ledger       *PurchaseLedger
	station      Station
	now          func() time.Time
}

func NewReservationWorkflow(reservations ReservationStore, persons PersonStore, foods FoodStore, ledger *PurchaseLedger, station Station) *ReservationWorkflow {
	return &ReservationWorkflow{
		reservations: reservations,
		persons:      persons,
		foods:        foods,
		ledger:       ledger,
		station:      station,
		now:          time.Now,
	}
}

// TodayFor returns a person's still-servable reservations for the current
// calendar day, bounded local midnight to midnight, ordered by meal slot
// then time.
func (w *ReservationWorkflow) TodayFor(ctx context.Context, personID uint64) ([]model.MealReservation, error) {
	from, to := dayBounds(w.now())
	return w.reservations.ListForDay(ctx, personID, from, to)
}

// GetByID returns reservation details.
func (w *ReservationWorkflow) GetByID(ctx context.Context, id uint64) (*model.MealReservation, error) {
	return w.reservations.GetByID(ctx, id)
}

// Stats returns today's reservation counters.
func (w *ReservationWorkflow) Stats(ctx context.Context) (repository.ReservationStats, error) {
	from, to := dayBounds(w.now())
	return w.reservations.Stats(ctx, from, to)
}

// ConfirmResult is the outcome of a confirmed reservation.
type ConfirmResult struct {
	Reservation *model.MealReservation `json:"reservation"`
	Purchase    *model.Purchase        `json:"purchase"`
	Message     string                 `json:"message"`
}

// Confirm marks a reservation served and records its purchase. It fails for
// unknown ids, already-served and cancelled reservations. A reservation is
// served at most once: the underlying transition is conditional, so a
// concurrent duplicate confirmation loses and reports already-served.
func (w *ReservationWorkflow) Confirm(ctx context.Context, id uint64) (*ConfirmResult, error) {
	res, err := w.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case model.ReservationServed:
		return nil, ErrAlreadyServed
	case model.ReservationCancelled:
		return nil, ErrReservationCancelled
	}

	now := w.now().UTC()
	if err := w.reservations.MarkServed(ctx, id, w.station.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyServed
		}
		return nil, err
	}
	res.Status = model.ReservationServed
	res.ServedAt = &now
	res.Station = w.station.ID

	purchase, err := w.billServed(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("reservation %d served but failed to record purchase: %w", id, err)
	}

	total := res.UnitCost() * float64(res.Quantity)
	return &ConfirmResult{
		Reservation: res,
		Purchase:    purchase,
		Message:     fmt.Sprintf("Reservation served and €%.2f purchase recorded for payment", total),
	}, nil
}

// billServed synthesizes the single purchase for a just-served reservation,
// using the actual cost when recorded, otherwise the estimate.
func (w *ReservationWorkflow) billServed(ctx context.Context, res *model.MealReservation) (*model.Purchase, error) {
	food, err := w.foods.GetByID(ctx, res.FoodID)
	if err != nil {
		return nil, err
	}
	unit := res.UnitCost()
	total := unit * float64(res.Quantity)

	result, err := w.ledger.Complete(ctx, CompletePurchaseInput{
		PersonID: res.PersonID,
		Items: []model.PurchaseItem{{
			FoodID:   food.ID,
			Name:     food.Name,
			Price:    unit,
			Quantity: res.Quantity,
			Subtotal: total,
		}},
		TotalAmount:   total,
		PaymentMethod: model.PaymentMonthlyBilling,
		Notes:         fmt.Sprintf("Reservation fulfilled: %s meal on %s", res.MealSlot, w.now().Format("2006-01-02")),
		ProcessedBy:   "pos_reservation",
	})
	if err != nil {
		return nil, err
	}
	return result.Purchase, nil
}

// dayBounds returns local midnight-to-midnight around t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.Local()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}
