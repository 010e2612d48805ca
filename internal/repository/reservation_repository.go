package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// ReservationRepo provides access to the `meal_reservations` table. The
// terminal only reads reservations and performs the served transition;
// creation and cancellation belong to the guardian ordering flow.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

// ReservationStats aggregates counters for the dashboard.
type ReservationStats struct {
	TotalReservations int64 `json:"total_reservations"`
	TodayReservations int64 `json:"today_reservations"`
	PendingToday      int64 `json:"pending_reservations"`
	ServedToday       int64 `json:"served_today"`
}

const reservationCols = `id, guardian_id, person_id, food_id, reservation_date,
	quantity, meal_slot, status, estimated_cost, actual_cost, notes,
	served_at, served_by_station, created_at, updated_at`

func scanReservation(sc interface{ Scan(...any) error }) (*model.MealReservation, error) {
	var res model.MealReservation
	var actual sql.NullFloat64
	var servedAt sql.NullTime
	err := sc.Scan(&res.ID, &res.GuardianID, &res.PersonID, &res.FoodID, &res.Date,
		&res.Quantity, &res.MealSlot, &res.Status, &res.EstimatedCost, &actual,
		&res.Notes, &servedAt, &res.Station, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if actual.Valid {
		v := actual.Float64
		res.ActualCost = &v
	}
	if servedAt.Valid {
		t := servedAt.Time
		res.ServedAt = &t
	}
	return &res, nil
}

// GetByID fetches a reservation by id.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.MealReservation, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM meal_reservations WHERE id=? LIMIT 1", id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// ListForDay returns a person's reservations inside [from, to) whose status
// still allows serving, ordered by meal slot then reservation time.
func (r *ReservationRepo) ListForDay(ctx context.Context, personID uint64, from, to time.Time) ([]model.MealReservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reservationCols+` FROM meal_reservations
		 WHERE person_id=? AND reservation_date >= ? AND reservation_date < ?
		   AND status IN ('pending','confirmed','prepared')
		 ORDER BY FIELD(meal_slot,'breakfast','lunch','dinner','snack'), reservation_date`,
		personID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MealReservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// MarkServed transitions a reservation to served, stamping serve time and
// station. The UPDATE is conditional on the row not already being in a
// terminal state, which makes the served transition atomic: concurrent
// confirmations of the same id see ErrConflict on the losing side.
func (r *ReservationRepo) MarkServed(ctx context.Context, id uint64, station string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE meal_reservations
		 SET status='served', served_at=?, served_by_station=?, updated_at=?
		 WHERE id=? AND status NOT IN ('served','cancelled')`,
		at.UTC(), station, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Stats aggregates reservation counters; dayStart/dayEnd bound "today".
func (r *ReservationRepo) Stats(ctx context.Context, dayStart, dayEnd time.Time) (ReservationStats, error) {
	var s ReservationStats
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_reservations`).Scan(&s.TotalReservations); err != nil {
		return s, err
	}
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_reservations WHERE reservation_date >= ? AND reservation_date < ?`,
		dayStart.UTC(), dayEnd.UTC()).Scan(&s.TodayReservations); err != nil {
		return s, err
	}
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_reservations WHERE status='pending' AND reservation_date >= ?`,
		dayStart.UTC()).Scan(&s.PendingToday); err != nil {
		return s, err
	}
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_reservations
		 WHERE status='served' AND reservation_date >= ? AND reservation_date < ?`,
		dayStart.UTC(), dayEnd.UTC()).Scan(&s.ServedToday)
	return s, err
}
