package model

import "time"

// Reservation statuses. The machine is pending → confirmed → prepared →
// served, with cancelled reachable from any pre-served state. served and
// cancelled are terminal.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationPrepared  = "prepared"
	ReservationServed    = "served"
	ReservationCancelled = "cancelled"
)

// Meal slots for the `meal_reservations.meal_slot` column.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MealSlotRank orders slots chronologically for listing; unknown slots sort
// last.
func MealSlotRank(slot string) int {
	switch slot {
	case MealBreakfast:
		return 0
	case MealLunch:
		return 1
	case MealDinner:
		return 2
	case MealSnack:
		return 3
	}
	return 4
}

// MealReservation is a pre-arranged meal from the `meal_reservations` table.
// It is created by the guardian ordering flow (out of scope here) and driven
// through its state machine by this terminal. Serving a reservation emits
// exactly one Purchase.
//
// Fields:
//  GuardianID    – guardian who placed the order.
//  PersonID      – student the meal is for.
//  FoodID        – reserved food item.
//  Date          – target calendar day.
//  Quantity      – number of units, ≥ 1.
//  MealSlot      – breakfast/lunch/dinner/snack.
//  EstimatedCost – unit cost at ordering time.
//  ActualCost    – unit cost at preparation, when recorded (nullable).
//  ServedAt      – serve timestamp (terminal stamps it).
//  Station       – terminal that served the meal.
type MealReservation struct {
	ID            uint64     `json:"id"`
	GuardianID    uint64     `json:"guardian_id"`
	PersonID      uint64     `json:"person_id"`
	FoodID        uint64     `json:"food_id"`
	Date          time.Time  `json:"reservation_date"`
	Quantity      int        `json:"quantity"`
	MealSlot      string     `json:"meal_slot"`
	Status        string     `json:"status"`
	EstimatedCost float64    `json:"estimated_cost"`
	ActualCost    *float64   `json:"actual_cost"`
	Notes         string     `json:"notes"`
	ServedAt      *time.Time `json:"served_at"`
	Station       string     `json:"served_by_station"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UnitCost returns the actual cost when recorded, otherwise the estimate.
func (r *MealReservation) UnitCost() float64 {
	if r.ActualCost != nil {
		return *r.ActualCost
	}
	return r.EstimatedCost
}
