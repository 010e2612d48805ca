// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without string matching. For example, ErrConflict signals
// that a state transition cannot proceed because the row is no longer
// in an eligible state (serving an already-served reservation).
package repository

import "errors"

// ErrPersonNotFound is returned when no person matches the given UID or id.
var ErrPersonNotFound = errors.New("person not found")

// ErrFoodNotFound is returned when a referenced food item does not exist.
var ErrFoodNotFound = errors.New("food not found")

// ErrReservationNotFound is returned when a reservation id is unknown.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrOperatorNotFound is returned when an operator username is unknown.
var ErrOperatorNotFound = errors.New("operator not found")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as marking a reservation served when it has
// already reached a terminal status. Handlers should translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUIDExists and ErrEmailExists map MySQL duplicate-key failures on the
// persons table to the offending unique column.
var (
	ErrUIDExists   = errors.New("uid already exists")
	ErrEmailExists = errors.New("email already exists")
)
