// Package service implements the scan-to-transaction pipeline: UID
// resolution and access checks, purchase validation and persistence, the
// reservation state machine, and the scan orchestration that ties them to
// the realtime channel.
package service

import (
	"errors"
	"fmt"
	"time"
)

// Epsilon is the tolerance for every currency comparison in the system.
const Epsilon = 0.01

// ValidationError reports a malformed or inconsistent request: missing
// fields, price or total mismatches, insufficient cash, invalid state
// transitions. Handlers translate it into an HTTP 400.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AccessDenied reports that a person may not use the terminal. Reason is a
// short status label, Message the operator-facing explanation, ExpiresAt the
// block expiry when one is set.
type AccessDenied struct {
	Reason    string     `json:"reason"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (e *AccessDenied) Error() string { return e.Reason + ": " + e.Message }

// Terminal reservation-transition failures.
var (
	ErrAlreadyServed        = errors.New("reservation has already been served")
	ErrReservationCancelled = errors.New("cannot confirm a cancelled reservation")
)
