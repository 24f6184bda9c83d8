/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error kinds the allocation workflow can produce, in one place.
  The api package maps these to HTTP statuses and user-facing messages.

ERROR CATEGORIES:
  1. Validation errors - missing fields, unknown user, unapproved date
  2. Constraint errors - slot capacity, monthly quota
  3. Store errors - underlying I/O failures, write conflicts

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, booking.ErrSlotFull) {
        // 409, slot is full
    }
*/
package booking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned when a required request field is missing.
	ErrInvalidRequest = errors.New("invalid request: missing fields")

	// ErrUserNotFound is returned when no user exists for the card number.
	ErrUserNotFound = errors.New("user not registered")

	// ErrAnnouncementMissing is returned when no allowed-days announcement
	// has been published for the requested month.
	ErrAnnouncementMissing = errors.New("no allowed days announced for month")

	// ErrDateNotApproved is returned when the requested date is not in the
	// month's announced set.
	ErrDateNotApproved = errors.New("date not approved for booking")

	// ErrQuotaExhausted is returned when the user already holds a booking in
	// the requested month.
	ErrQuotaExhausted = errors.New("monthly booking quota exhausted")

	// ErrSlotFull is returned when the slot is at maximum occupancy.
	ErrSlotFull = errors.New("slot is full")

	// ErrStoreUnavailable wraps underlying storage I/O failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConflict is returned by stores with optimistic concurrency control
	// when a booking transaction loses a race. The allocator retries it.
	ErrConflict = errors.New("booking transaction conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SlotFullError reports which slot was full and at what occupancy.
type SlotFullError struct {
	Key   SlotKey
	Count int
	Max   int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("slot %s is full (%d/%d)", e.Key, e.Count, e.Max)
}

func (e *SlotFullError) Unwrap() error { return ErrSlotFull }

// QuotaError reports the existing booking that blocks a new one.
type QuotaError struct {
	Card  CardNumber
	Month MonthID
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("card %s already booked in %s", e.Card, e.Month)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExhausted }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to the request itself
// rather than a server-side failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrDateNotApproved) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrSlotFull)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAnnouncementMissing)
}
