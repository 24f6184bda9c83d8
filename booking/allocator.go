/*
allocator.go - The booking allocation workflow

PURPOSE:
  Composes the constraint components into a single atomic-intent workflow:
  a request either commits a consistent booking record (occupancy +1, next
  monthly token, booking row) or fails cleanly with no partial state.

SEQUENCE:
  1. Validate field presence (and optionally auto-select a slot)
  2. Eligibility: user exists, date is government-approved
  3. Quota pre-check: no booking yet for (card, month)
  4..6. Inside one store transaction:
       quota re-check, capacity reservation, token issuance, booking insert
  7. Post-commit: fire-and-forget confirmation message
  8. Return the committed booking

CONCURRENCY:
  Requests run concurrently with no global lock. All three shared counters
  are only ever mutated through the store transaction's conditional writes,
  so concurrent requests for the same slot, month, or card serialize there.
  Stores with optimistic concurrency report ErrConflict, which is retried a
  bounded number of times.

NOTIFICATION:
  The confirmation message is dispatched after commit on its own goroutine
  with a bounded timeout. Its failure is logged and swallowed; booking
  success is never affected.

SEE ALSO:
  - eligibility.go, quota.go, capacity.go, token.go: The constraint components
  - store.go: The transaction contract this workflow relies on
*/
package booking

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// maxAllocationAttempts bounds retries when the store reports a write
// conflict. Both bundled stores serialize writers and never conflict.
const maxAllocationAttempts = 3

// defaultNotifyTimeout bounds the post-commit notification dispatch.
const defaultNotifyTimeout = 10 * time.Second

// Notifier delivers the outbound confirmation message. Errors are non-fatal.
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// Confirmation renders the destination and body of the confirmation message
// for a committed booking.
type Confirmation func(u User, b Booking) (to, body string)

// Allocator orchestrates booking allocation.
type Allocator struct {
	store       TxStore
	eligibility EligibilityChecker
	quota       QuotaGuard
	capacity    CapacityTracker
	tokens      TokenIssuer

	// Notify and Confirm are optional; when either is nil no message is sent.
	Notify  Notifier
	Confirm Confirmation

	// NotifyTimeout bounds the post-commit dispatch. Zero means the default.
	NotifyTimeout time.Duration

	// AutoSelectSlots enables the legacy least-crowded selection: when the
	// request omits the slot, the least-occupied candidate is chosen, ties
	// broken by enumeration order. Empty disables the mode entirely.
	AutoSelectSlots []string

	now func() time.Time
}

// NewAllocator creates an allocator backed by the given store.
func NewAllocator(store TxStore) *Allocator {
	return &Allocator{
		store:       store,
		eligibility: EligibilityChecker{Store: store},
		quota:       QuotaGuard{Store: store},
		capacity:    CapacityTracker{Max: DefaultSlotCapacity},
		now:         time.Now,
	}
}

// Allocate runs the full booking workflow for a request.
func (a *Allocator) Allocate(ctx context.Context, req Request) (*Booking, error) {
	if req.Card == "" || req.Date == "" || req.Session == "" {
		return nil, ErrInvalidRequest
	}
	if req.Slot == "" && len(a.AutoSelectSlots) == 0 {
		return nil, ErrInvalidRequest
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	user, err := a.eligibility.Check(ctx, req.Card, date)
	if err != nil {
		return nil, err
	}

	month := date.MonthID()
	if err := a.quota.Check(ctx, req.Card, month); err != nil {
		return nil, err
	}

	slot := req.Slot
	if slot == "" {
		slot, err = a.selectSlot(ctx, date, req.Session)
		if err != nil {
			return nil, err
		}
	}

	key := SlotKey{Date: date, Session: req.Session, Slot: slot}

	var booked Booking
	commit := func(tx Tx) error {
		// Re-check under the transaction: two requests from the same card can
		// both pass the pre-check, only one may insert.
		exists, err := tx.BookingExists(req.Card, month)
		if err != nil {
			return err
		}
		if exists {
			return &QuotaError{Card: req.Card, Month: month}
		}

		if _, err := a.capacity.Reserve(tx, key); err != nil {
			return err
		}

		token, err := a.tokens.Issue(tx, month)
		if err != nil {
			return err
		}

		booked = Booking{
			Ref:       uuid.NewString(),
			Card:      req.Card,
			Month:     month,
			Date:      date,
			Session:   req.Session,
			Slot:      slot,
			Token:     token,
			CreatedAt: a.now().UTC(),
		}
		return tx.CreateBooking(booked)
	}

	for attempt := 1; ; attempt++ {
		err = a.store.WithTx(ctx, commit)
		if err == nil || !IsRetryable(err) || attempt == maxAllocationAttempts {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	a.dispatchConfirmation(*user, booked)
	return &booked, nil
}

// selectSlot picks the least-occupied candidate slot for (date, session).
func (a *Allocator) selectSlot(ctx context.Context, date Date, session string) (string, error) {
	best := a.AutoSelectSlots[0]
	bestCount := -1
	for _, s := range a.AutoSelectSlots {
		count, err := a.store.GetOccupancy(ctx, SlotKey{Date: date, Session: session, Slot: s})
		if err != nil {
			return "", err
		}
		if bestCount < 0 || count < bestCount {
			best, bestCount = s, count
		}
	}
	return best, nil
}

// dispatchConfirmation sends the confirmation message without blocking the
// caller. Failures are logged only.
func (a *Allocator) dispatchConfirmation(u User, b Booking) {
	if a.Notify == nil || a.Confirm == nil {
		return
	}

	timeout := a.NotifyTimeout
	if timeout == 0 {
		timeout = defaultNotifyTimeout
	}

	to, body := a.Confirm(u, b)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Notify.Send(ctx, to, body); err != nil {
			log.Printf("booking confirmation for card %s not delivered: %v", b.Card, err)
		}
	}()
}
