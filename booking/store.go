/*
store.go - Persistence interfaces for the booking engine

PURPOSE:
  Defines the boundary between the allocation workflow and the document
  store. The engine never caches records across requests: every operation
  re-reads current state, decides, and writes.

KEY INTERFACES:
  Store:   Plain reads and non-contended writes
  TxStore: Adds WithTx for the allocation transaction
  Tx:      The conditional-write operations available inside a transaction

CONDITIONAL WRITES:
  The three shared counters in this domain (slot occupancy, monthly token
  counter, the booking record itself) are all racy under plain
  read-then-write. The Tx interface therefore exposes them as conditional
  operations:
    - IncrementOccupancy: atomic increment with a ceiling
    - NextToken: atomic increment, strictly sequential per month
    - CreateBooking: create-if-absent on the (card, month) key
  A store lacking these semantics cannot host the allocator.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (WAL, mutex-serialized writers)
  - booking/store: in-memory, for tests and dev
*/
package booking

import "context"

// Store handles reads and the writes that carry no concurrency constraints.
// Absent records are returned as nil pointers, not errors.
type Store interface {
	// GetUser returns the user for a card number, or nil if unregistered.
	GetUser(ctx context.Context, card CardNumber) (*User, error)

	// SaveUser creates or replaces a user record. Registration is outside the
	// allocation workflow; this exists for seeding and ops tooling.
	SaveUser(ctx context.Context, u User) error

	// GetAnnouncement returns the allowed-days announcement for a month,
	// or nil if none has been published.
	GetAnnouncement(ctx context.Context, month MonthID) (*Announcement, error)

	// SaveAnnouncement publishes the announcement for its month, overwriting
	// any previous one.
	SaveAnnouncement(ctx context.Context, a Announcement) error

	// GetOccupancy returns the current occupant count for a slot key.
	// Absence counts as zero.
	GetOccupancy(ctx context.Context, key SlotKey) (int, error)

	// GetBooking returns the booking for (card, month), or nil if none.
	GetBooking(ctx context.Context, card CardNumber, month MonthID) (*Booking, error)

	// GetTokenCounter returns the counter for a month. Absence counts as zero.
	GetTokenCounter(ctx context.Context, month MonthID) (TokenCounter, error)
}

// Tx exposes the conditional writes available inside a booking transaction.
// All operations observe writes made earlier in the same transaction.
type Tx interface {
	// Occupancy returns the current occupant count for a slot key.
	Occupancy(key SlotKey) (int, error)

	// IncrementOccupancy reserves one place in the slot and returns the new
	// count. Returns a *SlotFullError when the count is already at max.
	IncrementOccupancy(key SlotKey, max int) (int, error)

	// NextToken issues the next sequential token for the month, starting at 1.
	NextToken(month MonthID) (int, error)

	// BookingExists reports whether (card, month) already holds a booking.
	BookingExists(card CardNumber, month MonthID) (bool, error)

	// CreateBooking persists the booking if and only if no booking exists for
	// its (card, month) key. Returns a *QuotaError otherwise.
	CreateBooking(b Booking) error
}

// TxStore is a Store that can run the allocation steps atomically.
// If fn returns an error the transaction is rolled back and no partial
// state survives; ErrConflict signals the caller may retry.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Tx) error) error
}
