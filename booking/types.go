/*
Package booking provides the slot allocation and token issuance engine.

PURPOSE:
  This package contains the domain types and the allocation workflow for the
  ration slot-booking backend. A booking request is validated against
  government-approved days, per-slot capacity, and the one-booking-per-month
  quota, then committed together with a monthly sequential token.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day parsed from the wire format, the source of all
    derived keys
  - MonthID / DayKey: Canonical month and day identifiers used as storage keys
  - SlotKey: Composite (date, session, slot) key for capacity tracking
  - User, Announcement, Booking, TokenCounter: Stored records

DATE FORMATS:
  Three representations coexist and must never drift:
    wire date   YYYY-MM-DD  (booking requests)
    month key   MM-YYYY     (announcements, token counters, quota)
    day key     DD-MM-YYYY  (approved-day membership)
  All conversions go through the functions in this file. Nothing else in the
  repository formats or parses these strings.

SEE ALSO:
  - allocator.go: The booking workflow composing the constraint components
  - store.go: Persistence interfaces
*/
package booking

import (
	"fmt"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// CardNumber is the sole identity key for login and booking.
type CardNumber string

// MonthID identifies a calendar month, formatted MM-YYYY.
type MonthID string

// DayKey identifies a calendar day, formatted DD-MM-YYYY.
type DayKey string

const (
	wireDateLayout = "2006-01-02"
	monthIDLayout  = "01-2006"
	dayKeyLayout   = "02-01-2006"
)

// =============================================================================
// DATE - canonical calendar day
// =============================================================================

// Date is a calendar day. The zero value is invalid; construct via ParseDate
// or NewDate.
type Date struct {
	t time.Time
}

// ParseDate parses the wire format YYYY-MM-DD. The parse is exact: the input
// must round-trip (rejects "2024-1-5" and similar).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(wireDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	if t.Format(wireDateLayout) != s {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return Date{t: t}, nil
}

// NewDate constructs a Date from components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// IsZero reports whether the date is the invalid zero value.
func (d Date) IsZero() bool { return d.t.IsZero() }

// String returns the wire format YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(wireDateLayout) }

// MonthID returns the MM-YYYY key grouping this date's month.
func (d Date) MonthID() MonthID { return MonthID(d.t.Format(monthIDLayout)) }

// DayKey returns the DD-MM-YYYY key for approved-day membership.
func (d Date) DayKey() DayKey { return DayKey(d.t.Format(dayKeyLayout)) }

// Time exposes the underlying time for callers that need calendar math.
func (d Date) Time() time.Time { return d.t }

// ParseMonthID parses an MM-YYYY month identifier exactly.
func ParseMonthID(s string) (MonthID, error) {
	t, err := time.Parse(monthIDLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q (want MM-YYYY): %w", s, err)
	}
	if t.Format(monthIDLayout) != s {
		return "", fmt.Errorf("invalid month %q (want MM-YYYY)", s)
	}
	return MonthID(s), nil
}

// ParseDayKey parses a DD-MM-YYYY day key exactly and returns its Date.
func ParseDayKey(s string) (Date, error) {
	t, err := time.Parse(dayKeyLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid day %q (want DD-MM-YYYY): %w", s, err)
	}
	if t.Format(dayKeyLayout) != s {
		return Date{}, fmt.Errorf("invalid day %q (want DD-MM-YYYY)", s)
	}
	return Date{t: t}, nil
}

// =============================================================================
// SLOT KEY - composite (date, session, slot) capacity key
// =============================================================================

// SlotKey addresses one capacity-limited booking unit.
type SlotKey struct {
	Date    Date
	Session string
	Slot    string
}

// String returns the canonical serialization date-session-slot, e.g.
// "2024-11-05-morning-10:00-10:30". This is the ONLY serialization; lookups
// and writes must both go through it.
func (k SlotKey) String() string {
	return k.Date.String() + "-" + k.Session + "-" + k.Slot
}

// =============================================================================
// STORED RECORDS
// =============================================================================

// User is a registered card holder. Created by registration; read-only from
// the allocator's perspective.
type User struct {
	Card  CardNumber
	Name  string
	Phone string
}

// Announcement is the government-published set of bookable days for a month.
// At most one exists per month; publishing overwrites.
type Announcement struct {
	Month MonthID
	Days  []DayKey
}

// Contains reports whether the day is in the approved set.
func (a *Announcement) Contains(day DayKey) bool {
	for _, d := range a.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Booking is the committed result of a successful allocation, keyed
// (card, month). It is written exactly once and never mutated. Ref is an
// opaque receipt identifier handed to the holder.
type Booking struct {
	Ref       string
	Card      CardNumber
	Month     MonthID
	Date      Date
	Session   string
	Slot      string
	Token     int
	CreatedAt time.Time
}

// TokenCounter tracks the last token issued for a month.
type TokenCounter struct {
	Month MonthID
	Last  int
}

// Request is an incoming booking request. Slot may be empty only when the
// allocator is configured with candidate slots for automatic selection.
type Request struct {
	Card    CardNumber
	Date    string // wire format YYYY-MM-DD
	Session string
	Slot    string
}
