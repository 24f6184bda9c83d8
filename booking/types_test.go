package booking_test

import (
	"testing"
	"time"

	"github.com/warp/slot-engine/booking"
)

// =============================================================================
// DATE FORMAT TESTS
// =============================================================================

func TestParseDate_WireFormat_RoundTrips(t *testing.T) {
	d, err := booking.ParseDate("2024-11-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.String() != "2024-11-05" {
		t.Errorf("expected wire format to round-trip, got %q", d.String())
	}
	if d.MonthID() != "11-2024" {
		t.Errorf("expected month key 11-2024, got %q", d.MonthID())
	}
	if d.DayKey() != "05-11-2024" {
		t.Errorf("expected day key 05-11-2024, got %q", d.DayKey())
	}
}

func TestParseDate_RejectsSloppyInput(t *testing.T) {
	// Inputs that a lenient parser would accept but that do not round-trip
	bad := []string{"2024-1-5", "2024-11-5", "05-11-2024", "2024/11/05", "", "2024-13-01", "2024-11-31"}
	for _, s := range bad {
		if _, err := booking.ParseDate(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestParseMonthID_Exact(t *testing.T) {
	m, err := booking.ParseMonthID("11-2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != "11-2024" {
		t.Errorf("expected 11-2024, got %q", m)
	}

	for _, s := range []string{"1-2024", "2024-11", "11/2024", ""} {
		if _, err := booking.ParseMonthID(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestParseDayKey_Exact(t *testing.T) {
	d, err := booking.ParseDayKey("05-11-2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-11-05" {
		t.Errorf("expected 2024-11-05, got %q", d.String())
	}

	for _, s := range []string{"5-11-2024", "2024-11-05", ""} {
		if _, err := booking.ParseDayKey(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestDate_MonthBoundaries(t *testing.T) {
	// Dec 31 and Jan 1 must land in different month keys
	dec := booking.NewDate(2024, time.December, 31)
	jan := booking.NewDate(2025, time.January, 1)

	if dec.MonthID() != "12-2024" {
		t.Errorf("expected 12-2024, got %q", dec.MonthID())
	}
	if jan.MonthID() != "01-2025" {
		t.Errorf("expected 01-2025, got %q", jan.MonthID())
	}
}

// =============================================================================
// SLOT KEY TESTS
// =============================================================================

func TestSlotKey_CanonicalString(t *testing.T) {
	key := booking.SlotKey{
		Date:    booking.NewDate(2024, time.November, 5),
		Session: "morning",
		Slot:    "10:00-10:30",
	}
	want := "2024-11-05-morning-10:00-10:30"
	if key.String() != want {
		t.Errorf("expected %q, got %q", want, key.String())
	}
}

func TestSlotKey_DistinctSessionsDistinctKeys(t *testing.T) {
	d := booking.NewDate(2024, time.November, 5)
	morning := booking.SlotKey{Date: d, Session: "morning", Slot: "10:00-10:30"}
	evening := booking.SlotKey{Date: d, Session: "evening", Slot: "10:00-10:30"}
	if morning.String() == evening.String() {
		t.Error("expected different sessions to produce different keys")
	}
}

// =============================================================================
// ANNOUNCEMENT TESTS
// =============================================================================

func TestAnnouncement_Contains(t *testing.T) {
	a := booking.Announcement{
		Month: "11-2024",
		Days:  []booking.DayKey{"05-11-2024", "12-11-2024"},
	}

	if !a.Contains("05-11-2024") {
		t.Error("expected 05-11-2024 to be approved")
	}
	if a.Contains("06-11-2024") {
		t.Error("expected 06-11-2024 to be rejected")
	}
}
