/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates card holders, an
	allowed-days announcement, and optionally pre-existing bookings that
	demonstrate specific constraints.

AVAILABLE SCENARIOS:

	fresh-month:    Registered holders, announced days, no bookings yet
	busy-slot:      One slot already at capacity, demonstrating the ceiling
	quota-used:     A holder who already booked this month

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Register card holders
 3. Publish the allowed-days announcement for the current month
 4. Optionally commit bookings through the store transaction

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-slot"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Route handlers and response helpers
  - store/sqlite: Reset implementation
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/warp/slot-engine/booking"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-month",
		Name:        "Fresh Month",
		Description: "Registered card holders and announced days, no bookings yet",
	},
	{
		ID:          "busy-slot",
		Name:        "Busy Slot",
		Description: "The first morning slot already holds ten bookings",
	},
	{
		ID:          "quota-used",
		Name:        "Quota Used",
		Description: "Card 1234 has already booked a slot this month",
	},
}

// demoSlots mirrors the frontend's half-hour slot list.
var demoSlots = []string{"10:00-10:30", "10:30-11:00", "11:00-11:30", "11:30-12:00"}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// resetter is implemented by stores that support clearing all data.
// The SQLite store does; the in-memory store used in tests does too.
type resetter interface {
	Reset(ctx context.Context) error
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request body."})
		return
	}

	ctx := r.Context()
	if err := h.resetStore(ctx); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Failed to reset store."})
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-month":
		err = h.loadFreshMonthScenario(ctx)
	case "busy-slot":
		err = h.loadBusySlotScenario(ctx)
	case "quota-used":
		err = h.loadQuotaUsedScenario(ctx)
	default:
		writeJSON(w, http.StatusBadRequest, Response{Message: "Unknown scenario."})
		return
	}

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: fmt.Sprintf("Failed to load scenario: %v", err)})
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Scenario loaded: " + req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Failed to reset store."})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Store reset."})
}

func (h *Handler) resetStore(ctx context.Context) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	if err := rs.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// demoMonth returns the current month's announcement with the 5th, 12th and
// 19th approved, plus the list of day keys.
func demoMonth(now time.Time) (booking.Announcement, []booking.Date) {
	var days []booking.DayKey
	var dates []booking.Date
	for _, dom := range []int{5, 12, 19} {
		d := booking.NewDate(now.Year(), now.Month(), dom)
		days = append(days, d.DayKey())
		dates = append(dates, d)
	}
	first := dates[0]
	return booking.Announcement{Month: first.MonthID(), Days: days}, dates
}

func (h *Handler) loadFreshMonthScenario(ctx context.Context) error {
	users := []booking.User{
		{Card: "1234", Name: "Asha", Phone: "9999999999"},
		{Card: "5678", Name: "Ravi", Phone: "8888888888"},
		{Card: "9012", Name: "Meena", Phone: "7777777777"},
	}
	for _, u := range users {
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	ann, _ := demoMonth(time.Now())
	return h.Store.SaveAnnouncement(ctx, ann)
}

func (h *Handler) loadBusySlotScenario(ctx context.Context) error {
	if err := h.loadFreshMonthScenario(ctx); err != nil {
		return err
	}

	ann, dates := demoMonth(time.Now())
	day := dates[0]
	key := booking.SlotKey{Date: day, Session: "morning", Slot: demoSlots[0]}

	// Fill the first morning slot to capacity with filler holders. They do
	// not consume the demo users' monthly quota.
	for i := 0; i < booking.DefaultSlotCapacity; i++ {
		card := booking.CardNumber(fmt.Sprintf("filler-%02d", i))
		u := booking.User{Card: card, Name: fmt.Sprintf("Holder %02d", i), Phone: fmt.Sprintf("60000000%02d", i)}
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}

		err := h.Store.WithTx(ctx, func(tx booking.Tx) error {
			if _, err := tx.IncrementOccupancy(key, booking.DefaultSlotCapacity); err != nil {
				return err
			}
			token, err := tx.NextToken(ann.Month)
			if err != nil {
				return err
			}
			return tx.CreateBooking(booking.Booking{
				Ref:       uuid.NewString(),
				Card:      card,
				Month:     ann.Month,
				Date:      day,
				Session:   key.Session,
				Slot:      key.Slot,
				Token:     token,
				CreatedAt: time.Now().UTC(),
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadQuotaUsedScenario(ctx context.Context) error {
	if err := h.loadFreshMonthScenario(ctx); err != nil {
		return err
	}

	ann, dates := demoMonth(time.Now())
	day := dates[1]
	key := booking.SlotKey{Date: day, Session: "evening", Slot: demoSlots[1]}

	return h.Store.WithTx(ctx, func(tx booking.Tx) error {
		if _, err := tx.IncrementOccupancy(key, booking.DefaultSlotCapacity); err != nil {
			return err
		}
		token, err := tx.NextToken(ann.Month)
		if err != nil {
			return err
		}
		return tx.CreateBooking(booking.Booking{
			Ref:       uuid.NewString(),
			Card:      "1234",
			Month:     ann.Month,
			Date:      day,
			Session:   key.Session,
			Slot:      key.Slot,
			Token:     token,
			CreatedAt: time.Now().UTC(),
		})
	})
}
