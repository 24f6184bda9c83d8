/*
scenarios_test.go - Demo scenario tests

Each scenario is loaded through the HTTP endpoint and the resulting store
state is verified: seeded holders, announced days, and any pre-existing
bookings the scenario promises.
*/
package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/slot-engine/booking"
)

func loadScenario(t *testing.T, url, id string) *http.Response {
	t.Helper()
	return postJSON(t, url+"/api/scenarios/load", map[string]string{"scenario_id": id})
}

func currentMonthID() booking.MonthID {
	now := time.Now()
	return booking.NewDate(now.Year(), now.Month(), 1).MonthID()
}

func TestScenario_FreshMonth(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	resp := loadScenario(t, srv.URL, "fresh-month")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := mem.GetUser(ctx, "1234")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Asha", u.Name)

	ann, err := mem.GetAnnouncement(ctx, currentMonthID())
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Len(t, ann.Days, 3)

	b, err := mem.GetBooking(ctx, "1234", currentMonthID())
	require.NoError(t, err)
	assert.Nil(t, b, "fresh month has no bookings")
}

func TestScenario_BusySlot(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	resp := loadScenario(t, srv.URL, "busy-slot")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ann, err := mem.GetAnnouncement(ctx, currentMonthID())
	require.NoError(t, err)
	require.NotNil(t, ann)

	day, err := booking.ParseDayKey(string(ann.Days[0]))
	require.NoError(t, err)

	count, err := mem.GetOccupancy(ctx, booking.SlotKey{Date: day, Session: "morning", Slot: "10:00-10:30"})
	require.NoError(t, err)
	assert.Equal(t, booking.DefaultSlotCapacity, count)

	// The demo holder can still book a different slot
	respBook := postJSON(t, srv.URL+"/api/book", map[string]string{
		"card": "1234", "date": day.String(), "session": "morning", "slot": "10:30-11:00",
	})
	r := decodeResponse(t, respBook)
	assert.True(t, r.Success)
}

func TestScenario_QuotaUsed(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	resp := loadScenario(t, srv.URL, "quota-used")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := mem.GetBooking(ctx, "1234", currentMonthID())
	require.NoError(t, err)
	require.NotNil(t, b, "card 1234 already holds a booking")

	ann, err := mem.GetAnnouncement(ctx, currentMonthID())
	require.NoError(t, err)
	day, err := booking.ParseDayKey(string(ann.Days[0]))
	require.NoError(t, err)

	respBook := postJSON(t, srv.URL+"/api/book", map[string]string{
		"card": "1234", "date": day.String(), "session": "morning", "slot": "10:00-10:30",
	})
	r := decodeResponse(t, respBook)
	assert.Equal(t, http.StatusConflict, respBook.StatusCode)
	assert.Equal(t, "You have already booked a slot this month!", r.Message)
}

func TestScenario_LoadResetsPreviousState(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	resp := loadScenario(t, srv.URL, "quota-used")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = loadScenario(t, srv.URL, "fresh-month")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := mem.GetBooking(ctx, "1234", currentMonthID())
	require.NoError(t, err)
	assert.Nil(t, b, "reload cleared the earlier booking")
}

func TestScenario_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := loadScenario(t, srv.URL, "does-not-exist")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
