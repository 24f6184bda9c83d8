/*
handlers.go - HTTP API handlers for the slot-booking service

PURPOSE:
  Exposes the booking engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  POST   /api/login                 Card-holder login check
  POST   /api/book                  Book a slot
  GET    /api/availableSlots        Occupant count for a slot
  GET    /api/bookingDetails        Booking lookup by card + date
  POST   /api/users                 Register a card holder (ops/demo)
  POST   /api/admin/allowedDays     Publish allowed days for a month
  GET    /api/allowedDays           Read allowed days for a month
  GET    /api/scenarios             List demo scenarios
  POST   /api/scenarios/load        Load a demo scenario
  POST   /api/scenarios/reset       Clear all data (dev only)

RESPONSE CONTRACT:
  Every body carries success + message. Error kinds additionally map to
  HTTP statuses:
  - 400: missing fields, malformed dates, unapproved date
  - 401: login mismatch
  - 404: unknown user, no announcement, no booking
  - 409: quota exhausted, slot full
  - 429: login rate limit
  - 500: storage failures

SECURITY NOTE:
  Login is an equality check against the stored record, not an
  authentication system. The admin routes carry no authorization; front
  them with an authenticating proxy in real deployments.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/slot-engine/booking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     booking.TxStore
	Allocator *booking.Allocator

	loginLimiter *rate.Limiter

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and allocator.
func NewHandler(store booking.TxStore, allocator *booking.Allocator) *Handler {
	return &Handler{
		Store:        store,
		Allocator:    allocator,
		loginLimiter: rate.NewLimiter(rate.Every(time.Minute/5), 5), // 5 attempts per minute
	}
}

// =============================================================================
// LOGIN
// =============================================================================

// Login verifies a card holder by (card, name, phone) equality.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request body."})
		return
	}

	if req.CardNumber == "" || req.Name == "" || req.Phone == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Please fill all details!"})
		return
	}

	if !h.loginLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, Response{Message: "Too many login attempts, try again later."})
		return
	}

	user, err := h.Store.GetUser(r.Context(), booking.CardNumber(req.CardNumber))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, Response{Message: "User not registered!"})
		return
	}

	if user.Name != req.Name || user.Phone != req.Phone {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Invalid name or phone number!"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Login successful!"})
}

// =============================================================================
// BOOKING
// =============================================================================

// Book runs the allocation workflow for a booking request.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request body."})
		return
	}

	booked, err := h.Allocator.Allocate(r.Context(), booking.Request{
		Card:    booking.CardNumber(req.Card),
		Date:    req.Date,
		Session: req.Session,
		Slot:    req.Slot,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Booking confirmed!",
		Booking: toBookingDTO(*booked),
	})
}

// AvailableSlots returns the current occupant count for a slot key.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStr, session, slot := q.Get("date"), q.Get("session"), q.Get("slot")
	if dateStr == "" || session == "" || slot == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Missing date, session, or slot!"})
		return
	}

	date, err := booking.ParseDate(dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid date format (use YYYY-MM-DD)."})
		return
	}

	count, err := h.Store.GetOccupancy(r.Context(), booking.SlotKey{Date: date, Session: session, Slot: slot})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Count: &count})
}

// BookingDetails returns the booking for (card, date). The month's booking
// only matches when it was made for exactly the queried date.
func (h *Handler) BookingDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	card, dateStr := q.Get("card"), q.Get("date")
	if card == "" || dateStr == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Missing card or date!"})
		return
	}

	date, err := booking.ParseDate(dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid date format (use YYYY-MM-DD)."})
		return
	}

	booked, err := h.Store.GetBooking(r.Context(), booking.CardNumber(card), date.MonthID())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}
	if booked == nil || booked.Date != date {
		writeJSON(w, http.StatusNotFound, Response{Message: "Booking not found!"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Booking: toBookingDTO(*booked)})
}

// =============================================================================
// USERS
// =============================================================================

// RegisterUser seeds a card holder. The allocation workflow itself treats
// users as read-only.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request body."})
		return
	}

	if req.CardNumber == "" || req.Name == "" || req.Phone == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Please fill all details!"})
		return
	}

	u := booking.User{
		Card:  booking.CardNumber(req.CardNumber),
		Name:  req.Name,
		Phone: req.Phone,
	}
	if err := h.Store.SaveUser(r.Context(), u); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}

	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "User registered."})
}

// =============================================================================
// ALLOWED DAYS (government announcements)
// =============================================================================

// SetAllowedDays publishes the bookable days for a month, overwriting any
// previous announcement.
func (h *Handler) SetAllowedDays(w http.ResponseWriter, r *http.Request) {
	var req AllowedDaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request body."})
		return
	}

	month, err := booking.ParseMonthID(req.Month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid month format (use MM-YYYY)."})
		return
	}
	if len(req.Days) == 0 {
		writeJSON(w, http.StatusBadRequest, Response{Message: "At least one day is required."})
		return
	}

	days := make([]booking.DayKey, 0, len(req.Days))
	for _, d := range req.Days {
		day, err := booking.ParseDayKey(d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid day format (use DD-MM-YYYY)."})
			return
		}
		if day.MonthID() != month {
			writeJSON(w, http.StatusBadRequest, Response{Message: "Day " + d + " is not in month " + req.Month + "."})
			return
		}
		days = append(days, day.DayKey())
	}

	ann := booking.Announcement{Month: month, Days: days}
	if err := h.Store.SaveAnnouncement(r.Context(), ann); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Allowed days published."})
}

// GetAllowedDays returns the announced days for a month.
func (h *Handler) GetAllowedDays(w http.ResponseWriter, r *http.Request) {
	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Missing month!"})
		return
	}

	month, err := booking.ParseMonthID(monthStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid month format (use MM-YYYY)."})
		return
	}

	ann, err := h.Store.GetAnnouncement(r.Context(), month)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
		return
	}
	if ann == nil {
		writeJSON(w, http.StatusNotFound, Response{Message: "No allowed days announced for this month."})
		return
	}

	days := make([]string, len(ann.Days))
	for i, d := range ann.Days {
		days[i] = string(d)
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Days: days})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeBookingError maps allocation error kinds to statuses and the
// user-facing messages the frontend shows.
func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, Response{Message: "Fill all details!"})
	case errors.Is(err, booking.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: "User not registered!"})
	case errors.Is(err, booking.ErrAnnouncementMissing):
		writeJSON(w, http.StatusNotFound, Response{Message: "No booking days announced for this month!"})
	case errors.Is(err, booking.ErrDateNotApproved):
		writeJSON(w, http.StatusBadRequest, Response{Message: "Selected date is not approved for booking!"})
	case errors.Is(err, booking.ErrQuotaExhausted):
		writeJSON(w, http.StatusConflict, Response{Message: "You have already booked a slot this month!"})
	case errors.Is(err, booking.ErrSlotFull):
		writeJSON(w, http.StatusConflict, Response{Message: "Slot is full!"})
	default:
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error."})
	}
}
