/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

RESPONSE SHAPE:
  Every endpoint responds with a body carrying "success" and "message",
  matching what the frontend expects; payload fields are added per endpoint.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Payload types embedded in responses

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/slot-engine/booking"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// LoginRequest carries the card-holder login check.
type LoginRequest struct {
	CardNumber string `json:"cardNumber"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// BookRequest submits a booking. Date is YYYY-MM-DD. Slot may be empty only
// when slot suggestion is enabled server-side.
type BookRequest struct {
	Card    string `json:"card"`
	Date    string `json:"date"`
	Session string `json:"session"`
	Slot    string `json:"slot"`
}

// RegisterUserRequest seeds a card holder (ops/demo use).
type RegisterUserRequest struct {
	CardNumber string `json:"cardNumber"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// AllowedDaysRequest publishes the government announcement for a month.
// Month is MM-YYYY, each day is DD-MM-YYYY.
type AllowedDaysRequest struct {
	Month string   `json:"month"`
	Days  []string `json:"days"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Booking *BookingDTO `json:"booking,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Days    []string    `json:"days,omitempty"`
}

// BookingDTO is the committed booking payload.
type BookingDTO struct {
	Reference string `json:"reference"`
	Date      string `json:"date"`
	Session   string `json:"session"`
	Slot      string `json:"slot"`
	Token     int    `json:"token"`
}

func toBookingDTO(b booking.Booking) *BookingDTO {
	return &BookingDTO{
		Reference: b.Ref,
		Date:      b.Date.String(),
		Session:   b.Session,
		Slot:      b.Slot,
		Token:     b.Token,
	}
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
