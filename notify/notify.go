/*
Package notify delivers booking confirmation messages.

PURPOSE:
  Outbound notification is best-effort: the allocator dispatches a message
  after a booking commits and never lets delivery failure affect the booking.
  Implementations satisfy booking.Notifier.

IMPLEMENTATIONS:
  Console: logs the message, for dev and tests
  Twilio:  SMS via the Twilio Messages REST API (twilio.go)
*/
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/warp/slot-engine/booking"
)

// Console logs messages instead of delivering them.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Send(_ context.Context, to, body string) error {
	log.Printf("[notify] to=%s :: %s", to, strings.ReplaceAll(body, "\r\n", " | "))
	return nil
}

// RenderConfirmation builds the confirmation message body for a committed
// booking. The shape (greeting, CRLF lines, capitalized session) is part of
// the product contract with the SMS templates.
func RenderConfirmation(name string, b booking.Booking) string {
	return fmt.Sprintf("Hello %s,\r\n"+
		"Your booking is confirmed!\r\n"+
		"Date: %s\r\n"+
		"Session: %s\r\n"+
		"Slot: %s\r\n"+
		"Token Number: %d",
		name, b.Date, capitalize(b.Session), b.Slot, b.Token)
}

// Confirmation returns a booking.Confirmation that renders the standard
// message and prefixes destination numbers with the given country code.
func Confirmation(countryPrefix string) booking.Confirmation {
	return func(u booking.User, b booking.Booking) (string, string) {
		return countryPrefix + u.Phone, RenderConfirmation(u.Name, b)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
