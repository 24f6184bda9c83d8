// Package config loads service configuration from the environment.
//
// A local .env file is honored when present (development convenience);
// real deployments set the variables directly.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// Server
	Port   int    `envconfig:"PORT" default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"rationbook.db"`

	// Twilio (SMS confirmations). Empty SID disables SMS; confirmations are
	// logged instead.
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`
	SMSCountryPrefix string `envconfig:"SMS_COUNTRY_PREFIX" default:"+91"`

	// Legacy least-crowded slot suggestion when a request omits the slot.
	EnableSlotSuggestion bool `envconfig:"ENABLE_SLOT_SUGGESTION" default:"false"`
}

func Load() (App, error) {
	_ = godotenv.Load()

	var c App
	err := envconfig.Process("", &c)
	return c, err
}
