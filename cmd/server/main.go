/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ration slot-booking server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration, parse command-line flags
  2. Initialize SQLite store
  3. Build the allocator (capacity, quota, tokens, notification)
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT env or 8080)
  -db      SQLite database path (default: DB_PATH env or rationbook.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  PORT, DB_PATH               Server basics (flags override)
  TWILIO_ACCOUNT_SID          Enables SMS confirmations when set
  TWILIO_AUTH_TOKEN
  TWILIO_FROM_NUMBER
  SMS_COUNTRY_PREFIX          Dial prefix for stored phone numbers (+91)
  ENABLE_SLOT_SUGGESTION      Least-crowded slot pick when slot omitted

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rationbook.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/slot-engine/api"
	"github.com/warp/slot-engine/booking"
	"github.com/warp/slot-engine/config"
	"github.com/warp/slot-engine/notify"
	"github.com/warp/slot-engine/store/sqlite"
)

// slotTimes mirrors the frontend's fixed half-hour windows. Used only for
// the optional least-crowded suggestion.
var slotTimes = []string{"10:00-10:30", "10:30-11:00", "11:00-11:30", "11:30-12:00"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Build the allocator
	allocator := booking.NewAllocator(store)
	allocator.Confirm = notify.Confirmation(cfg.SMSCountryPrefix)
	if cfg.TwilioAccountSID != "" {
		allocator.Notify = notify.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		log.Printf("SMS confirmations enabled (from %s)", cfg.TwilioFromNumber)
	} else {
		allocator.Notify = notify.NewConsole()
		log.Printf("SMS confirmations disabled; logging instead")
	}
	if cfg.EnableSlotSuggestion {
		allocator.AutoSelectSlots = slotTimes
	}

	// Initialize handler and router
	handler := api.NewHandler(store, allocator)
	router := api.NewRouter(handler)

	// Periodic load summary in the logs
	reporter := api.NewUsageReporter(store, []string{"morning", "evening"}, slotTimes)
	reporter.Start()
	defer reporter.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
