/*
scheduler.go - Periodic usage reporting

PURPOSE:
  Periodically logs booking load for today and the current month: issued
  tokens and per-slot occupancy. Gives operators a heartbeat in the logs
  without a metrics stack.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads only; never mutates booking state
  - Reports once immediately on start

CONFIGURATION:
  - CheckInterval: How often to report (default: 1 hour)
  - Enabled: Whether the reporter is active (default: true)

USAGE:
  reporter := NewUsageReporter(store, sessions, slots)
  reporter.Start()
  // ... later
  reporter.Stop()

SEE ALSO:
  - booking/store.go: Read interface the reporter consumes
  - cmd/server/main.go: Wiring and shutdown
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/slot-engine/booking"
)

// UsageReporter logs periodic booking-load summaries.
type UsageReporter struct {
	Store         booking.Store
	Sessions      []string
	Slots         []string
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewUsageReporter creates a reporter over the given sessions and slots.
func NewUsageReporter(store booking.Store, sessions, slots []string) *UsageReporter {
	return &UsageReporter{
		Store:         store,
		Sessions:      sessions,
		Slots:         slots,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the reporter.
func (ur *UsageReporter) Start() {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if !ur.Enabled {
		log.Println("[Reporter] Disabled, not starting")
		return
	}

	ur.ticker = time.NewTicker(ur.CheckInterval)
	ur.wg.Add(1)

	go ur.run()

	log.Printf("[Reporter] Started with check interval: %v", ur.CheckInterval)
}

// Stop stops the reporter.
func (ur *UsageReporter) Stop() {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if ur.ticker != nil {
		ur.ticker.Stop()
		close(ur.stop)
		ur.wg.Wait()
		log.Println("[Reporter] Stopped")
	}
}

func (ur *UsageReporter) run() {
	defer ur.wg.Done()

	// Report immediately on start
	ur.report()

	for {
		select {
		case <-ur.ticker.C:
			ur.report()
		case <-ur.stop:
			return
		}
	}
}

func (ur *UsageReporter) report() {
	ctx := context.Background()
	now := time.Now()
	today := booking.NewDate(now.Year(), now.Month(), now.Day())

	counter, err := ur.Store.GetTokenCounter(ctx, today.MonthID())
	if err != nil {
		log.Printf("[Reporter] Error reading token counter: %v", err)
		return
	}
	log.Printf("[Reporter] Month %s: %d tokens issued", counter.Month, counter.Last)

	occupied := 0
	for _, session := range ur.Sessions {
		for _, slot := range ur.Slots {
			count, err := ur.Store.GetOccupancy(ctx, booking.SlotKey{Date: today, Session: session, Slot: slot})
			if err != nil {
				log.Printf("[Reporter] Error reading occupancy for %s/%s: %v", session, slot, err)
				continue
			}
			if count > 0 {
				log.Printf("[Reporter] %s %s %s: %d/%d", today, session, slot, count, booking.DefaultSlotCapacity)
				occupied++
			}
		}
	}
	if occupied == 0 {
		log.Printf("[Reporter] No bookings for %s yet", today)
	}
}
