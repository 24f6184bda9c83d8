// Package store provides booking.TxStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/slot-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	users         map[booking.CardNumber]booking.User
	announcements map[booking.MonthID]booking.Announcement
	occupancy     map[string]int
	tokens        map[booking.MonthID]int
	bookings      map[bookingKey]booking.Booking
}

type bookingKey struct {
	Card  booking.CardNumber
	Month booking.MonthID
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[booking.CardNumber]booking.User),
		announcements: make(map[booking.MonthID]booking.Announcement),
		occupancy:     make(map[string]int),
		tokens:        make(map[booking.MonthID]int),
		bookings:      make(map[bookingKey]booking.Booking),
	}
}

func (m *Memory) GetUser(_ context.Context, card booking.CardNumber) (*booking.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[card]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) SaveUser(_ context.Context, u booking.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Card] = u
	return nil
}

func (m *Memory) GetAnnouncement(_ context.Context, month booking.MonthID) (*booking.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.announcements[month]
	if !ok {
		return nil, nil
	}
	days := append([]booking.DayKey{}, a.Days...)
	return &booking.Announcement{Month: a.Month, Days: days}, nil
}

func (m *Memory) SaveAnnouncement(_ context.Context, a booking.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements[a.Month] = booking.Announcement{
		Month: a.Month,
		Days:  append([]booking.DayKey{}, a.Days...),
	}
	return nil
}

func (m *Memory) GetOccupancy(_ context.Context, key booking.SlotKey) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupancy[key.String()], nil
}

func (m *Memory) GetBooking(_ context.Context, card booking.CardNumber, month booking.MonthID) (*booking.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[bookingKey{Card: card, Month: month}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) GetTokenCounter(_ context.Context, month booking.MonthID) (booking.TokenCounter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return booking.TokenCounter{Month: month, Last: m.tokens[month]}, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn under the write lock. Mutations are rolled back from a
// snapshot when fn fails, so the memory store gives the same all-or-nothing
// semantics as the SQLite store.
func (m *Memory) WithTx(_ context.Context, fn func(booking.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()

	if err := fn(&memoryTx{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *Memory) snapshot() memorySnapshot {
	occ := make(map[string]int, len(m.occupancy))
	for k, v := range m.occupancy {
		occ[k] = v
	}
	tok := make(map[booking.MonthID]int, len(m.tokens))
	for k, v := range m.tokens {
		tok[k] = v
	}
	bks := make(map[bookingKey]booking.Booking, len(m.bookings))
	for k, v := range m.bookings {
		bks[k] = v
	}
	return memorySnapshot{occupancy: occ, tokens: tok, bookings: bks}
}

func (m *Memory) restore(s memorySnapshot) {
	m.occupancy = s.occupancy
	m.tokens = s.tokens
	m.bookings = s.bookings
}

type memorySnapshot struct {
	occupancy map[string]int
	tokens    map[booking.MonthID]int
	bookings  map[bookingKey]booking.Booking
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[booking.CardNumber]booking.User)
	m.announcements = make(map[booking.MonthID]booking.Announcement)
	m.occupancy = make(map[string]int)
	m.tokens = make(map[booking.MonthID]int)
	m.bookings = make(map[bookingKey]booking.Booking)
	return nil
}

type memoryTx struct {
	parent *Memory
}

func (tx *memoryTx) Occupancy(key booking.SlotKey) (int, error) {
	return tx.parent.occupancy[key.String()], nil
}

func (tx *memoryTx) IncrementOccupancy(key booking.SlotKey, max int) (int, error) {
	count := tx.parent.occupancy[key.String()]
	if count >= max {
		return 0, &booking.SlotFullError{Key: key, Count: count, Max: max}
	}
	count++
	tx.parent.occupancy[key.String()] = count
	return count, nil
}

func (tx *memoryTx) NextToken(month booking.MonthID) (int, error) {
	next := tx.parent.tokens[month] + 1
	tx.parent.tokens[month] = next
	return next, nil
}

func (tx *memoryTx) BookingExists(card booking.CardNumber, month booking.MonthID) (bool, error) {
	_, ok := tx.parent.bookings[bookingKey{Card: card, Month: month}]
	return ok, nil
}

func (tx *memoryTx) CreateBooking(b booking.Booking) error {
	k := bookingKey{Card: b.Card, Month: b.Month}
	if _, ok := tx.parent.bookings[k]; ok {
		return &booking.QuotaError{Card: b.Card, Month: b.Month}
	}
	tx.parent.bookings[k] = b
	return nil
}
