/*
Package sqlite provides a SQLite-backed implementation of the booking store.

PURPOSE:
  Implements booking.TxStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

CONDITIONAL WRITES:
  The allocation transaction depends on three conditional operations, all
  expressed in SQL rather than read-then-write in Go:

  slot_occupancy:  UPSERT with "... DO UPDATE SET count = count + 1
                   WHERE count < max". Zero rows affected means the slot is
                   full; the occupancy ceiling can never be exceeded.
  token_counters:  UPSERT increment. Combined with the single-writer
                   discipline below, issued tokens are gapless per month.
  bookings:        Plain INSERT against PRIMARY KEY (card, month). A unique
                   constraint violation maps to the quota error.

CONCURRENCY:
  Uses sync.Mutex around writes (single writer), as SQLite allows only one
  writer at a time anyway. WAL mode keeps readers unblocked.

KEY TABLES:
  users:           Card-holder records (card number is the primary key)
  announcements:   Allowed-days set per month, overwritten on publish
  slot_occupancy:  Occupant count per (date, session, slot) composite key
  token_counters:  Last issued token per month
  bookings:        One committed booking per (card, month)

USAGE:
  store, err := sqlite.New("./data/rationbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - booking/store.go: Interface definitions
  - booking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/slot-engine/booking"
)

// Store implements booking.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Card holders (created by registration, read-only for the allocator)
	CREATE TABLE IF NOT EXISTS users (
		card TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Government allowed-days announcement, one row per month
	CREATE TABLE IF NOT EXISTS announcements (
		month TEXT PRIMARY KEY,
		days_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Occupant count per composite slot key
	CREATE TABLE IF NOT EXISTS slot_occupancy (
		slot_key TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		session TEXT NOT NULL,
		slot TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		CHECK (count >= 0)
	);

	CREATE INDEX IF NOT EXISTS idx_occupancy_date_session
		ON slot_occupancy(date, session);

	-- Last issued token per month
	CREATE TABLE IF NOT EXISTS token_counters (
		month TEXT PRIMARY KEY,
		last_token INTEGER NOT NULL DEFAULT 0
	);

	-- CRITICAL: one booking per (card, month). The primary key is the
	-- quota invariant; a second insert for the same pair fails.
	CREATE TABLE IF NOT EXISTS bookings (
		ref TEXT NOT NULL,
		card TEXT NOT NULL,
		month TEXT NOT NULL,
		date TEXT NOT NULL,
		session TEXT NOT NULL,
		slot TEXT NOT NULL,
		token INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (card, month)
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_date
		ON bookings(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READS AND PLAIN WRITES (booking.Store interface)
// =============================================================================

// GetUser returns the user for a card number, or nil if unregistered.
func (s *Store) GetUser(ctx context.Context, card booking.CardNumber) (*booking.User, error) {
	var u booking.User
	err := s.db.QueryRowContext(ctx,
		`SELECT card, name, phone FROM users WHERE card = ?`, card,
	).Scan(&u.Card, &u.Name, &u.Phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// SaveUser creates or replaces a user record.
func (s *Store) SaveUser(ctx context.Context, u booking.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (card, name, phone, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(card) DO UPDATE SET name = excluded.name, phone = excluded.phone
	`, u.Card, u.Name, u.Phone, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetAnnouncement returns the allowed-days announcement for a month.
func (s *Store) GetAnnouncement(ctx context.Context, month booking.MonthID) (*booking.Announcement, error) {
	var daysJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT days_json FROM announcements WHERE month = ?`, month,
	).Scan(&daysJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}

	var days []booking.DayKey
	if err := json.Unmarshal([]byte(daysJSON), &days); err != nil {
		return nil, fmt.Errorf("corrupt announcement for %s: %w", month, err)
	}
	return &booking.Announcement{Month: month, Days: days}, nil
}

// SaveAnnouncement publishes the announcement, overwriting any previous one.
func (s *Store) SaveAnnouncement(ctx context.Context, a booking.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	daysJSON, err := json.Marshal(a.Days)
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO announcements (month, days_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET days_json = excluded.days_json, updated_at = excluded.updated_at
	`, a.Month, string(daysJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save announcement: %w", err)
	}
	return nil
}

// GetOccupancy returns the occupant count for a slot key; absence is zero.
func (s *Store) GetOccupancy(ctx context.Context, key booking.SlotKey) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM slot_occupancy WHERE slot_key = ?`, key.String(),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get occupancy: %w", err)
	}
	return count, nil
}

// GetBooking returns the booking for (card, month), or nil if none.
func (s *Store) GetBooking(ctx context.Context, card booking.CardNumber, month booking.MonthID) (*booking.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ref, card, month, date, session, slot, token, created_at
		FROM bookings WHERE card = ? AND month = ?
	`, card, month)
	return scanBooking(row)
}

// GetTokenCounter returns the counter for a month; absence is zero.
func (s *Store) GetTokenCounter(ctx context.Context, month booking.MonthID) (booking.TokenCounter, error) {
	counter := booking.TokenCounter{Month: month}
	err := s.db.QueryRowContext(ctx,
		`SELECT last_token FROM token_counters WHERE month = ?`, month,
	).Scan(&counter.Last)
	if err == sql.ErrNoRows {
		return counter, nil
	}
	if err != nil {
		return counter, fmt.Errorf("failed to get token counter: %w", err)
	}
	return counter, nil
}

func scanBooking(row *sql.Row) (*booking.Booking, error) {
	var b booking.Booking
	var dateStr, createdAt string
	err := row.Scan(&b.Ref, &b.Card, &b.Month, &dateStr, &b.Session, &b.Slot, &b.Token, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.Date, err = booking.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt booking date: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		b.CreatedAt = t
	}
	return &b, nil
}

// =============================================================================
// ALLOCATION TRANSACTION (booking.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction, serialized behind the
// write mutex. Any error from fn rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) Occupancy(key booking.SlotKey) (int, error) {
	var count int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT count FROM slot_occupancy WHERE slot_key = ?`, key.String(),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get occupancy: %w", err)
	}
	return count, nil
}

// IncrementOccupancy is the atomic increment-with-ceiling. The WHERE clause
// on the upsert makes exceeding max impossible regardless of interleaving.
func (t *sqliteTx) IncrementOccupancy(key booking.SlotKey, max int) (int, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO slot_occupancy (slot_key, date, session, slot, count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(slot_key) DO UPDATE SET count = count + 1
		WHERE slot_occupancy.count < ?
	`, key.String(), key.Date.String(), key.Session, key.Slot, max)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve slot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve slot: %w", err)
	}
	if affected == 0 {
		count, _ := t.Occupancy(key)
		return 0, &booking.SlotFullError{Key: key, Count: count, Max: max}
	}

	return t.Occupancy(key)
}

func (t *sqliteTx) NextToken(month booking.MonthID) (int, error) {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO token_counters (month, last_token)
		VALUES (?, 1)
		ON CONFLICT(month) DO UPDATE SET last_token = last_token + 1
	`, month)
	if err != nil {
		return 0, fmt.Errorf("failed to issue token: %w", err)
	}

	var token int
	err = t.tx.QueryRowContext(t.ctx,
		`SELECT last_token FROM token_counters WHERE month = ?`, month,
	).Scan(&token)
	if err != nil {
		return 0, fmt.Errorf("failed to read token counter: %w", err)
	}
	return token, nil
}

func (t *sqliteTx) BookingExists(card booking.CardNumber, month booking.MonthID) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT 1 FROM bookings WHERE card = ? AND month = ?`, card, month,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	return true, nil
}

func (t *sqliteTx) CreateBooking(b booking.Booking) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO bookings (ref, card, month, date, session, slot, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.Ref, b.Card, b.Month, b.Date.String(), b.Session, b.Slot, b.Token,
		b.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &booking.QuotaError{Card: b.Card, Month: b.Month}
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Used by dev scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"users", "announcements", "slot_occupancy", "token_counters", "bookings"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
