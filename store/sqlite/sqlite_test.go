package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/slot-engine/booking"
	"github.com/warp/slot-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testKey() booking.SlotKey {
	return booking.SlotKey{
		Date:    booking.NewDate(2024, time.November, 5),
		Session: "morning",
		Slot:    "10:00-10:30",
	}
}

// =============================================================================
// RECORD ROUND TRIPS
// =============================================================================

func TestSQLite_UserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.GetUser(ctx, "1234")
	require.NoError(t, err)
	assert.Nil(t, u, "unregistered card reads as nil")

	require.NoError(t, store.SaveUser(ctx, booking.User{Card: "1234", Name: "Asha", Phone: "9999999999"}))

	u, err = store.GetUser(ctx, "1234")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "9999999999", u.Phone)

	// Saving again replaces
	require.NoError(t, store.SaveUser(ctx, booking.User{Card: "1234", Name: "Asha D", Phone: "9999999990"}))
	u, err = store.GetUser(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "Asha D", u.Name)
}

func TestSQLite_AnnouncementOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.GetAnnouncement(ctx, "11-2024")
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, store.SaveAnnouncement(ctx, booking.Announcement{
		Month: "11-2024",
		Days:  []booking.DayKey{"05-11-2024", "12-11-2024"},
	}))
	require.NoError(t, store.SaveAnnouncement(ctx, booking.Announcement{
		Month: "11-2024",
		Days:  []booking.DayKey{"19-11-2024"},
	}))

	a, err = store.GetAnnouncement(ctx, "11-2024")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, []booking.DayKey{"19-11-2024"}, a.Days)
}

func TestSQLite_BookingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b, err := store.GetBooking(ctx, "1234", "11-2024")
	require.NoError(t, err)
	assert.Nil(t, b)

	created := time.Date(2024, time.November, 5, 9, 30, 0, 0, time.UTC)
	want := booking.Booking{
		Ref: "ref-1", Card: "1234", Month: "11-2024",
		Date: booking.NewDate(2024, time.November, 5), Session: "morning", Slot: "10:00-10:30",
		Token: 1, CreatedAt: created,
	}
	require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
		return tx.CreateBooking(want)
	}))

	b, err = store.GetBooking(ctx, "1234", "11-2024")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, want, *b)
}

// =============================================================================
// CONDITIONAL WRITES
// =============================================================================

func TestSQLite_IncrementOccupancy_Ceiling(t *testing.T) {
	// The upsert's WHERE clause pins the count at max no matter how many
	// transactions try.

	store := newTestStore(t)
	ctx := context.Background()
	key := testKey()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
			count, err := tx.IncrementOccupancy(key, 3)
			if err != nil {
				return err
			}
			assert.Equal(t, i, count)
			return nil
		}))
	}

	err := store.WithTx(ctx, func(tx booking.Tx) error {
		_, err := tx.IncrementOccupancy(key, 3)
		return err
	})
	assert.ErrorIs(t, err, booking.ErrSlotFull)

	var sErr *booking.SlotFullError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 3, sErr.Count)

	count, err := store.GetOccupancy(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLite_NextToken_GaplessSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
			token, err := tx.NextToken("11-2024")
			if err != nil {
				return err
			}
			assert.Equal(t, want, token)
			return nil
		}))
	}

	// Independent sequence per month
	require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
		token, err := tx.NextToken("12-2024")
		if err != nil {
			return err
		}
		assert.Equal(t, 1, token)
		return nil
	}))

	counter, err := store.GetTokenCounter(ctx, "11-2024")
	require.NoError(t, err)
	assert.Equal(t, 5, counter.Last)
}

func TestSQLite_CreateBooking_DuplicateMapsToQuotaError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := booking.Booking{
		Ref: "ref-1", Card: "1234", Month: "11-2024",
		Date: booking.NewDate(2024, time.November, 5), Session: "morning", Slot: "10:00-10:30",
		Token: 1, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
		return tx.CreateBooking(b)
	}))

	b2 := b
	b2.Ref, b2.Date, b2.Token = "ref-2", booking.NewDate(2024, time.November, 12), 2
	err := store.WithTx(ctx, func(tx booking.Tx) error {
		return tx.CreateBooking(b2)
	})
	assert.ErrorIs(t, err, booking.ErrQuotaExhausted)

	var qErr *booking.QuotaError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, booking.CardNumber("1234"), qErr.Card)
}

// =============================================================================
// TRANSACTION ATOMICITY
// =============================================================================

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that reserves a slot, issues a token, then fails
	// THEN: No mutation is visible afterwards

	store := newTestStore(t)
	ctx := context.Background()
	key := testKey()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx booking.Tx) error {
		if _, err := tx.IncrementOccupancy(key, 10); err != nil {
			return err
		}
		if _, err := tx.NextToken("11-2024"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := store.GetOccupancy(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, count)

	counter, err := store.GetTokenCounter(ctx, "11-2024")
	require.NoError(t, err)
	assert.Zero(t, counter.Last)
}

func TestSQLite_BookingExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
		exists, err := tx.BookingExists("1234", "11-2024")
		if err != nil {
			return err
		}
		assert.False(t, exists)

		if err := tx.CreateBooking(booking.Booking{
			Ref: "ref-1", Card: "1234", Month: "11-2024",
			Date: booking.NewDate(2024, time.November, 5), Session: "morning", Slot: "10:00-10:30",
			Token: 1, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		exists, err = tx.BookingExists("1234", "11-2024")
		if err != nil {
			return err
		}
		assert.True(t, exists, "insert is visible within the same transaction")
		return nil
	}))
}

// =============================================================================
// MAINTENANCE
// =============================================================================

func TestSQLite_Reset_ClearsAllTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, booking.User{Card: "1234", Name: "Asha", Phone: "9999999999"}))
	require.NoError(t, store.SaveAnnouncement(ctx, booking.Announcement{Month: "11-2024", Days: []booking.DayKey{"05-11-2024"}}))
	require.NoError(t, store.WithTx(ctx, func(tx booking.Tx) error {
		if _, err := tx.IncrementOccupancy(testKey(), 10); err != nil {
			return err
		}
		_, err := tx.NextToken("11-2024")
		return err
	}))

	require.NoError(t, store.Reset(ctx))

	u, err := store.GetUser(ctx, "1234")
	require.NoError(t, err)
	assert.Nil(t, u)

	count, err := store.GetOccupancy(ctx, testKey())
	require.NoError(t, err)
	assert.Zero(t, count)

	counter, err := store.GetTokenCounter(ctx, "11-2024")
	require.NoError(t, err)
	assert.Zero(t, counter.Last)
}

// =============================================================================
// END-TO-END THROUGH THE ALLOCATOR
// =============================================================================

func TestSQLite_AllocatorFillsSlotExactly(t *testing.T) {
	// The full workflow against real SQL: ten holders fill a slot, the
	// eleventh is turned away.

	store := newTestStore(t)
	ctx := context.Background()
	alloc := booking.NewAllocator(store)

	require.NoError(t, store.SaveAnnouncement(ctx, booking.Announcement{
		Month: "11-2024",
		Days:  []booking.DayKey{"05-11-2024"},
	}))

	for i := 0; i < booking.DefaultSlotCapacity; i++ {
		card := booking.CardNumber(fmt.Sprintf("card-%02d", i))
		require.NoError(t, store.SaveUser(ctx, booking.User{Card: card, Name: "Holder", Phone: "9000000000"}))

		b, err := alloc.Allocate(ctx, booking.Request{
			Card: card, Date: "2024-11-05", Session: "morning", Slot: "10:00-10:30",
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, b.Token)
	}

	require.NoError(t, store.SaveUser(ctx, booking.User{Card: "card-11", Name: "Late", Phone: "9000000011"}))
	_, err := alloc.Allocate(ctx, booking.Request{
		Card: "card-11", Date: "2024-11-05", Session: "morning", Slot: "10:00-10:30",
	})
	assert.ErrorIs(t, err, booking.ErrSlotFull)
}
