package booking

import (
	"context"
	"fmt"
)

// QuotaGuard enforces at most one booking per user per month.
//
// Check is a fast pre-check outside the allocation transaction; the
// authoritative enforcement is the create-if-absent booking insert inside it.
// Existence of any booking record blocks, regardless of how far its own
// allocation got.
type QuotaGuard struct {
	Store Store
}

// Check returns a *QuotaError when (card, month) already holds a booking.
func (g *QuotaGuard) Check(ctx context.Context, card CardNumber, month MonthID) error {
	existing, err := g.Store.GetBooking(ctx, card, month)
	if err != nil {
		return fmt.Errorf("%w: load booking: %w", ErrStoreUnavailable, err)
	}
	if existing != nil {
		return &QuotaError{Card: card, Month: month}
	}
	return nil
}
