/*
eligibility.go - User and date eligibility checks

PURPOSE:
  Decides whether a (card, date) pair may book at all: the card must belong
  to a registered user and the date must be in the government-announced
  allowed set for its month. Pure reads; repeated checks against unchanged
  store state always return the same verdict.
*/
package booking

import (
	"context"
	"fmt"
)

// EligibilityChecker validates users and dates against announcements.
type EligibilityChecker struct {
	Store Store
}

// Check returns the user record when (card, date) is eligible to book.
// The record is returned so the caller avoids a second read for the
// confirmation message.
func (c *EligibilityChecker) Check(ctx context.Context, card CardNumber, date Date) (*User, error) {
	user, err := c.Store.GetUser(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %w", ErrStoreUnavailable, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ann, err := c.Store.GetAnnouncement(ctx, date.MonthID())
	if err != nil {
		return nil, fmt.Errorf("%w: load announcement: %w", ErrStoreUnavailable, err)
	}
	if ann == nil {
		return nil, ErrAnnouncementMissing
	}
	if !ann.Contains(date.DayKey()) {
		return nil, ErrDateNotApproved
	}

	return user, nil
}
