package booking

// DefaultSlotCapacity is the configured maximum occupancy per slot.
const DefaultSlotCapacity = 10

// CapacityTracker reserves places in capacity-limited slots.
//
// Reservation runs inside the allocation transaction, so a failure later in
// the workflow rolls the increment back; there is no separate compensation
// path. The ceiling itself is enforced by the store's conditional increment,
// never by a read-then-write in this package.
type CapacityTracker struct {
	Max int // 0 means DefaultSlotCapacity
}

// Reserve takes one place in the slot and returns the new occupant count.
// Returns a *SlotFullError once the slot is at capacity.
func (t *CapacityTracker) Reserve(tx Tx, key SlotKey) (int, error) {
	max := t.Max
	if max == 0 {
		max = DefaultSlotCapacity
	}
	return tx.IncrementOccupancy(key, max)
}
