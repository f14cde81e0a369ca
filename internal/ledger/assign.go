package ledger

// assign consumes amount contracts of spare bucket capacity, starting at a
// seed-derived cursor into the availability set.
//
// The walk takes min(spare, remaining) from the bucket under the cursor. A
// fully consumed bucket is removed by swap-with-last-and-pop and the cursor
// is NOT advanced: the swapped-in element now occupies the cursor slot, so
// the next candidate arrives for free. Removing the physically last slot
// wraps the cursor to zero. A partially consumed bucket means the amount is
// exhausted and the walk ends. The pass terminates after at most
// |availability set| iterations.
//
// Capacity is prechecked before any mutation, so a pass either completes in
// full or fails with ErrCapacityExhausted leaving the ledger untouched —
// that error indicates an upstream accounting defect (the caller exercised
// more than the outstanding supply), not a user-facing condition.
func (l *OptionLedger) assign(amount uint64) error {
	if amount == 0 {
		return nil
	}

	var spare uint64
	for _, idx := range l.avail.indices {
		spare += l.buckets[idx].Spare()
		if spare >= amount {
			break
		}
	}
	if spare < amount {
		return ErrCapacityExhausted
	}

	n := l.avail.len()
	cursor := l.seedCursor(n)

	for amount > 0 {
		idx := l.avail.indices[cursor]
		b := &l.buckets[idx]

		take := b.Spare()
		if take > amount {
			take = amount
		}
		b.AmountExercised += take
		amount -= take

		if b.Spare() == 0 {
			l.avail.removeAt(cursor)
			n--
			if cursor >= n {
				cursor = 0
			}
		}
	}

	l.advanceSeed(cursor)
	return nil
}
