package ledger

// Bucket aggregates every lot written on one calendar day for one option
// type. Buckets are append-only: once created a bucket is never deleted, its
// DayIndex never changes, and AmountExercised never exceeds AmountWritten.
type Bucket struct {
	AmountWritten   uint64 `json:"amount_written"`
	AmountExercised uint64 `json:"amount_exercised"`
	DayIndex        uint32 `json:"day_index"`
}

// Spare returns the bucket's unassigned capacity.
func (b Bucket) Spare() uint64 {
	return b.AmountWritten - b.AmountExercised
}

// availabilitySet is the subset of bucket indices with spare capacity. The
// indices slice is order-unstable: removal swaps the last element into the
// vacated slot and pops, and the slot table maps each member index to its
// current position so removal and duplicate-free insertion stay O(1).
//
// Invariant: a bucket index is a member iff its bucket has Spare() > 0.
type availabilitySet struct {
	indices []uint16
	slot    map[uint16]int
}

func newAvailabilitySet() availabilitySet {
	return availabilitySet{slot: make(map[uint16]int)}
}

func (a *availabilitySet) len() int {
	return len(a.indices)
}

func (a *availabilitySet) contains(idx uint16) bool {
	_, ok := a.slot[idx]
	return ok
}

// insert adds a bucket index; inserting an existing member is a no-op.
func (a *availabilitySet) insert(idx uint16) {
	if a.contains(idx) {
		return
	}
	a.slot[idx] = len(a.indices)
	a.indices = append(a.indices, idx)
}

// removeAt drops the member at the given position via swap-with-last-and-pop.
// The element previously at the end now occupies pos (unless pos was last).
func (a *availabilitySet) removeAt(pos int) {
	idx := a.indices[pos]
	last := len(a.indices) - 1
	if pos != last {
		moved := a.indices[last]
		a.indices[pos] = moved
		a.slot[moved] = pos
	}
	a.indices = a.indices[:last]
	delete(a.slot, idx)
}

// recordWrite absorbs a write of amount contracts on the given day and
// returns the index of the bucket that took it.
//
// A new bucket is opened when the sequence is empty or the day has advanced
// past the last bucket's day. Otherwise the write merges into the last
// bucket. Either way the bucket regains availability if it had been fully
// consumed earlier (insert is a no-op when it is already a member).
func (l *OptionLedger) recordWrite(amount uint64, day uint32) uint16 {
	n := len(l.buckets)
	if n == 0 || l.buckets[n-1].DayIndex < day {
		idx := uint16(n)
		l.buckets = append(l.buckets, Bucket{AmountWritten: amount, DayIndex: day})
		l.avail.insert(idx)
		return idx
	}

	idx := uint16(n - 1)
	l.buckets[idx].AmountWritten += amount
	l.avail.insert(idx)
	return idx
}
