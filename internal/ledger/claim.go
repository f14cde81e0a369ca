package ledger

import "options-clearinghouse/pkg/types"

// ClaimIndex records how many contracts a single lot contributed to one day
// bucket. A claim's entries are strictly increasing by BucketIndex: writing
// again into the currently-open bucket merges into the last entry instead of
// appending, and buckets are append-only, so an out-of-order index can never
// legitimately occur.
type ClaimIndex struct {
	BucketIndex uint16 `json:"bucket_index"`
	Amount      uint64 `json:"amount"`
}

// Claim is one writer lot: the bridge between a claim token and the buckets
// its collateral landed in. Redemption drains the entries and is terminal.
type Claim struct {
	key      types.ClaimKey
	entries  []ClaimIndex
	redeemed bool
}

// Key returns the claim's key within its option type.
func (c *Claim) Key() types.ClaimKey {
	return c.key
}

// Redeemed reports whether the claim has been drained by redemption.
func (c *Claim) Redeemed() bool {
	return c.redeemed
}

// AmountWritten is the lot's total contract count, summed over its entries.
func (c *Claim) AmountWritten() uint64 {
	var total uint64
	for _, e := range c.entries {
		total += e.Amount
	}
	return total
}

// record notes a contribution of amount contracts to the given bucket.
// Consecutive writes into the same open bucket merge into the last entry.
func (c *Claim) record(bucketIndex uint16, amount uint64) {
	if n := len(c.entries); n > 0 && c.entries[n-1].BucketIndex == bucketIndex {
		c.entries[n-1].Amount += amount
		return
	}
	c.entries = append(c.entries, ClaimIndex{BucketIndex: bucketIndex, Amount: amount})
}

// drain returns the claim's entries and permanently retires it. A drained
// claim has no entries and reports Redeemed; it can never be written to or
// redeemed again.
func (c *Claim) drain() []ClaimIndex {
	entries := c.entries
	c.entries = nil
	c.redeemed = true
	return entries
}
