package ledger

import (
	"fmt"
	"math/bits"

	"options-clearinghouse/pkg/types"
)

// Position returns the contract-count split for a claim at the current
// moment. Valid at any time, not just at redemption; a redeemed claim
// reports zero shares and Redeemed true.
func (l *OptionLedger) Position(key types.ClaimKey) (types.Position, error) {
	c, ok := l.claims[key]
	if !ok {
		return types.Position{}, fmt.Errorf("position of claim %d: %w", key, ErrUnknownClaim)
	}
	if c.redeemed {
		return types.Position{Redeemed: true}, nil
	}
	return l.position(c), nil
}

// position computes the pro-rata split of a live claim: for each bucket the
// claim touched, the claim absorbs the bucket's exercise assignment in
// proportion to its contribution, floor-rounded. Exercised + Unexercised can
// fall short of Written by at most one contract per touched bucket; the
// shortfall is the rounding dust tracked by the custody totals.
func (l *OptionLedger) position(c *Claim) types.Position {
	var pos types.Position
	for _, e := range c.entries {
		b := l.buckets[e.BucketIndex]
		pos.Written += e.Amount
		pos.Exercised += proRata(b.AmountExercised, e.Amount, b.AmountWritten)
		pos.Unexercised += proRata(b.AmountWritten-b.AmountExercised, e.Amount, b.AmountWritten)
	}
	return pos
}

// proRata computes floor(part × contribution / whole) with a 128-bit
// intermediate so the product cannot overflow. part ≤ whole always holds
// here, which bounds the quotient by contribution and keeps Div64 safe
// (the high word of the product is strictly less than whole).
func proRata(part, contribution, whole uint64) uint64 {
	hi, lo := bits.Mul64(part, contribution)
	q, _ := bits.Div64(hi, lo, whole)
	return q
}
