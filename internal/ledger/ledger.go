// Package ledger implements the settlement core for one option type: the
// day-bucket sequence, the availability set, per-lot claim indices, the
// pseudorandom exercise-assignment engine, and the pro-rata position
// calculator.
//
// Writing aggregates lots into day-granularity buckets so exercising never
// iterates every lot ever written; assignment consumes bucket capacity
// starting from a seed-derived cursor so no writer is structurally favored by
// submission order; and positions are computed as floor-rounded pro-rata
// shares of each touched bucket.
//
// An OptionLedger has no internal locking. Every mutating call against the
// same option type must be serialized by the caller (the clearinghouse holds
// one mutex per option type); ledgers for different types are fully
// independent.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"options-clearinghouse/pkg/types"
)

// Core failure modes. ErrCapacityExhausted is defect-class: it means the
// caller tried to assign more than the globally outstanding supply, which
// upstream balance checks are supposed to make impossible.
var (
	ErrUnknownClaim      = errors.New("unknown claim")
	ErrClaimRedeemed     = errors.New("claim already redeemed")
	ErrCapacityExhausted = errors.New("assignment capacity exhausted")
)

// OptionLedger is the owned aggregate of all mutable settlement state for a
// single option type: bucket sequence, availability set, claim indices, the
// evolving settlement seed, and exact custody totals used for dust accounting.
type OptionLedger struct {
	terms types.OptionTerms
	key   types.OptionKey

	seed         [32]byte
	nextClaimKey types.ClaimKey

	buckets []Bucket
	avail   availabilitySet
	claims  map[types.ClaimKey]*Claim

	// Live (not yet redeemed) claim count; zero with claims present means
	// every lot has been retired and custody remainder is rounding dust.
	liveClaims int

	// Exact custodied balances in asset units. Writes add underlying;
	// exercises swap underlying out for exercise asset; redemptions pay
	// both sides down. What remains after the last redemption is dust.
	underlyingHeld *big.Int
	exerciseHeld   *big.Int
}

// New creates the settlement ledger for an option type. The settlement seed
// starts from the type's own key, so assignment order is deterministic per
// type from genesis but uncorrelated across types.
func New(terms types.OptionTerms) *OptionLedger {
	key := terms.Key()
	var seed [32]byte
	copy(seed[:], crypto.Keccak256(key[:]))

	return &OptionLedger{
		terms:          terms,
		key:            key,
		seed:           seed,
		nextClaimKey:   1,
		avail:          newAvailabilitySet(),
		claims:         make(map[types.ClaimKey]*Claim),
		underlyingHeld: new(big.Int),
		exerciseHeld:   new(big.Int),
	}
}

// Terms returns the immutable contract terms.
func (l *OptionLedger) Terms() types.OptionTerms {
	return l.terms
}

// Key returns the option type's identity key.
func (l *OptionLedger) Key() types.OptionKey {
	return l.key
}

// BucketCount returns the number of day buckets opened so far.
func (l *OptionLedger) BucketCount() int {
	return len(l.buckets)
}

// BucketAt returns a copy of the bucket at the given index.
func (l *OptionLedger) BucketAt(idx uint16) (Bucket, bool) {
	if int(idx) >= len(l.buckets) {
		return Bucket{}, false
	}
	return l.buckets[idx], true
}

// AvailableBuckets returns how many buckets currently have spare capacity.
func (l *OptionLedger) AvailableBuckets() int {
	return l.avail.len()
}

// TotalWritten returns the all-time contract count written across buckets.
func (l *OptionLedger) TotalWritten() uint64 {
	var total uint64
	for _, b := range l.buckets {
		total += b.AmountWritten
	}
	return total
}

// TotalExercised returns the all-time contract count assigned across buckets.
func (l *OptionLedger) TotalExercised() uint64 {
	var total uint64
	for _, b := range l.buckets {
		total += b.AmountExercised
	}
	return total
}

// ClaimCount returns (total, live) claim counts for the type.
func (l *OptionLedger) ClaimCount() (total, live int) {
	return len(l.claims), l.liveClaims
}

// HasClaim reports whether the claim key exists (redeemed or not).
func (l *OptionLedger) HasClaim(key types.ClaimKey) bool {
	_, ok := l.claims[key]
	return ok
}

// ClaimRedeemed reports whether the claim exists and has been redeemed.
func (l *OptionLedger) ClaimRedeemed(key types.ClaimKey) (bool, error) {
	c, ok := l.claims[key]
	if !ok {
		return false, fmt.Errorf("claim %d: %w", key, ErrUnknownClaim)
	}
	return c.redeemed, nil
}

// CustodyHeld returns copies of the custodied asset totals
// (underlying, exercise).
func (l *OptionLedger) CustodyHeld() (underlying, exercise *big.Int) {
	return new(big.Int).Set(l.underlyingHeld), new(big.Int).Set(l.exerciseHeld)
}

// Write records amount contracts written on the given day against the claim
// identified by key, or against a freshly allocated claim when key is zero.
// It returns the claim key the lot landed on. Writing to a redeemed or
// unknown claim fails without mutating state; amount validation (non-zero,
// pre-expiry, ownership) is the caller's responsibility.
func (l *OptionLedger) Write(key types.ClaimKey, amount uint64, day uint32) (types.ClaimKey, error) {
	var c *Claim
	if key == 0 {
		c = &Claim{key: l.nextClaimKey}
		l.nextClaimKey++
		l.claims[c.key] = c
		l.liveClaims++
	} else {
		existing, ok := l.claims[key]
		if !ok {
			return 0, fmt.Errorf("write to claim %d: %w", key, ErrUnknownClaim)
		}
		if existing.redeemed {
			return 0, fmt.Errorf("write to claim %d: %w", key, ErrClaimRedeemed)
		}
		c = existing
	}

	bucketIdx := l.recordWrite(amount, day)
	c.record(bucketIdx, amount)

	l.underlyingHeld.Add(l.underlyingHeld, assetQuantity(amount, l.terms.UnderlyingAmount))
	return c.key, nil
}

// Exercise assigns amount contracts across available buckets (see assign.go)
// and moves the custody totals: the exercise asset comes in, the underlying
// goes out. Returns ErrCapacityExhausted without mutating anything if the
// outstanding spare capacity cannot cover amount.
func (l *OptionLedger) Exercise(amount uint64) error {
	if err := l.assign(amount); err != nil {
		return err
	}

	l.exerciseHeld.Add(l.exerciseHeld, assetQuantity(amount, l.terms.ExerciseAmount))
	l.underlyingHeld.Sub(l.underlyingHeld, assetQuantity(amount, l.terms.UnderlyingAmount))
	return nil
}

// Redeem drains the claim and returns the asset quantities owed to its
// holder: unexercised share in the underlying asset, exercised share in the
// exercise asset. The claim is permanently retired; a second call fails with
// ErrClaimRedeemed. Expiry gating is the caller's responsibility.
func (l *OptionLedger) Redeem(key types.ClaimKey) (underlying, exercise *big.Int, err error) {
	c, ok := l.claims[key]
	if !ok {
		return nil, nil, fmt.Errorf("redeem claim %d: %w", key, ErrUnknownClaim)
	}
	if c.redeemed {
		return nil, nil, fmt.Errorf("redeem claim %d: %w", key, ErrClaimRedeemed)
	}

	pos := l.position(c)
	underlying = assetQuantity(pos.Unexercised, l.terms.UnderlyingAmount)
	exercise = assetQuantity(pos.Exercised, l.terms.ExerciseAmount)

	c.drain()
	l.liveClaims--
	l.underlyingHeld.Sub(l.underlyingHeld, underlying)
	l.exerciseHeld.Sub(l.exerciseHeld, exercise)
	return underlying, exercise, nil
}

// DustReady reports whether rounding dust can be swept: at least one claim
// was ever written and every claim has been redeemed.
func (l *OptionLedger) DustReady() bool {
	return len(l.claims) > 0 && l.liveClaims == 0
}

// SweepDust zeroes and returns the custody remainder. Only meaningful once
// DustReady; callers gate on that plus type expiry.
func (l *OptionLedger) SweepDust() (underlying, exercise *big.Int) {
	underlying = l.underlyingHeld
	exercise = l.exerciseHeld
	l.underlyingHeld = new(big.Int)
	l.exerciseHeld = new(big.Int)
	return underlying, exercise
}

// assetQuantity converts a contract count to an asset quantity at the given
// per-contract amount.
func assetQuantity(contracts, perContract uint64) *big.Int {
	q := new(big.Int).SetUint64(contracts)
	return q.Mul(q, new(big.Int).SetUint64(perContract))
}

// seedCursor derives the starting cursor for an assignment pass from the low
// 64 bits of the settlement seed.
func (l *OptionLedger) seedCursor(n int) int {
	return int(binary.BigEndian.Uint64(l.seed[24:]) % uint64(n))
}

// advanceSeed folds the final cursor of an assignment pass into the
// settlement seed, making the next pass's start depend on all prior exercise
// activity. Pure keccak mixing: no hidden entropy, fully replayable.
func (l *OptionLedger) advanceSeed(cursor int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(cursor))
	copy(l.seed[:], crypto.Keccak256(l.seed[:], buf[:]))
}
