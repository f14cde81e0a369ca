package ledger

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"options-clearinghouse/pkg/types"
)

// State is the full serializable form of an OptionLedger. The availability
// indices are persisted in their live order: the order is unstable but it
// feeds the assignment cursor, so a restored ledger must replay exactly like
// the original.
type State struct {
	Terms        types.OptionTerms `json:"terms"`
	Seed         common.Hash       `json:"seed"`
	NextClaimKey types.ClaimKey    `json:"next_claim_key"`

	Buckets   []Bucket     `json:"buckets"`
	Available []uint16     `json:"available"`
	Claims    []ClaimState `json:"claims"`

	UnderlyingHeld *big.Int `json:"underlying_held"`
	ExerciseHeld   *big.Int `json:"exercise_held"`
}

// ClaimState is the serializable form of one lot. Redeemed claims persist as
// tombstones so a reload cannot resurrect them.
type ClaimState struct {
	Key      types.ClaimKey `json:"key"`
	Entries  []ClaimIndex   `json:"entries,omitempty"`
	Redeemed bool           `json:"redeemed,omitempty"`
}

// Snapshot captures the ledger's complete state for persistence.
func (l *OptionLedger) Snapshot() State {
	st := State{
		Terms:          l.terms,
		Seed:           common.BytesToHash(l.seed[:]),
		NextClaimKey:   l.nextClaimKey,
		Buckets:        append([]Bucket(nil), l.buckets...),
		Available:      append([]uint16(nil), l.avail.indices...),
		UnderlyingHeld: new(big.Int).Set(l.underlyingHeld),
		ExerciseHeld:   new(big.Int).Set(l.exerciseHeld),
	}

	st.Claims = make([]ClaimState, 0, len(l.claims))
	for _, c := range l.claims {
		st.Claims = append(st.Claims, ClaimState{
			Key:      c.key,
			Entries:  append([]ClaimIndex(nil), c.entries...),
			Redeemed: c.redeemed,
		})
	}
	sort.Slice(st.Claims, func(i, j int) bool { return st.Claims[i].Key < st.Claims[j].Key })
	return st
}

// FromState rebuilds a ledger from a persisted snapshot.
func FromState(st State) (*OptionLedger, error) {
	if st.NextClaimKey == 0 {
		return nil, fmt.Errorf("restore ledger: corrupt state (zero claim counter)")
	}

	l := New(st.Terms)
	copy(l.seed[:], st.Seed[:])
	l.nextClaimKey = st.NextClaimKey
	l.buckets = append([]Bucket(nil), st.Buckets...)

	for _, idx := range st.Available {
		if int(idx) >= len(l.buckets) {
			return nil, fmt.Errorf("restore ledger %s: availability index %d out of range", l.key.Hex(), idx)
		}
		l.avail.insert(idx)
	}

	for _, cs := range st.Claims {
		c := &Claim{
			key:      cs.Key,
			entries:  append([]ClaimIndex(nil), cs.Entries...),
			redeemed: cs.Redeemed,
		}
		l.claims[c.key] = c
		if !c.redeemed {
			l.liveClaims++
		}
	}

	if st.UnderlyingHeld != nil {
		l.underlyingHeld.Set(st.UnderlyingHeld)
	}
	if st.ExerciseHeld != nil {
		l.exerciseHeld.Set(st.ExerciseHeld)
	}
	return l, nil
}
