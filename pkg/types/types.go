// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the clearinghouse — option terms,
// token identifiers, position views, and settlement event payloads. It has no
// dependencies on internal packages, so it can be imported by any layer.
package types

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ————————————————————————————————————————————————————————————————————————
// Identifiers
// ————————————————————————————————————————————————————————————————————————

// OptionKey identifies an option type. It is the low 20 bytes of the keccak
// hash of the type's immutable terms, so creating the same terms twice always
// resolves to the same key.
type OptionKey [20]byte

// Hex returns the key as a 0x-prefixed hex string.
func (k OptionKey) Hex() string {
	return "0x" + common.Bytes2Hex(k[:])
}

// MarshalText encodes the key as hex so JSON (including map keys) stays readable.
func (k OptionKey) MarshalText() ([]byte, error) {
	return []byte(k.Hex()), nil
}

// UnmarshalText decodes a 0x-prefixed hex key.
func (k *OptionKey) UnmarshalText(text []byte) error {
	h := common.FromHex(string(text))
	if len(h) != 20 {
		return fmt.Errorf("option key: want 20 bytes, got %d", len(h))
	}
	copy(k[:], h)
	return nil
}

// IsZero reports whether the key is all zeroes.
func (k OptionKey) IsZero() bool {
	return k == OptionKey{}
}

// ClaimKey identifies a lot claim within its option type. Zero is reserved
// for the fungible option token itself.
type ClaimKey uint64

// TokenID is the 256-bit public identifier for both token classes:
// the high 160 bits are the option key, the low 96 bits the claim key.
// A claim key of zero means the ID refers to the fungible option token.
type TokenID [32]byte

// EncodeTokenID packs an option key and claim key into a token ID.
func EncodeTokenID(opt OptionKey, claim ClaimKey) TokenID {
	var id TokenID
	copy(id[:20], opt[:])
	binary.BigEndian.PutUint64(id[24:], uint64(claim))
	return id
}

// DecodeTokenID splits a token ID into its option key and claim key.
func DecodeTokenID(id TokenID) (OptionKey, ClaimKey) {
	var opt OptionKey
	copy(opt[:], id[:20])
	return opt, ClaimKey(binary.BigEndian.Uint64(id[24:]))
}

// IsOption reports whether the ID refers to a fungible option token.
func (id TokenID) IsOption() bool {
	_, claim := DecodeTokenID(id)
	return claim == 0
}

// IsClaim reports whether the ID refers to a lot claim token.
func (id TokenID) IsClaim() bool {
	return !id.IsOption()
}

// Hex returns the ID as a 0x-prefixed hex string.
func (id TokenID) Hex() string {
	return "0x" + common.Bytes2Hex(id[:])
}

// MarshalText encodes the ID as hex for JSON payloads.
func (id TokenID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText decodes a 0x-prefixed hex token ID.
func (id *TokenID) UnmarshalText(text []byte) error {
	parsed, ok := ParseTokenID(string(text))
	if !ok {
		return fmt.Errorf("token id: malformed hex %q", string(text))
	}
	*id = parsed
	return nil
}

// ParseTokenID parses a 0x-prefixed 32-byte hex string into a TokenID.
func ParseTokenID(s string) (TokenID, bool) {
	h := common.FromHex(s)
	if len(h) != 32 {
		return TokenID{}, false
	}
	var id TokenID
	copy(id[:], h)
	return id, true
}

// ————————————————————————————————————————————————————————————————————————
// Option terms
// ————————————————————————————————————————————————————————————————————————

// OptionTerms is the immutable tuple defining a class of options. Every field
// participates in key derivation; nothing mutable may be added here.
type OptionTerms struct {
	UnderlyingAsset   common.Address `json:"underlying_asset"`
	UnderlyingAmount  uint64         `json:"underlying_amount"` // per contract
	ExerciseAsset     common.Address `json:"exercise_asset"`
	ExerciseAmount    uint64         `json:"exercise_amount"` // per contract
	ExerciseTimestamp int64          `json:"exercise_timestamp"`
	ExpiryTimestamp   int64          `json:"expiry_timestamp"`
}

// Key derives the option key from the immutable terms. The layout is a fixed
// 72-byte concatenation so identical terms always hash identically:
// underlying(20) ‖ exercise(20) ‖ uAmt(8) ‖ eAmt(8) ‖ exerciseTs(8) ‖ expiryTs(8).
func (t OptionTerms) Key() OptionKey {
	buf := make([]byte, 0, 72)
	buf = append(buf, t.UnderlyingAsset.Bytes()...)
	buf = append(buf, t.ExerciseAsset.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, t.UnderlyingAmount)
	buf = binary.BigEndian.AppendUint64(buf, t.ExerciseAmount)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.ExerciseTimestamp))
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.ExpiryTimestamp))
	hash := crypto.Keccak256(buf)

	var key OptionKey
	copy(key[:], hash[12:]) // low 160 bits of the keccak hash
	return key
}

// ExerciseWindow returns the span between exercise open and expiry.
func (t OptionTerms) ExerciseWindow() time.Duration {
	return time.Duration(t.ExpiryTimestamp-t.ExerciseTimestamp) * time.Second
}

// ————————————————————————————————————————————————————————————————————————
// Position views
// ————————————————————————————————————————————————————————————————————————

// Position is the contract-count split for a lot claim at query time.
// Exercised + Unexercised can fall short of Written by at most one contract
// per distinct day bucket the claim touches (floor rounding).
type Position struct {
	Written     uint64 `json:"written"`
	Exercised   uint64 `json:"exercised"`
	Unexercised uint64 `json:"unexercised"`
	Redeemed    bool   `json:"redeemed"`
}

// AssetAmounts pairs the two asset quantities owed or held for a position.
type AssetAmounts struct {
	UnderlyingAsset  common.Address `json:"underlying_asset"`
	UnderlyingAmount *big.Int       `json:"underlying_amount"`
	ExerciseAsset    common.Address `json:"exercise_asset"`
	ExerciseAmount   *big.Int       `json:"exercise_amount"`
}

// ————————————————————————————————————————————————————————————————————————
// Settlement events
// ————————————————————————————————————————————————————————————————————————
// Fire-and-forget notifications consumed by the dashboard and external
// indexers. Emission never blocks or fails a settlement operation.

// EventType discriminates settlement event payloads.
type EventType string

const (
	EventOptionTypeCreated EventType = "option_type_created"
	EventWritten           EventType = "written"
	EventExercised         EventType = "exercised"
	EventRedeemed          EventType = "redeemed"
	EventDustSwept         EventType = "dust_swept"
)

// Event is the envelope for all settlement events.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// OptionTypeCreatedEvent carries the full immutable term set of a new type.
type OptionTypeCreatedEvent struct {
	OptionID TokenID     `json:"option_id"`
	Terms    OptionTerms `json:"terms"`
}

// WrittenEvent is emitted for every write, whether it opened a new lot or
// added to an existing one.
type WrittenEvent struct {
	OptionID TokenID        `json:"option_id"`
	ClaimID  TokenID        `json:"claim_id"`
	Writer   common.Address `json:"writer"`
	Amount   uint64         `json:"amount"`
}

// ExercisedEvent is emitted after an exercise has been assigned to buckets.
type ExercisedEvent struct {
	OptionID  TokenID        `json:"option_id"`
	Exerciser common.Address `json:"exerciser"`
	Amount    uint64         `json:"amount"`
}

// RedeemedEvent reports the final asset split paid out for a retired claim.
type RedeemedEvent struct {
	ClaimID          TokenID        `json:"claim_id"`
	OptionID         TokenID        `json:"option_id"`
	Redeemer         common.Address `json:"redeemer"`
	ExerciseAmount   *big.Int       `json:"exercise_asset_amount"`
	UnderlyingAmount *big.Int       `json:"underlying_asset_amount"`
}

// DustSweptEvent reports rounding dust routed to the configured sink after
// every claim of an expired type has redeemed.
type DustSweptEvent struct {
	OptionID         TokenID        `json:"option_id"`
	Sink             common.Address `json:"sink"`
	ExerciseAmount   *big.Int       `json:"exercise_asset_amount"`
	UnderlyingAmount *big.Int       `json:"underlying_asset_amount"`
}
