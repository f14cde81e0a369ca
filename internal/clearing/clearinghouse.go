// Package clearing is the settlement orchestrator. It owns one ledger
// aggregate per option type and exposes the public operations:
//
//  1. NewOptionType registers an immutable term set and derives its key.
//  2. Write locks underlying collateral and mints option + claim tokens,
//     bucketing the lot by calendar day.
//  3. Exercise swaps exercise collateral for underlying and assigns the
//     exercised amount across day buckets pseudorandomly.
//  4. Redeem retires a claim after expiry for its pro-rata collateral split.
//  5. SweepDust routes the rounding remainder of a fully-redeemed type to
//     the configured sink.
//
// Every operation validates fully before mutating, brackets its collaborator
// transfers in an undo journal, and serializes against other operations on
// the same option type via a per-type mutex. Operations on different types
// run fully in parallel.
package clearing

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"options-clearinghouse/internal/clock"
	"options-clearinghouse/internal/ledger"
	"options-clearinghouse/internal/token"
	"options-clearinghouse/pkg/types"
)

// Term policy: both the exercise window and the time from creation to expiry
// must span at least one day.
const (
	minExerciseWindow = clock.SecondsPerDay
	minTimeToExpiry   = clock.SecondsPerDay
)

// Persister saves a ledger snapshot after each mutating operation. The store
// package implements it; a nil persister disables persistence (tests).
type Persister interface {
	SaveLedger(key types.OptionKey, st ledger.State) error
}

// optionSlot pairs a ledger with the mutex serializing all operations
// against its option type.
type optionSlot struct {
	mu     sync.Mutex
	ledger *ledger.OptionLedger
}

// Clearinghouse coordinates the settlement core with its collaborators:
// the clock, the asset ledger holding collateral, the ownership ledger
// tracking option/claim tokens, and the optional persister.
type Clearinghouse struct {
	clk      clock.Clock
	assets   *token.AssetLedger
	tokens   *token.OwnershipLedger
	persist  Persister
	dustSink common.Address
	logger   *slog.Logger

	// slots maps option key → per-type state. The map itself is guarded by
	// slotsMu; each slot serializes its own operations.
	slots   map[types.OptionKey]*optionSlot
	slotsMu sync.RWMutex

	events chan types.Event
}

// New creates a clearinghouse. persist may be nil.
func New(clk clock.Clock, assets *token.AssetLedger, tokens *token.OwnershipLedger,
	persist Persister, dustSink common.Address, logger *slog.Logger) *Clearinghouse {
	return &Clearinghouse{
		clk:      clk,
		assets:   assets,
		tokens:   tokens,
		persist:  persist,
		dustSink: dustSink,
		logger:   logger.With("component", "clearing"),
		slots:    make(map[types.OptionKey]*optionSlot),
		events:   make(chan types.Event, 256),
	}
}

// Events returns the settlement event stream. Consumers must keep up;
// events are dropped (with a warning) rather than blocking settlement.
func (ch *Clearinghouse) Events() <-chan types.Event {
	return ch.events
}

// Restore installs a ledger recovered from persistence. Called during
// startup before any operations are accepted.
func (ch *Clearinghouse) Restore(l *ledger.OptionLedger) {
	ch.slotsMu.Lock()
	defer ch.slotsMu.Unlock()
	ch.slots[l.Key()] = &optionSlot{ledger: l}
}

// ————————————————————————————————————————————————————————————————————————
// NewOptionType
// ————————————————————————————————————————————————————————————————————————

// NewOptionType validates and registers a new option type, returning the ID
// of its fungible option token. The key derives from the immutable terms
// only, so re-creating identical terms fails with ErrOptionTypeExists.
func (ch *Clearinghouse) NewOptionType(terms types.OptionTerms) (types.TokenID, error) {
	if terms.UnderlyingAsset == terms.ExerciseAsset {
		return types.TokenID{}, fmt.Errorf("underlying equals exercise asset: %w", ErrInvalidAssetPair)
	}
	if err := ch.checkAssetPlausible(terms.UnderlyingAsset, terms.UnderlyingAmount); err != nil {
		return types.TokenID{}, err
	}
	if err := ch.checkAssetPlausible(terms.ExerciseAsset, terms.ExerciseAmount); err != nil {
		return types.TokenID{}, err
	}

	if terms.ExpiryTimestamp-terms.ExerciseTimestamp < minExerciseWindow {
		return types.TokenID{}, fmt.Errorf("exercise %d, expiry %d: %w",
			terms.ExerciseTimestamp, terms.ExpiryTimestamp, ErrExerciseWindowTooShort)
	}
	now := ch.clk.Now().Unix()
	if terms.ExpiryTimestamp-now < minTimeToExpiry {
		return types.TokenID{}, fmt.Errorf("expiry %d is under a day from now %d: %w",
			terms.ExpiryTimestamp, now, ErrExpiryWindowTooShort)
	}

	key := terms.Key()

	ch.slotsMu.Lock()
	if _, ok := ch.slots[key]; ok {
		ch.slotsMu.Unlock()
		return types.TokenID{}, fmt.Errorf("key %s: %w", key.Hex(), ErrOptionTypeExists)
	}
	slot := &optionSlot{ledger: ledger.New(terms)}
	ch.slots[key] = slot
	ch.slotsMu.Unlock()

	ch.saveLedger(slot.ledger)

	optionID := types.EncodeTokenID(key, 0)
	ch.emit(types.EventOptionTypeCreated, types.OptionTypeCreatedEvent{
		OptionID: optionID,
		Terms:    terms,
	})
	ch.logger.Info("option type created",
		"option", optionID.Hex(),
		"underlying", terms.UnderlyingAsset.Hex(),
		"exercise", terms.ExerciseAsset.Hex(),
		"expiry", terms.ExpiryTimestamp,
	)
	return optionID, nil
}

// checkAssetPlausible rejects unregistered assets and per-contract amounts
// exceeding the asset's entire supply (a single contract could never be
// collateralized or exercised).
func (ch *Clearinghouse) checkAssetPlausible(asset common.Address, perContract uint64) error {
	supply := ch.assets.TotalSupply(asset)
	if supply == nil {
		return fmt.Errorf("asset %s not registered: %w", asset.Hex(), ErrInvalidAssetPair)
	}
	if supply.Cmp(new(big.Int).SetUint64(perContract)) < 0 {
		return fmt.Errorf("asset %s supply below per-contract amount %d: %w",
			asset.Hex(), perContract, ErrInvalidAssetPair)
	}
	return nil
}

// ————————————————————————————————————————————————————————————————————————
// Write
// ————————————————————————————————————————————————————————————————————————

// Write locks amount × underlyingAmount collateral from the actor and mints
// amount option tokens. If id is the option token, a fresh lot (claim) is
// opened and its claim token minted to the actor; if id is an existing claim
// token owned by the actor, the lot is extended. Returns the claim ID.
func (ch *Clearinghouse) Write(actor common.Address, id types.TokenID, amount uint64) (types.TokenID, error) {
	if amount == 0 {
		return types.TokenID{}, fmt.Errorf("write: %w", ErrZeroAmount)
	}

	key, claimKey := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.TokenID{}, fmt.Errorf("write %s: %w", id.Hex(), ErrUnknownOptionType)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	l := slot.ledger
	now := ch.clk.Now()
	if now.Unix() >= l.Terms().ExpiryTimestamp {
		return types.TokenID{}, fmt.Errorf("write %s: %w", id.Hex(), ErrOptionTypeExpired)
	}

	if claimKey != 0 {
		owner, ok := ch.tokens.OwnerOf(id)
		if !ok {
			return types.TokenID{}, fmt.Errorf("write %s: %w", id.Hex(), ErrTokenNotFound)
		}
		if owner != actor {
			return types.TokenID{}, fmt.Errorf("write %s by %s: %w", id.Hex(), actor.Hex(), ErrNotClaimOwner)
		}
	}

	terms := l.Terms()
	cost := assetQuantity(amount, terms.UnderlyingAmount)

	var j journal
	if err := ch.assets.TransferIn(terms.UnderlyingAsset, actor, cost); err != nil {
		return types.TokenID{}, fmt.Errorf("write collateral: %w", err)
	}
	j.record(func() error {
		return ch.assets.TransferOut(terms.UnderlyingAsset, actor, cost)
	})

	newKey, err := l.Write(claimKey, amount, clock.DayIndex(now))
	if err != nil {
		// Pre-validated; reaching here means the ownership ledger and the
		// settlement ledger disagree about this claim.
		j.rollback(ch.logger)
		return types.TokenID{}, fmt.Errorf("write %s: %w", id.Hex(), err)
	}

	optionID := types.EncodeTokenID(key, 0)
	claimID := types.EncodeTokenID(key, newKey)
	ch.tokens.Mint(optionID, actor, amount)
	if claimKey == 0 {
		ch.tokens.Mint(claimID, actor, 1)
	}
	j.commit()

	ch.saveLedger(l)
	ch.emit(types.EventWritten, types.WrittenEvent{
		OptionID: optionID,
		ClaimID:  claimID,
		Writer:   actor,
		Amount:   amount,
	})
	ch.logger.Info("options written",
		"option", optionID.Hex(), "claim", claimID.Hex(),
		"writer", actor.Hex(), "amount", amount,
	)
	return claimID, nil
}

// ————————————————————————————————————————————————————————————————————————
// Exercise
// ————————————————————————————————————————————————————————————————————————

// Exercise burns amount option tokens from the actor, pulls the exercise
// collateral in, pays the underlying out, and assigns the amount across
// outstanding day buckets.
func (ch *Clearinghouse) Exercise(actor common.Address, id types.TokenID, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("exercise: %w", ErrZeroAmount)
	}
	if !id.IsOption() {
		return fmt.Errorf("exercise %s: %w", id.Hex(), ErrNotAnOption)
	}

	key, _ := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return fmt.Errorf("exercise %s: %w", id.Hex(), ErrUnknownOptionType)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	l := slot.ledger
	terms := l.Terms()
	now := ch.clk.Now().Unix()
	if now >= terms.ExpiryTimestamp {
		return fmt.Errorf("exercise %s: %w", id.Hex(), ErrOptionTypeExpired)
	}
	if now < terms.ExerciseTimestamp {
		return fmt.Errorf("exercise %s opens at %d: %w", id.Hex(), terms.ExerciseTimestamp, ErrExerciseNotOpen)
	}
	if ch.tokens.BalanceOf(id, actor) < amount {
		return fmt.Errorf("exercise %s amount %d: %w", id.Hex(), amount, ErrInsufficientOptions)
	}

	cost := assetQuantity(amount, terms.ExerciseAmount)
	payout := assetQuantity(amount, terms.UnderlyingAmount)

	var j journal
	if err := ch.assets.TransferIn(terms.ExerciseAsset, actor, cost); err != nil {
		return fmt.Errorf("exercise collateral: %w", err)
	}
	j.record(func() error {
		return ch.assets.TransferOut(terms.ExerciseAsset, actor, cost)
	})

	if err := ch.assets.TransferOut(terms.UnderlyingAsset, actor, payout); err != nil {
		j.rollback(ch.logger)
		return fmt.Errorf("exercise payout: %w", err)
	}
	j.record(func() error {
		return ch.assets.Revert(terms.UnderlyingAsset, actor, payout)
	})

	if err := ch.tokens.Burn(id, actor, amount); err != nil {
		j.rollback(ch.logger)
		return fmt.Errorf("exercise burn: %w", err)
	}
	j.record(func() error {
		ch.tokens.Mint(id, actor, amount)
		return nil
	})

	if err := l.Exercise(amount); err != nil {
		// Outstanding supply is the option token supply, which we just
		// checked covers amount; running out of bucket capacity here is an
		// accounting defect, not a user error.
		j.rollback(ch.logger)
		ch.logger.Error("assignment capacity exhausted", "option", id.Hex(), "amount", amount, "error", err)
		return fmt.Errorf("exercise %s: %w", id.Hex(), err)
	}
	j.commit()

	ch.saveLedger(l)
	ch.emit(types.EventExercised, types.ExercisedEvent{
		OptionID:  id,
		Exerciser: actor,
		Amount:    amount,
	})
	ch.logger.Info("options exercised", "option", id.Hex(), "exerciser", actor.Hex(), "amount", amount)
	return nil
}

// ————————————————————————————————————————————————————————————————————————
// Redeem
// ————————————————————————————————————————————————————————————————————————

// Redeem retires the actor's claim after expiry, paying out the unexercised
// share in the underlying asset and the exercised share in the exercise
// asset. Terminal: the claim token is burned and its indices drained, so a
// second redeem fails.
func (ch *Clearinghouse) Redeem(actor common.Address, id types.TokenID) (types.AssetAmounts, error) {
	if !id.IsClaim() {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s: %w", id.Hex(), ErrNotAClaim)
	}

	key, claimKey := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s: %w", id.Hex(), ErrTokenNotFound)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	l := slot.ledger
	owner, ok := ch.tokens.OwnerOf(id)
	if !ok {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s: %w", id.Hex(), ErrTokenNotFound)
	}
	if owner != actor {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s by %s: %w", id.Hex(), actor.Hex(), ErrNotClaimOwner)
	}

	terms := l.Terms()
	if ch.clk.Now().Unix() < terms.ExpiryTimestamp {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s before expiry %d: %w",
			id.Hex(), terms.ExpiryTimestamp, ErrClaimNotRedeemable)
	}

	pos, err := l.Position(claimKey)
	if err != nil {
		return types.AssetAmounts{}, fmt.Errorf("redeem %s: %w", id.Hex(), err)
	}
	underlying := assetQuantity(pos.Unexercised, terms.UnderlyingAmount)
	exercise := assetQuantity(pos.Exercised, terms.ExerciseAmount)

	var j journal
	if err := ch.tokens.Burn(id, actor, 1); err != nil {
		return types.AssetAmounts{}, fmt.Errorf("redeem burn: %w", err)
	}
	j.record(func() error {
		ch.tokens.Mint(id, actor, 1)
		return nil
	})

	if underlying.Sign() > 0 {
		if err := ch.assets.TransferOut(terms.UnderlyingAsset, actor, underlying); err != nil {
			j.rollback(ch.logger)
			return types.AssetAmounts{}, fmt.Errorf("redeem underlying payout: %w", err)
		}
		j.record(func() error {
			return ch.assets.Revert(terms.UnderlyingAsset, actor, underlying)
		})
	}
	if exercise.Sign() > 0 {
		if err := ch.assets.TransferOut(terms.ExerciseAsset, actor, exercise); err != nil {
			j.rollback(ch.logger)
			return types.AssetAmounts{}, fmt.Errorf("redeem exercise payout: %w", err)
		}
		j.record(func() error {
			return ch.assets.Revert(terms.ExerciseAsset, actor, exercise)
		})
	}

	// State drain last: nothing after this point can fail.
	if _, _, err := l.Redeem(claimKey); err != nil {
		j.rollback(ch.logger)
		return types.AssetAmounts{}, fmt.Errorf("redeem %s: %w", id.Hex(), err)
	}
	j.commit()

	ch.saveLedger(l)
	ch.emit(types.EventRedeemed, types.RedeemedEvent{
		ClaimID:          id,
		OptionID:         types.EncodeTokenID(key, 0),
		Redeemer:         actor,
		ExerciseAmount:   exercise,
		UnderlyingAmount: underlying,
	})
	ch.logger.Info("claim redeemed",
		"claim", id.Hex(), "redeemer", actor.Hex(),
		"underlying_paid", underlying, "exercise_paid", exercise,
	)
	return types.AssetAmounts{
		UnderlyingAsset:  terms.UnderlyingAsset,
		UnderlyingAmount: underlying,
		ExerciseAsset:    terms.ExerciseAsset,
		ExerciseAmount:   exercise,
	}, nil
}

// ————————————————————————————————————————————————————————————————————————
// Dust
// ————————————————————————————————————————————————————————————————————————

// SweepDust routes the rounding remainder of an expired, fully-redeemed
// option type to the configured dust sink. Floor-rounded pro-rata splits can
// strand up to one contract's collateral per claim-touched bucket; once the
// last claim redeems, whatever custody remains for the type is exactly that
// dust.
func (ch *Clearinghouse) SweepDust(id types.TokenID) (types.AssetAmounts, error) {
	if !id.IsOption() {
		return types.AssetAmounts{}, fmt.Errorf("sweep %s: %w", id.Hex(), ErrNotAnOption)
	}
	key, _ := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.AssetAmounts{}, fmt.Errorf("sweep %s: %w", id.Hex(), ErrUnknownOptionType)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	l := slot.ledger
	terms := l.Terms()
	if ch.clk.Now().Unix() < terms.ExpiryTimestamp {
		return types.AssetAmounts{}, fmt.Errorf("sweep %s before expiry: %w", id.Hex(), ErrDustNotReady)
	}
	if !l.DustReady() {
		return types.AssetAmounts{}, fmt.Errorf("sweep %s: %w", id.Hex(), ErrDustNotReady)
	}

	underlying, exercise := l.CustodyHeld()

	var j journal
	if underlying.Sign() > 0 {
		if err := ch.assets.TransferOut(terms.UnderlyingAsset, ch.dustSink, underlying); err != nil {
			return types.AssetAmounts{}, fmt.Errorf("sweep underlying: %w", err)
		}
		j.record(func() error {
			return ch.assets.Revert(terms.UnderlyingAsset, ch.dustSink, underlying)
		})
	}
	if exercise.Sign() > 0 {
		if err := ch.assets.TransferOut(terms.ExerciseAsset, ch.dustSink, exercise); err != nil {
			j.rollback(ch.logger)
			return types.AssetAmounts{}, fmt.Errorf("sweep exercise: %w", err)
		}
	}
	l.SweepDust()
	j.commit()

	ch.saveLedger(l)
	ch.emit(types.EventDustSwept, types.DustSweptEvent{
		OptionID:         id,
		Sink:             ch.dustSink,
		ExerciseAmount:   exercise,
		UnderlyingAmount: underlying,
	})
	ch.logger.Info("dust swept", "option", id.Hex(), "underlying", underlying, "exercise", exercise)
	return types.AssetAmounts{
		UnderlyingAsset:  terms.UnderlyingAsset,
		UnderlyingAmount: underlying,
		ExerciseAsset:    terms.ExerciseAsset,
		ExerciseAmount:   exercise,
	}, nil
}

// ————————————————————————————————————————————————————————————————————————
// Queries
// ————————————————————————————————————————————————————————————————————————

// Option returns the immutable terms behind any option or claim token ID.
func (ch *Clearinghouse) Option(id types.TokenID) (types.OptionTerms, error) {
	key, _ := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.OptionTerms{}, fmt.Errorf("option %s: %w", id.Hex(), ErrTokenNotFound)
	}
	return slot.ledger.Terms(), nil
}

// Position returns the live contract-count split for a claim token.
func (ch *Clearinghouse) Position(id types.TokenID) (types.Position, error) {
	if !id.IsClaim() {
		return types.Position{}, fmt.Errorf("position %s: %w", id.Hex(), ErrNotAClaim)
	}
	key, claimKey := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.Position{}, fmt.Errorf("position %s: %w", id.Hex(), ErrTokenNotFound)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	pos, err := slot.ledger.Position(claimKey)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownClaim) {
			return types.Position{}, fmt.Errorf("position %s: %w", id.Hex(), ErrTokenNotFound)
		}
		return types.Position{}, err
	}
	return pos, nil
}

// Underlying returns the asset quantities a token ID currently represents:
// per-contract amounts for an option token, the live redeemable split for a
// claim token.
func (ch *Clearinghouse) Underlying(id types.TokenID) (types.AssetAmounts, error) {
	key, claimKey := types.DecodeTokenID(id)
	slot, ok := ch.slot(key)
	if !ok {
		return types.AssetAmounts{}, fmt.Errorf("underlying %s: %w", id.Hex(), ErrTokenNotFound)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	terms := slot.ledger.Terms()
	if claimKey == 0 {
		return types.AssetAmounts{
			UnderlyingAsset:  terms.UnderlyingAsset,
			UnderlyingAmount: new(big.Int).SetUint64(terms.UnderlyingAmount),
			ExerciseAsset:    terms.ExerciseAsset,
			ExerciseAmount:   new(big.Int).SetUint64(terms.ExerciseAmount),
		}, nil
	}

	pos, err := slot.ledger.Position(claimKey)
	if err != nil {
		return types.AssetAmounts{}, fmt.Errorf("underlying %s: %w", id.Hex(), ErrTokenNotFound)
	}
	return types.AssetAmounts{
		UnderlyingAsset:  terms.UnderlyingAsset,
		UnderlyingAmount: assetQuantity(pos.Unexercised, terms.UnderlyingAmount),
		ExerciseAsset:    terms.ExerciseAsset,
		ExerciseAmount:   assetQuantity(pos.Exercised, terms.ExerciseAmount),
	}, nil
}

// TypeStatus is the per-option-type view served to the dashboard.
type TypeStatus struct {
	OptionID         types.TokenID
	Terms            types.OptionTerms
	BucketCount      int
	AvailableBuckets int
	TotalWritten     uint64
	TotalExercised   uint64
	ClaimsTotal      int
	ClaimsLive       int
	UnderlyingHeld   *big.Int
	ExerciseHeld     *big.Int
	DustReady        bool
}

// TypeStatuses snapshots every registered option type.
func (ch *Clearinghouse) TypeStatuses() []TypeStatus {
	ch.slotsMu.RLock()
	slots := make([]*optionSlot, 0, len(ch.slots))
	for _, s := range ch.slots {
		slots = append(slots, s)
	}
	ch.slotsMu.RUnlock()

	statuses := make([]TypeStatus, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		l := s.ledger
		total, live := l.ClaimCount()
		u, e := l.CustodyHeld()
		statuses = append(statuses, TypeStatus{
			OptionID:         types.EncodeTokenID(l.Key(), 0),
			Terms:            l.Terms(),
			BucketCount:      l.BucketCount(),
			AvailableBuckets: l.AvailableBuckets(),
			TotalWritten:     l.TotalWritten(),
			TotalExercised:   l.TotalExercised(),
			ClaimsTotal:      total,
			ClaimsLive:       live,
			UnderlyingHeld:   u,
			ExerciseHeld:     e,
			DustReady:        l.DustReady(),
		})
		s.mu.Unlock()
	}
	return statuses
}

// ————————————————————————————————————————————————————————————————————————
// Internals
// ————————————————————————————————————————————————————————————————————————

func (ch *Clearinghouse) slot(key types.OptionKey) (*optionSlot, bool) {
	ch.slotsMu.RLock()
	defer ch.slotsMu.RUnlock()
	s, ok := ch.slots[key]
	return s, ok
}

// saveLedger persists the ledger snapshot. Persistence failures are logged
// and do not fail the settlement operation; the in-memory state remains
// authoritative.
func (ch *Clearinghouse) saveLedger(l *ledger.OptionLedger) {
	if ch.persist == nil {
		return
	}
	if err := ch.persist.SaveLedger(l.Key(), l.Snapshot()); err != nil {
		ch.logger.Error("failed to persist ledger", "option", l.Key().Hex(), "error", err)
	}
}

// emit publishes an event without blocking; a full buffer drops the event.
func (ch *Clearinghouse) emit(kind types.EventType, data interface{}) {
	evt := types.Event{Type: kind, Timestamp: ch.clk.Now(), Data: data}
	select {
	case ch.events <- evt:
	default:
		ch.logger.Warn("event buffer full, dropping event", "type", string(kind))
	}
}

func assetQuantity(contracts, perContract uint64) *big.Int {
	q := new(big.Int).SetUint64(contracts)
	return q.Mul(q, new(big.Int).SetUint64(perContract))
}

// ExpiresAt reports the expiry instant for a token's option type.
func (ch *Clearinghouse) ExpiresAt(id types.TokenID) (time.Time, error) {
	terms, err := ch.Option(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(terms.ExpiryTimestamp, 0), nil
}
