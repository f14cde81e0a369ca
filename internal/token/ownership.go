package token

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"options-clearinghouse/pkg/types"
)

// OwnershipLedger tracks balances of the fungible option tokens and the
// non-fungible claim tokens, ERC-1155 style: one balance map per token ID.
// The settlement core signals mint/burn on write, exercise, and redeem but
// never stores balances itself.
type OwnershipLedger struct {
	mu       sync.RWMutex
	balances map[types.TokenID]map[common.Address]uint64
	supply   map[types.TokenID]uint64
}

// NewOwnershipLedger creates an empty ownership ledger.
func NewOwnershipLedger() *OwnershipLedger {
	return &OwnershipLedger{
		balances: make(map[types.TokenID]map[common.Address]uint64),
		supply:   make(map[types.TokenID]uint64),
	}
}

// Mint credits amount of the token to the holder.
func (ol *OwnershipLedger) Mint(id types.TokenID, to common.Address, amount uint64) {
	ol.mu.Lock()
	defer ol.mu.Unlock()

	holders, ok := ol.balances[id]
	if !ok {
		holders = make(map[common.Address]uint64)
		ol.balances[id] = holders
	}
	holders[to] += amount
	ol.supply[id] += amount
}

// Burn debits amount of the token from the holder. Fails without mutating
// state if the holder's balance is short.
func (ol *OwnershipLedger) Burn(id types.TokenID, from common.Address, amount uint64) error {
	ol.mu.Lock()
	defer ol.mu.Unlock()

	holders := ol.balances[id]
	if holders == nil || holders[from] < amount {
		return fmt.Errorf("burn %s from %s: %w", id.Hex(), from.Hex(), ErrInsufficientBalance)
	}
	holders[from] -= amount
	if holders[from] == 0 {
		delete(holders, from)
	}
	ol.supply[id] -= amount
	return nil
}

// BalanceOf returns the holder's balance of the token.
func (ol *OwnershipLedger) BalanceOf(id types.TokenID, holder common.Address) uint64 {
	ol.mu.RLock()
	defer ol.mu.RUnlock()
	return ol.balances[id][holder]
}

// TotalSupply returns the outstanding amount of the token.
func (ol *OwnershipLedger) TotalSupply(id types.TokenID) uint64 {
	ol.mu.RLock()
	defer ol.mu.RUnlock()
	return ol.supply[id]
}

// OwnerOf returns the sole holder of a non-fungible claim token, if any.
// Claim tokens always have supply 0 or 1.
func (ol *OwnershipLedger) OwnerOf(id types.TokenID) (common.Address, bool) {
	ol.mu.RLock()
	defer ol.mu.RUnlock()

	for holder, bal := range ol.balances[id] {
		if bal > 0 {
			return holder, true
		}
	}
	return common.Address{}, false
}
