// Package token provides the two balance-tracking collaborators the
// settlement core delegates to: an ERC-20-like asset ledger for collateral
// movement and an ERC-1155-like ownership ledger for the option and claim
// tokens themselves.
//
// The core treats both as external systems: every transfer either fully
// happens or fails with a typed error, and a failed transfer must leave
// balances untouched. The clearinghouse relies on that to run its undo
// journal (a rolled-back operation re-applies the inverse transfer).
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Asset-ledger failure modes. Callers branch on these with errors.Is.
var (
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// assetState holds one ERC-20-like asset's bookkeeping.
type assetState struct {
	decimals    int32
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	// allowances granted to the custodian, keyed by owner
	allowances map[common.Address]*big.Int
}

// AssetLedger is an in-memory ERC-20-like registry. The custodian address is
// the clearinghouse's own account: TransferIn pulls collateral from a writer
// into custody, TransferOut pays it back out.
type AssetLedger struct {
	mu        sync.RWMutex
	custodian common.Address
	assets    map[common.Address]*assetState
}

// NewAssetLedger creates an asset ledger with the given custody account.
func NewAssetLedger(custodian common.Address) *AssetLedger {
	return &AssetLedger{
		custodian: custodian,
		assets:    make(map[common.Address]*assetState),
	}
}

// Custodian returns the custody account address.
func (al *AssetLedger) Custodian() common.Address {
	return al.custodian
}

// Register adds an asset with its display decimals and mints the entire
// supply to the treasury address.
func (al *AssetLedger) Register(asset common.Address, decimals int32, supply *big.Int, treasury common.Address) {
	al.mu.Lock()
	defer al.mu.Unlock()

	st := &assetState{
		decimals:    decimals,
		totalSupply: new(big.Int).Set(supply),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]*big.Int),
	}
	st.balances[treasury] = new(big.Int).Set(supply)
	al.assets[asset] = st
}

// Registered reports whether the asset is known to the ledger.
func (al *AssetLedger) Registered(asset common.Address) bool {
	al.mu.RLock()
	defer al.mu.RUnlock()
	_, ok := al.assets[asset]
	return ok
}

// TotalSupply returns the asset's total supply, or nil if unknown.
func (al *AssetLedger) TotalSupply(asset common.Address) *big.Int {
	al.mu.RLock()
	defer al.mu.RUnlock()

	st, ok := al.assets[asset]
	if !ok {
		return nil
	}
	return new(big.Int).Set(st.totalSupply)
}

// Decimals returns the asset's display decimals (0 if unknown).
func (al *AssetLedger) Decimals(asset common.Address) int32 {
	al.mu.RLock()
	defer al.mu.RUnlock()

	st, ok := al.assets[asset]
	if !ok {
		return 0
	}
	return st.decimals
}

// BalanceOf returns the holder's balance (zero if unknown asset or holder).
func (al *AssetLedger) BalanceOf(asset, holder common.Address) *big.Int {
	al.mu.RLock()
	defer al.mu.RUnlock()

	st, ok := al.assets[asset]
	if !ok {
		return new(big.Int)
	}
	bal, ok := st.balances[holder]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

// Approve grants the custodian permission to pull up to amount from owner.
// Mirrors ERC-20 approve: the value replaces any prior allowance.
func (al *AssetLedger) Approve(asset, owner common.Address, amount *big.Int) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	st, ok := al.assets[asset]
	if !ok {
		return fmt.Errorf("approve %s: %w", asset.Hex(), ErrUnknownAsset)
	}
	st.allowances[owner] = new(big.Int).Set(amount)
	return nil
}

// TransferIn pulls amount of asset from the owner into custody, consuming
// allowance. All-or-nothing: on any failure balances are unchanged.
func (al *AssetLedger) TransferIn(asset, from common.Address, amount *big.Int) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	st, ok := al.assets[asset]
	if !ok {
		return fmt.Errorf("transfer in %s: %w", asset.Hex(), ErrUnknownAsset)
	}

	allowance := st.allowances[from]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("transfer in %s from %s: %w", asset.Hex(), from.Hex(), ErrInsufficientAllowance)
	}
	bal := st.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("transfer in %s from %s: %w", asset.Hex(), from.Hex(), ErrInsufficientBalance)
	}

	allowance.Sub(allowance, amount)
	bal.Sub(bal, amount)
	st.credit(al.custodian, amount)
	return nil
}

// TransferOut pays amount of asset from custody to the recipient.
func (al *AssetLedger) TransferOut(asset, to common.Address, amount *big.Int) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	st, ok := al.assets[asset]
	if !ok {
		return fmt.Errorf("transfer out %s: %w", asset.Hex(), ErrUnknownAsset)
	}
	bal := st.balances[al.custodian]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("transfer out %s to %s: %w", asset.Hex(), to.Hex(), ErrInsufficientBalance)
	}

	bal.Sub(bal, amount)
	st.credit(to, amount)
	return nil
}

// Revert is the compensating transfer used by the settlement journal to
// unwind a failed operation: it debits a payout recipient back into custody
// without an allowance. Not part of the normal transfer surface.
func (al *AssetLedger) Revert(asset, from common.Address, amount *big.Int) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	st, ok := al.assets[asset]
	if !ok {
		return fmt.Errorf("revert %s: %w", asset.Hex(), ErrUnknownAsset)
	}
	bal := st.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("revert %s from %s: %w", asset.Hex(), from.Hex(), ErrInsufficientBalance)
	}

	bal.Sub(bal, amount)
	st.credit(al.custodian, amount)
	return nil
}

func (st *assetState) credit(to common.Address, amount *big.Int) {
	if bal, ok := st.balances[to]; ok {
		bal.Add(bal, amount)
		return
	}
	st.balances[to] = new(big.Int).Set(amount)
}
