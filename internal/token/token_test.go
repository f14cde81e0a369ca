package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"options-clearinghouse/pkg/types"
)

var (
	custody  = common.HexToAddress("0xC000000000000000000000000000000000000000")
	treasury = common.HexToAddress("0xBEEF000000000000000000000000000000000000")
	usdc     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	alice    = common.HexToAddress("0xA11C000000000000000000000000000000000000")
)

func newTestAssetLedger(t *testing.T) *AssetLedger {
	t.Helper()
	al := NewAssetLedger(custody)
	al.Register(usdc, 6, big.NewInt(1_000_000), treasury)
	return al
}

func TestTransferInRequiresAllowance(t *testing.T) {
	t.Parallel()
	al := newTestAssetLedger(t)

	err := al.TransferIn(usdc, treasury, big.NewInt(100))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("err = %v, want ErrInsufficientAllowance", err)
	}

	if err := al.Approve(usdc, treasury, big.NewInt(100)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := al.TransferIn(usdc, treasury, big.NewInt(100)); err != nil {
		t.Fatalf("TransferIn: %v", err)
	}

	if got := al.BalanceOf(usdc, custody); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("custody balance = %v, want 100", got)
	}
	if got := al.BalanceOf(usdc, treasury); got.Cmp(big.NewInt(999_900)) != 0 {
		t.Errorf("treasury balance = %v, want 999900", got)
	}

	// Allowance was consumed
	err = al.TransferIn(usdc, treasury, big.NewInt(1))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("err after allowance spent = %v, want ErrInsufficientAllowance", err)
	}
}

func TestTransferInInsufficientBalance(t *testing.T) {
	t.Parallel()
	al := newTestAssetLedger(t)

	if err := al.Approve(usdc, alice, big.NewInt(500)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	err := al.TransferIn(usdc, alice, big.NewInt(500))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// Failed pull must not touch balances or allowance state partially
	if got := al.BalanceOf(usdc, custody); got.Sign() != 0 {
		t.Errorf("custody balance after failed pull = %v, want 0", got)
	}
}

func TestTransferOut(t *testing.T) {
	t.Parallel()
	al := newTestAssetLedger(t)

	err := al.TransferOut(usdc, alice, big.NewInt(1))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("empty custody payout err = %v, want ErrInsufficientBalance", err)
	}

	if err := al.Approve(usdc, treasury, big.NewInt(50)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := al.TransferIn(usdc, treasury, big.NewInt(50)); err != nil {
		t.Fatalf("TransferIn: %v", err)
	}
	if err := al.TransferOut(usdc, alice, big.NewInt(30)); err != nil {
		t.Fatalf("TransferOut: %v", err)
	}

	if got := al.BalanceOf(usdc, alice); got.Cmp(big.NewInt(30)) != 0 {
		t.Errorf("alice balance = %v, want 30", got)
	}
	if got := al.BalanceOf(usdc, custody); got.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("custody balance = %v, want 20", got)
	}
}

func TestUnknownAsset(t *testing.T) {
	t.Parallel()
	al := NewAssetLedger(custody)

	bogus := common.HexToAddress("0x00000000000000000000000000000000000000FF")
	if err := al.TransferIn(bogus, alice, big.NewInt(1)); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("TransferIn err = %v, want ErrUnknownAsset", err)
	}
	if al.TotalSupply(bogus) != nil {
		t.Error("TotalSupply of unknown asset should be nil")
	}
}

func TestOwnershipMintBurn(t *testing.T) {
	t.Parallel()
	ol := NewOwnershipLedger()

	var id types.TokenID
	id[0] = 0xAB

	ol.Mint(id, alice, 10)
	if got := ol.BalanceOf(id, alice); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
	if got := ol.TotalSupply(id); got != 10 {
		t.Errorf("supply = %d, want 10", got)
	}

	if err := ol.Burn(id, alice, 4); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if got := ol.BalanceOf(id, alice); got != 6 {
		t.Errorf("balance after burn = %d, want 6", got)
	}

	if err := ol.Burn(id, alice, 7); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("over-burn err = %v, want ErrInsufficientBalance", err)
	}
	if got := ol.BalanceOf(id, alice); got != 6 {
		t.Errorf("failed burn mutated balance: %d, want 6", got)
	}
}

func TestOwnerOf(t *testing.T) {
	t.Parallel()
	ol := NewOwnershipLedger()

	var id types.TokenID
	id[31] = 0x01

	if _, ok := ol.OwnerOf(id); ok {
		t.Error("OwnerOf on unminted token should report no owner")
	}

	ol.Mint(id, alice, 1)
	owner, ok := ol.OwnerOf(id)
	if !ok || owner != alice {
		t.Errorf("OwnerOf = %s, %v; want %s, true", owner.Hex(), ok, alice.Hex())
	}

	if err := ol.Burn(id, alice, 1); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if _, ok := ol.OwnerOf(id); ok {
		t.Error("OwnerOf after burn should report no owner")
	}
}
