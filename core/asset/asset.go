package asset

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/felt"
)

// MaxAmount is the largest amount a single fungible asset or vault balance may hold.
const MaxAmount = uint64(1)<<63 - uint64(1)<<31

var (
	ErrNotFungibleFaucet   = errors.New("asset issuer is not a fungible faucet")
	ErrAmountOverflow      = errors.New("fungible asset amount overflow")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroAmount          = errors.New("fungible asset amount must be positive")
)

// FungibleAsset is an amount of the token issued by Faucet.
type FungibleAsset struct {
	Faucet address.AccountID
	Amount uint64
}

func NewFungibleAsset(faucet address.AccountID, amount uint64) (FungibleAsset, error) {
	if faucet.Type() != address.FungibleFaucet {
		return FungibleAsset{}, fmt.Errorf("%w: %s", ErrNotFungibleFaucet, faucet)
	}
	if amount == 0 {
		return FungibleAsset{}, ErrZeroAmount
	}
	if amount > MaxAmount {
		return FungibleAsset{}, fmt.Errorf("%w: %d exceeds %d", ErrAmountOverflow, amount, MaxAmount)
	}
	return FungibleAsset{Faucet: faucet, Amount: amount}, nil
}

// Word is the vault and note encoding of the asset: [amount, 0, 0, faucet].
func (a FungibleAsset) Word() felt.Word {
	return felt.Word{felt.New(a.Amount), felt.Zero, felt.Zero, a.Faucet.Felt()}
}

func (a FungibleAsset) String() string {
	return fmt.Sprintf("%d@%s", a.Amount, a.Faucet)
}

// AddAmounts sums a and b and fails if the result leaves the fungible domain.
func AddAmounts(a, b uint64) (uint64, error) {
	if b > MaxAmount || a > MaxAmount-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return a + b, nil
}
