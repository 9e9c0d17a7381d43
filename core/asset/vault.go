package asset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
)

// Vault holds the fungible balances of an account, keyed by issuing faucet.
type Vault struct {
	Balances map[address.AccountID]uint64
}

func NewVault(assets ...FungibleAsset) (*Vault, error) {
	v := &Vault{Balances: make(map[address.AccountID]uint64)}
	for _, a := range assets {
		if err := v.Add(a); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Vault) Balance(faucet address.AccountID) uint64 {
	return v.Balances[faucet]
}

func (v *Vault) Add(a FungibleAsset) error {
	if v.Balances == nil {
		v.Balances = make(map[address.AccountID]uint64)
	}
	total, err := AddAmounts(v.Balances[a.Faucet], a.Amount)
	if err != nil {
		return err
	}
	v.Balances[a.Faucet] = total
	return nil
}

func (v *Vault) Remove(a FungibleAsset) error {
	have := v.Balances[a.Faucet]
	if have < a.Amount {
		return fmt.Errorf("%w: have %d of %s, need %d", ErrInsufficientBalance, have, a.Faucet, a.Amount)
	}
	if have == a.Amount {
		delete(v.Balances, a.Faucet)
	} else {
		v.Balances[a.Faucet] = have - a.Amount
	}
	return nil
}

// Assets returns the non-empty balances ordered by faucet id.
func (v *Vault) Assets() []FungibleAsset {
	faucets := slices.Sorted(maps.Keys(v.Balances))
	out := make([]FungibleAsset, 0, len(faucets))
	for _, f := range faucets {
		if amount := v.Balances[f]; amount > 0 {
			out = append(out, FungibleAsset{Faucet: f, Amount: amount})
		}
	}
	return out
}

func (v *Vault) Commitment() crypto.Digest {
	h := crypto.NewHasher("asset-vault")
	for _, a := range v.Assets() {
		h.UpdateWord(a.Word())
	}
	return h.Finish()
}

func (v *Vault) Clone() *Vault {
	return &Vault{Balances: maps.Clone(v.Balances)}
}
