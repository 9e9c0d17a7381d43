package protocol

import (
	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
)

// NewWallet creates and tracks a basic wallet.
func NewWallet(c *client.Client, mutable bool, mode address.StorageMode) (*account.Account, error) {
	component, err := WalletComponent(c.Compiler())
	if err != nil {
		return nil, &client.Error{Kind: client.KindCompile, Err: err}
	}
	accountType := address.RegularAccountImmutableCode
	if mutable {
		accountType = address.RegularAccountUpdatableCode
	}
	return c.NewAccount(component, accountType, mode)
}

// NewFaucet creates and tracks a fungible faucet issuing symbol.
func NewFaucet(c *client.Client, symbol string, decimals uint8, maxSupply uint64,
	mode address.StorageMode,
) (*account.Account, error) {
	sym, err := asset.NewTokenSymbol(symbol)
	if err != nil {
		return nil, &client.Error{Kind: client.KindConfiguration, Err: err}
	}
	component, err := FaucetComponent(c.Compiler(), sym, decimals, maxSupply)
	if err != nil {
		return nil, &client.Error{Kind: client.KindConfiguration, Err: err}
	}
	return c.NewAccount(component, address.FungibleFaucet, mode)
}

// Details summarises a tracked account.
type Details struct {
	ID       address.AccountID
	Type     address.AccountType
	Mode     address.StorageMode
	Nonce    uint64
	Balances []asset.FungibleAsset
	// Faucet is set for fungible faucets.
	Faucet *FaucetMetadata
}

func details(acc *account.Account) Details {
	d := Details{
		ID:       acc.ID,
		Type:     acc.ID.Type(),
		Mode:     acc.ID.StorageMode(),
		Nonce:    acc.Nonce,
		Balances: acc.Vault.Assets(),
	}
	if acc.ID.Type() == address.FungibleFaucet {
		if w, err := acc.Storage.GetItem(account.FaucetMetadataSlot); err == nil {
			if meta, err := FaucetMetadataFromWord(w); err == nil {
				d.Faucet = &meta
			}
		}
	}
	return d
}

// WalletDetails reports nonce, balances and, for faucets, token metadata of id.
func WalletDetails(c *client.Client, id address.AccountID) (Details, error) {
	acc, err := c.Account(id)
	if err != nil {
		return Details{}, err
	}
	return details(acc), nil
}

// Balance returns the balance of faucet tokens held by id.
func Balance(c *client.Client, id, faucet address.AccountID) (uint64, error) {
	acc, err := c.Account(id)
	if err != nil {
		return 0, err
	}
	return acc.Vault.Balance(faucet), nil
}

// ListAccounts splits the tracked accounts into regular wallets and faucets.
func ListAccounts(c *client.Client) (wallets, faucets []Details) {
	for _, acc := range c.Accounts() {
		if acc.IsFaucet() {
			faucets = append(faucets, details(acc))
		} else {
			wallets = append(wallets, details(acc))
		}
	}
	return wallets, faucets
}
