package protocol

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/felt"
)

var ErrInvalidFaucetMetadata = errors.New("invalid faucet metadata")

// MaxDecimals bounds the decimals of a fungible faucet token.
const MaxDecimals = 12

// WalletSource is the basic wallet. Slot 0 counts outgoing transfers; asset movement itself is
// performed by the receive and create_note instructions.
const WalletSource = `
export.receive_asset
    nop
end

export.send_asset
    incr.0
end
`

// FaucetSource is the basic fungible faucet. Minting happens when the faucet creates notes
// carrying its own asset, bounded by the max supply in slot 0.
const FaucetSource = `
export.distribute
    nop
end
`

// CounterSource is a minimal stateful contract used by the counter flow.
const CounterSource = `
export.increment
    incr.0
end

export.reset
    set.0.0.0.0.0
end
`

// WalletComponent compiles the basic wallet. It backs regular accounts with updatable or immutable code.
func WalletComponent(c compiler.Compiler) (*account.Component, error) {
	component, err := account.CompileComponent(c, WalletSource, []account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	if err != nil {
		return nil, err
	}
	return component.WithSupportedTypes(address.RegularAccountImmutableCode, address.RegularAccountUpdatableCode), nil
}

// FaucetMetadata describes the token issued by a fungible faucet.
type FaucetMetadata struct {
	Symbol    asset.TokenSymbol
	Decimals  uint8
	MaxSupply uint64
	Issued    uint64
}

func (m FaucetMetadata) Validate() error {
	if m.Decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals %d exceed %d", ErrInvalidFaucetMetadata, m.Decimals, MaxDecimals)
	}
	if m.MaxSupply == 0 || m.MaxSupply > asset.MaxAmount {
		return fmt.Errorf("%w: max supply %d not in [1, %d]", ErrInvalidFaucetMetadata, m.MaxSupply, asset.MaxAmount)
	}
	if m.Issued > m.MaxSupply {
		return fmt.Errorf("%w: issued %d exceeds max supply %d", ErrInvalidFaucetMetadata, m.Issued, m.MaxSupply)
	}
	return nil
}

func (m FaucetMetadata) Word() felt.Word {
	return felt.Word{felt.New(m.MaxSupply), felt.New(uint64(m.Decimals)), m.Symbol.Felt(), felt.New(m.Issued)}
}

// FaucetMetadataFromWord decodes the faucet metadata slot.
func FaucetMetadataFromWord(w felt.Word) (FaucetMetadata, error) {
	symbol, err := asset.TokenSymbolFromFelt(w[2])
	if err != nil {
		return FaucetMetadata{}, fmt.Errorf("%w: %v", ErrInvalidFaucetMetadata, err)
	}
	m := FaucetMetadata{
		Symbol:    symbol,
		Decimals:  uint8(w[1].Uint64()),
		MaxSupply: w[0].Uint64(),
		Issued:    w[3].Uint64(),
	}
	return m, m.Validate()
}

// FaucetComponent compiles the fungible faucet with its token metadata.
func FaucetComponent(c compiler.Compiler, symbol asset.TokenSymbol, decimals uint8, maxSupply uint64) (*account.Component, error) {
	meta := FaucetMetadata{Symbol: symbol, Decimals: decimals, MaxSupply: maxSupply}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	slots := make([]account.StorageSlot, account.FaucetMetadataSlot+1)
	slots[account.FaucetMetadataSlot] = account.NewValueSlot(meta.Word())
	component, err := account.CompileComponent(c, FaucetSource, slots)
	if err != nil {
		return nil, err
	}
	return component.WithSupportedTypes(address.FungibleFaucet), nil
}

func CounterComponent(c compiler.Compiler) (*account.Component, error) {
	component, err := account.CompileComponent(c, CounterSource, []account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	if err != nil {
		return nil, err
	}
	return component.WithSupportedTypes(address.RegularAccountImmutableCode, address.RegularAccountUpdatableCode), nil
}
