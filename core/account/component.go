package account

import (
	"fmt"
	"slices"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
)

// Component is compiled account code bundled with its initial storage layout.
type Component struct {
	Code           *Code
	Storage        []StorageSlot
	supportedTypes []address.AccountType
}

// CompileComponent compiles source as account code. Compilation is deterministic for identical input.
func CompileComponent(c compiler.Compiler, source string, storage []StorageSlot) (*Component, error) {
	artifact, err := c.Compile(source, compiler.Options{Kind: compiler.AccountCode})
	if err != nil {
		return nil, fmt.Errorf("compile account component: %w", err)
	}
	code, err := NewCode(artifact)
	if err != nil {
		return nil, err
	}
	return &Component{Code: code, Storage: slices.Clone(storage)}, nil
}

func (c *Component) WithSupportedTypes(types ...address.AccountType) *Component {
	c.supportedTypes = append(c.supportedTypes, types...)
	return c
}

func (c *Component) WithSupportsAllTypes() *Component {
	return c.WithSupportedTypes(address.RegularAccountImmutableCode, address.RegularAccountUpdatableCode,
		address.FungibleFaucet, address.NonFungibleFaucet)
}

// Supports reports whether the component may back an account of type t. Components without
// an explicit list support regular accounts only.
func (c *Component) Supports(t address.AccountType) bool {
	if len(c.supportedTypes) == 0 {
		return !t.IsFaucet()
	}
	return slices.Contains(c.supportedTypes, t)
}
