package txrequest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

// AdviceMap is side input for script execution that never reaches account storage.
type AdviceMap map[crypto.Digest][]felt.Felt

// Merge adds entries to m. Re-adding an identical binding is a no-op; rebinding a key to a
// different value fails and leaves m unchanged.
func (m AdviceMap) Merge(entries AdviceMap) error {
	for key, value := range entries {
		if existing, ok := m[key]; ok && !feltsEqual(existing, value) {
			return fmt.Errorf("%w: %s", ErrDuplicateAdviceKey, key)
		}
	}
	for key, value := range entries {
		m[key] = slices.Clone(value)
	}
	return nil
}

func (m AdviceMap) Get(key crypto.Digest) ([]felt.Felt, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the keys in ascending order.
func (m AdviceMap) Keys() []crypto.Digest {
	return slices.SortedFunc(maps.Keys(m), crypto.Digest.Compare)
}

func (m AdviceMap) Clone() AdviceMap {
	out := make(AdviceMap, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func feltsEqual(a, b []felt.Felt) bool {
	return slices.EqualFunc(a, b, func(x, y felt.Felt) bool { return x.Equal(&y) })
}
