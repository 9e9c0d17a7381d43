package address_test

import (
	"testing"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	code    = crypto.HashElements("code", felt.New(1))
	storage = crypto.HashElements("storage", felt.New(2))
)

func entropy(b byte) [32]byte {
	var e [32]byte
	for i := range e {
		e[i] = b + byte(i)
	}
	return e
}

func TestDeriveSeedIsDeterministic(t *testing.T) {
	search := address.DefaultSeedSearch()
	tests := []struct {
		accountType address.AccountType
		mode        address.StorageMode
	}{
		{address.RegularAccountImmutableCode, address.Public},
		{address.RegularAccountUpdatableCode, address.Private},
		{address.FungibleFaucet, address.Public},
	}
	for _, test := range tests {
		t.Run(test.accountType.String()+"/"+test.mode.String(), func(t *testing.T) {
			seed, id, err := search.DeriveSeed(entropy(1), test.accountType, test.mode, code, storage)
			require.NoError(t, err)
			assert.Equal(t, test.accountType, id.Type())
			assert.Equal(t, test.mode, id.StorageMode())

			seed2, id2, err := search.DeriveSeed(entropy(1), test.accountType, test.mode, code, storage)
			require.NoError(t, err)
			assert.Equal(t, id, id2)
			assert.Equal(t, seed, seed2)

			rebuilt, err := address.New(seed, code, storage)
			require.NoError(t, err)
			assert.Equal(t, id, rebuilt)
		})
	}
}

func TestNewRejectsForeignCommitments(t *testing.T) {
	seed, _, err := address.DefaultSeedSearch().DeriveSeed(entropy(3), address.RegularAccountUpdatableCode,
		address.Public, code, storage)
	require.NoError(t, err)

	otherStorage := crypto.HashElements("storage", felt.New(3))
	// A mismatching commitment almost never reproduces a valid derivation.
	_, err = address.New(seed, code, otherStorage)
	require.ErrorIs(t, err, address.ErrInvalidAccountID)
}

func TestDeriveSeedMaxAttempts(t *testing.T) {
	search := address.SeedSearch{MaxAttempts: 1}
	var exhausted int
	for i := byte(0); i < 8; i++ {
		_, _, err := search.DeriveSeed(entropy(i), address.FungibleFaucet, address.Public, code, storage)
		if err != nil {
			require.ErrorIs(t, err, address.ErrSeedSearchExhausted)
			exhausted++
		}
	}
	assert.Positive(t, exhausted)

	_, _, err := address.SeedSearch{MaxAttempts: 0}.DeriveSeed(entropy(1), address.FungibleFaucet, address.Public, code, storage)
	require.ErrorIs(t, err, address.ErrSeedSearchExhausted)
}

func TestDeriveSeedRejectsUnknownMode(t *testing.T) {
	_, _, err := address.DefaultSeedSearch().DeriveSeed(entropy(1), address.FungibleFaucet, address.StorageMode(1), code, storage)
	require.ErrorIs(t, err, address.ErrInvalidAccountID)
}

func TestHexRoundTrip(t *testing.T) {
	id := address.NewDummy(entropy(9), address.RegularAccountUpdatableCode, address.Private)
	assert.Equal(t, address.RegularAccountUpdatableCode, id.Type())
	assert.Equal(t, address.Private, id.StorageMode())

	parsed, err := address.FromHex(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = address.FromHex("0xzz")
	require.ErrorIs(t, err, address.ErrInvalidAccountID)

	// storage mode bits 0b01 are reserved
	_, err = address.FromHex("0x1000000000000000")
	require.ErrorIs(t, err, address.ErrInvalidAccountID)
}
