package felt_test

import (
	"encoding/json"
	"testing"

	"github.com/NethermindEth/notewise/core/felt"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeltArithmeticWrapsAtModulus(t *testing.T) {
	maxFelt := felt.New(felt.Modulus - 1)
	one := felt.New(1)
	sum := new(felt.Felt).Add(&maxFelt, &one)
	assert.True(t, sum.IsZero())

	diff := new(felt.Felt).Sub(&felt.Zero, &one)
	assert.Equal(t, felt.Modulus-1, diff.Uint64())
}

func TestSetCanonical(t *testing.T) {
	_, err := new(felt.Felt).SetCanonical(felt.Modulus)
	require.ErrorIs(t, err, felt.ErrInvalidFelt)

	f, err := new(felt.Felt).SetCanonical(42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), f.Uint64())
}

func TestFeltJSON(t *testing.T) {
	f := felt.New(0x4437ab)
	b, err := json.Marshal(&f)
	require.NoError(t, err)
	assert.Equal(t, `"0x4437ab"`, string(b))

	var got felt.Felt
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Equal(&f))
}

func TestFeltCbor(t *testing.T) {
	var val felt.Felt
	_, err := val.SetRandom()
	require.NoError(t, err)

	b, err := cbor.Marshal(val)
	require.NoError(t, err)

	var unmarshaled felt.Felt
	require.NoError(t, cbor.Unmarshal(b, &unmarshaled))
	assert.True(t, val.Equal(&unmarshaled))
}

func TestWord(t *testing.T) {
	w := felt.NewWord(1, 2, 3, 4)
	assert.False(t, w.IsZero())
	assert.True(t, felt.ZeroWord.IsZero())
	assert.Equal(t, [4]uint64{1, 2, 3, 4}, w.Uint64s())
	assert.Equal(t, "[0x1, 0x2, 0x3, 0x4]", w.String())

	other := felt.NewWord(1, 2, 3, 5)
	assert.False(t, w.Equal(&other))
}
