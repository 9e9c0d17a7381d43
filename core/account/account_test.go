package account_test

import (
	"testing"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterSource = `
export.increment
    incr.0
end
`

func counterComponent(t *testing.T) *account.Component {
	t.Helper()
	c, err := account.CompileComponent(compiler.NewAssembler(), counterSource,
		[]account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	require.NoError(t, err)
	return c
}

func TestCompileComponent(t *testing.T) {
	c := counterComponent(t)
	require.Len(t, c.Code.ProcedureRoots(), 1)
	assert.Equal(t, compiler.CodeCommitment(c.Code.ProcedureRoots()), c.Code.Commitment)
	assert.True(t, c.Supports(address.RegularAccountUpdatableCode))
	assert.False(t, c.Supports(address.FungibleFaucet))
	assert.True(t, c.WithSupportsAllTypes().Supports(address.FungibleFaucet))

	_, err := account.CompileComponent(compiler.NewAssembler(), "export.broken", nil)
	require.ErrorIs(t, err, compiler.ErrCompile)
}

func TestBuildAndValidate(t *testing.T) {
	c := counterComponent(t)
	acc, err := account.Build(c, address.RegularAccountUpdatableCode, address.Public, [32]byte{7},
		address.DefaultSeedSearch(), nil)
	require.NoError(t, err)
	require.NoError(t, acc.Validate())
	assert.True(t, acc.IsNew())
	assert.Equal(t, address.RegularAccountUpdatableCode, acc.ID.Type())

	again, err := account.Build(c, address.RegularAccountUpdatableCode, address.Public, [32]byte{7},
		address.DefaultSeedSearch(), nil)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
	assert.Equal(t, acc.Hash(), again.Hash())

	_, err = account.Build(c, address.FungibleFaucet, address.Public, [32]byte{7}, address.DefaultSeedSearch(), nil)
	require.ErrorIs(t, err, account.ErrUnsupportedType)

	t.Run("tampered storage", func(t *testing.T) {
		bad := acc.Clone()
		require.NoError(t, bad.Storage.SetItem(0, felt.NewWord(1, 0, 0, 0)))
		require.ErrorIs(t, bad.Validate(), account.ErrMalformedAccount)
	})

	t.Run("tampered code commitment", func(t *testing.T) {
		bad := acc.Clone()
		code := *bad.Code
		code.Commitment = crypto.HashElements("other")
		bad.Code = &code
		require.ErrorIs(t, bad.Validate(), account.ErrMalformedAccount)
	})
}

func TestCloneIsDeep(t *testing.T) {
	acc, err := account.Build(counterComponent(t), address.RegularAccountUpdatableCode, address.Private,
		[32]byte{1}, address.DefaultSeedSearch(), nil)
	require.NoError(t, err)
	before := acc.Hash()

	clone := acc.Clone()
	require.NoError(t, clone.Storage.SetItem(0, felt.NewWord(5, 0, 0, 0)))
	clone.Nonce++

	assert.Equal(t, before, acc.Hash())
	assert.NotEqual(t, before, clone.Hash())
}

func TestSignRequiresKey(t *testing.T) {
	acc, err := account.Build(counterComponent(t), address.RegularAccountUpdatableCode, address.Public,
		[32]byte{2}, address.DefaultSeedSearch(), nil)
	require.NoError(t, err)
	_, err = acc.Sign(acc.Hash())
	require.ErrorIs(t, err, account.ErrMissingAuthKey)

	acc.AuthKey, err = crypto.GenerateAuthKey()
	require.NoError(t, err)
	sig, err := acc.Sign(acc.Hash())
	require.NoError(t, err)
	pub, err := acc.PublicKey()
	require.NoError(t, err)
	ok, err := crypto.Verify(pub, acc.Hash(), sig)
	require.NoError(t, err)
	assert.True(t, ok)
}
