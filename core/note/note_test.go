package note_test

import (
	"testing"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(t *testing.T) (faucet, sender, target address.AccountID) {
	t.Helper()
	faucet = address.NewDummy([32]byte{1}, address.FungibleFaucet, address.Public)
	sender = address.NewDummy([32]byte{2}, address.RegularAccountUpdatableCode, address.Private)
	target = address.NewDummy([32]byte{3}, address.RegularAccountUpdatableCode, address.Private)
	return faucet, sender, target
}

func assets(t *testing.T, faucet address.AccountID, amount uint64) note.Assets {
	t.Helper()
	fa, err := asset.NewFungibleAsset(faucet, amount)
	require.NoError(t, err)
	a, err := note.NewAssets(fa)
	require.NoError(t, err)
	return a
}

func TestP2IDNoteID(t *testing.T) {
	faucet, sender, target := ids(t)
	rng := crypto.NewSeededRandomCoin(felt.NewWord(1, 2, 3, 4))

	n, err := note.NewP2ID(sender, target, assets(t, faucet, 100), note.Public, felt.Zero, rng)
	require.NoError(t, err)

	t.Run("id is a pure function of the note", func(t *testing.T) {
		clone := *n
		assert.Equal(t, n.ID(), clone.ID())
		assert.Equal(t, n.ID(), note.DeriveID(note.RecipientDigest(n.Recipient.SerialNum,
			n.Recipient.Script.Root, n.Recipient.Inputs), n.Assets))
	})

	t.Run("fresh serial numbers give distinct ids", func(t *testing.T) {
		other, err := note.NewP2ID(sender, target, assets(t, faucet, 100), note.Public, felt.Zero, rng)
		require.NoError(t, err)
		assert.NotEqual(t, n.ID(), other.ID())
	})

	t.Run("identical content collides", func(t *testing.T) {
		same := note.New(n.Assets, n.Metadata, n.Recipient)
		assert.Equal(t, n.ID(), same.ID())
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, sender, n.Metadata.Sender)
		assert.Equal(t, note.TagFromAccountID(target), n.Metadata.Tag)
		assert.Equal(t, n.ID(), n.Header().ID)

		got, ok := n.P2IDTarget()
		require.True(t, ok)
		assert.Equal(t, target, got)
	})
}

func TestNewP2IDRejectsEmptyAssets(t *testing.T) {
	_, sender, target := ids(t)
	_, err := note.NewP2ID(sender, target, nil, note.Private, felt.Zero, crypto.NewSystemRandomCoin())
	require.ErrorIs(t, err, note.ErrEmptyAssets)
}

func TestNewAssets(t *testing.T) {
	faucet, _, _ := ids(t)
	a, err := asset.NewFungibleAsset(faucet, 1)
	require.NoError(t, err)

	_, err = note.NewAssets()
	require.ErrorIs(t, err, note.ErrEmptyAssets)
	_, err = note.NewAssets(a, a)
	require.ErrorIs(t, err, note.ErrDuplicateFaucet)
}

func TestNewScriptRequiresNoteScript(t *testing.T) {
	artifact, err := compiler.NewAssembler().Compile("begin nop end", compiler.Options{Kind: compiler.TxScript})
	require.NoError(t, err)
	_, err = note.NewScript(artifact)
	require.ErrorIs(t, err, note.ErrNotNoteScript)

	artifact, err = compiler.NewAssembler().Compile("begin receive end", compiler.Options{Kind: compiler.NoteScript})
	require.NoError(t, err)
	script, err := note.NewScript(artifact)
	require.NoError(t, err)

	faucet, sender, _ := ids(t)
	generic := note.New(assets(t, faucet, 5), note.Metadata{Sender: sender}, note.Recipient{Script: script})
	_, ok := generic.P2IDTarget()
	assert.False(t, ok)
}
