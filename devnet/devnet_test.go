package devnet_test

import (
	"context"
	"testing"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/devnet"
	"github.com/NethermindEth/notewise/txrequest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterSource = `
export.increment
    incr.0
end
export.load
    adv.0.0x0000000000000001000000000000000200000000000000030000000000000004
end
`

func newAccount(t *testing.T, entropy byte) *account.Account {
	t.Helper()
	component, err := account.CompileComponent(compiler.NewAssembler(), counterSource,
		[]account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	require.NoError(t, err)
	key, err := crypto.GenerateAuthKey()
	require.NoError(t, err)
	acc, err := account.Build(component, address.RegularAccountUpdatableCode, address.Public,
		[32]byte{entropy}, address.DefaultSeedSearch(), key)
	require.NoError(t, err)
	return acc
}

func scriptRequest(t *testing.T, source string, advice txrequest.AdviceMap, acc *account.Account) *txrequest.Request {
	t.Helper()
	artifact, err := compiler.NewAssembler().Compile(source, compiler.Options{
		Kind:      compiler.TxScript,
		Libraries: map[string]*compiler.Artifact{"counter": acc.Code.Library()},
	})
	require.NoError(t, err)
	b := txrequest.NewBuilder().WithCustomScript(artifact)
	if advice != nil {
		b.ExtendAdviceMap(advice)
	}
	req, err := b.Build()
	require.NoError(t, err)
	return req
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()
	exec := devnet.NewExecutor()
	acc := newAccount(t, 1)

	t.Run("storage instructions", func(t *testing.T) {
		req := scriptRequest(t, "begin call.counter::increment add.0.41 end", nil, acc)
		executed, err := exec.Execute(ctx, acc, nil, req, 0)
		require.NoError(t, err)

		w, err := executed.FinalAccount.Storage.GetItem(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), w[0].Uint64())
		assert.Equal(t, uint64(1), executed.FinalAccount.Nonce)
		assert.NotNil(t, executed.InitialSeed)
		assert.True(t, executed.InitialAccountHash.Equal(acc.Hash()))

		original, err := acc.Storage.GetItem(0)
		require.NoError(t, err)
		assert.True(t, original.IsZero())

		ok, err := crypto.Verify(executed.PublicKey, executed.SigningMessage(), executed.Signature)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("advice", func(t *testing.T) {
		key := crypto.Digest(felt.NewWord(1, 2, 3, 4))
		value := []felt.Felt{felt.New(9), felt.New(8), felt.New(7), felt.New(6)}
		req := scriptRequest(t, "begin call.counter::load end", txrequest.AdviceMap{key: value}, acc)
		executed, err := exec.Execute(ctx, acc, nil, req, 0)
		require.NoError(t, err)
		w, err := executed.FinalAccount.Storage.GetItem(0)
		require.NoError(t, err)
		assert.Equal(t, [4]uint64{9, 8, 7, 6}, w.Uint64s())

		_, err = exec.Execute(ctx, acc, nil, scriptRequest(t, "begin call.counter::load end", nil, acc), 0)
		require.ErrorIs(t, err, devnet.ErrExecution)
	})

	t.Run("pay to id checks the target", func(t *testing.T) {
		faucet := address.NewDummy([32]byte{5}, address.FungibleFaucet, address.Public)
		a, err := asset.NewFungibleAsset(faucet, 5)
		require.NoError(t, err)
		rng := crypto.NewSeededRandomCoin(felt.ZeroWord)
		other := newAccount(t, 2)
		n, err := note.NewP2ID(faucet, other.ID, note.Assets{a}, note.Public, felt.Zero, rng)
		require.NoError(t, err)

		req, err := txrequest.NewBuilder().ConsumeNotes(n.ID()).Build()
		require.NoError(t, err)
		_, err = exec.Execute(ctx, acc, []*note.Note{n}, req, 0)
		require.ErrorIs(t, err, devnet.ErrExecution)

		req, err = txrequest.NewBuilder().ConsumeNotes(n.ID()).Build()
		require.NoError(t, err)
		executed, err := exec.Execute(ctx, other, []*note.Note{n}, req, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), executed.FinalAccount.Vault.Balance(faucet))
		assert.Equal(t, []note.ID{n.ID()}, executed.InputNotes)
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := exec.Execute(cancelled, acc, nil, scriptRequest(t, "begin nop end", nil, acc), 0)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func prove(t *testing.T, acc *account.Account, source string) *transaction.ProvenTransaction {
	t.Helper()
	ctx := context.Background()
	executed, err := devnet.NewExecutor().Execute(ctx, acc, nil, scriptRequest(t, source, nil, acc), 0)
	require.NoError(t, err)
	proven, err := devnet.NewProver().Prove(ctx, executed)
	require.NoError(t, err)
	return proven
}

func TestNodeSubmit(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, 3)

	t.Run("rejects tampered transactions", func(t *testing.T) {
		node := devnet.NewNode()

		badProof := prove(t, acc, "begin call.counter::increment end")
		badProof.Proof = []byte{1}
		require.ErrorIs(t, node.Submit(ctx, badProof), devnet.ErrInvalidProof)

		badSig := prove(t, acc, "begin call.counter::increment end")
		badSig.Signature[len(badSig.Signature)-1] ^= 1
		require.ErrorIs(t, node.Submit(ctx, badSig), devnet.ErrInvalidSignature)

		badID := prove(t, acc, "begin call.counter::increment end")
		badID.FinalAccountHash = crypto.HashElements("forged")
		require.ErrorIs(t, node.Submit(ctx, badID), devnet.ErrInvalidProof)
	})

	t.Run("duplicates are rejected", func(t *testing.T) {
		node := devnet.NewNode()
		tx := prove(t, acc, "begin call.counter::increment end")
		require.NoError(t, node.Submit(ctx, tx))
		require.ErrorIs(t, node.Submit(ctx, tx), devnet.ErrDuplicateTransaction)
	})

	t.Run("stale initial state is discarded", func(t *testing.T) {
		node := devnet.NewNode()
		first := prove(t, acc, "begin call.counter::increment end")
		second := prove(t, acc, "begin add.0.2 end")
		require.NoError(t, node.Submit(ctx, first))
		require.NoError(t, node.Submit(ctx, second))

		block := node.ProduceBlock()
		assert.Equal(t, uint64(1), block)
		hash, ok := node.AccountHash(acc.ID)
		require.True(t, ok)
		assert.True(t, hash.Equal(first.FinalAccountHash))

		summary, err := node.SyncState(ctx, &client.SyncRequest{
			Accounts:     []address.AccountID{acc.ID},
			Transactions: []transaction.ID{first.ID, second.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []transaction.ID{first.ID}, summary.CommittedTransactions)
		assert.Equal(t, []transaction.ID{second.ID}, summary.DiscardedTransactions)
		assert.True(t, summary.UpdatedAccounts[acc.ID].Equal(first.FinalAccountHash))
	})

	t.Run("sync failures", func(t *testing.T) {
		node := devnet.NewNode().WithSyncFailures(1)
		_, err := node.SyncState(ctx, &client.SyncRequest{})
		require.ErrorIs(t, err, devnet.ErrNodeUnavailable)
		_, err = node.SyncState(ctx, &client.SyncRequest{})
		require.NoError(t, err)
	})
}

func TestProverTransientFailures(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, 4)
	executed, err := devnet.NewExecutor().Execute(ctx, acc, nil, scriptRequest(t, "begin nop end", nil, acc), 0)
	require.NoError(t, err)

	prover := devnet.NewProver().WithTransientFailures(1)
	_, err = prover.Prove(ctx, executed)
	require.ErrorIs(t, err, devnet.ErrProverUnavailable)
	proven, err := prover.Prove(ctx, executed)
	require.NoError(t, err)
	assert.True(t, proven.ID.Equal(executed.ID()))
	assert.Equal(t, devnet.Proof(proven.ID), proven.Proof)
}
