package protocol_test

import (
	"context"
	"testing"
	"time"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/devnet"
	"github.com/NethermindEth/notewise/protocol"
	"github.com/NethermindEth/notewise/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	st, err := store.New(nil)
	require.NoError(t, err)
	cfg := client.DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.MaxPollAttempts = 20
	return client.New(st, devnet.NewExecutor(), devnet.NewProver(), devnet.NewNode()).
		WithConfig(cfg).
		WithRandomCoin(crypto.NewSeededRandomCoin(felt.NewWord(11, 0, 0, 0)))
}

func TestFaucetMetadata(t *testing.T) {
	symbol, err := asset.NewTokenSymbol("ABC")
	require.NoError(t, err)

	meta := protocol.FaucetMetadata{Symbol: symbol, Decimals: 6, MaxSupply: 1000, Issued: 10}
	require.NoError(t, meta.Validate())
	decoded, err := protocol.FaucetMetadataFromWord(meta.Word())
	require.NoError(t, err)
	assert.Equal(t, meta, decoded)

	tests := map[string]protocol.FaucetMetadata{
		"too many decimals": {Symbol: symbol, Decimals: protocol.MaxDecimals + 1, MaxSupply: 1},
		"zero max supply":   {Symbol: symbol},
		"over issued":       {Symbol: symbol, MaxSupply: 5, Issued: 6},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, m.Validate(), protocol.ErrInvalidFaucetMetadata)
		})
	}

	_, err = protocol.FaucetComponent(compiler.NewAssembler(), symbol, 13, 100)
	require.ErrorIs(t, err, protocol.ErrInvalidFaucetMetadata)
}

func TestComponentsSupportedTypes(t *testing.T) {
	comp := compiler.NewAssembler()
	wallet, err := protocol.WalletComponent(comp)
	require.NoError(t, err)
	_, ok := wallet.Code.ProcedureByName("send_asset")
	assert.True(t, ok)

	c := newClient(t)
	_, err = c.NewAccount(wallet, address.FungibleFaucet, address.Public)
	require.Error(t, err)

	_, err = protocol.NewFaucet(c, "TOOLONGSYMBOL", 2, 10, address.Public)
	assert.True(t, client.IsKind(err, client.KindConfiguration))
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	counter, err := protocol.NewCounter(c)
	require.NoError(t, err)

	for range 3 {
		_, err := protocol.Increment(ctx, c, counter.ID)
		require.NoError(t, err)
	}
	value, err := protocol.CounterValue(c, counter.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), value)

	_, err = protocol.Reset(ctx, c, counter.ID)
	require.NoError(t, err)
	value, err = protocol.CounterValue(c, counter.ID)
	require.NoError(t, err)
	assert.Zero(t, value)

	acc, err := c.Account(counter.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), acc.Nonce)
}

func TestMathLoadsAdviceInput(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	math, err := protocol.NewMath(c)
	require.NoError(t, err)
	assert.Len(t, math.Code.ProcedureRoots(), 2)

	req, err := protocol.LoadInputRequest(c.Compiler(), math, felt.NewWord(505, 0, 0, 0))
	require.NoError(t, err)
	operand, ok := req.AdviceMap().Get(protocol.MathInputKey)
	require.True(t, ok)
	assert.Len(t, operand, felt.WordSize)

	_, err = protocol.LoadInput(ctx, c, math.ID, felt.NewWord(505, 0, 0, 0))
	require.NoError(t, err)
	value, err := protocol.MathValue(c, math.ID)
	require.NoError(t, err)
	assert.Equal(t, [4]uint64{505, 0, 0, 0}, value.Uint64s())

	// a later operand overwrites the slot
	_, err = protocol.LoadInput(ctx, c, math.ID, felt.NewWord(1, 2, 3, 4))
	require.NoError(t, err)
	value, err = protocol.MathValue(c, math.ID)
	require.NoError(t, err)
	assert.Equal(t, [4]uint64{1, 2, 3, 4}, value.Uint64s())

	counter, err := protocol.NewCounter(c)
	require.NoError(t, err)
	_, err = protocol.LoadInputRequest(c.Compiler(), counter, felt.ZeroWord)
	require.ErrorIs(t, err, protocol.ErrMissingProc)
}

func TestSendAssetScriptRequiresWallet(t *testing.T) {
	comp := compiler.NewAssembler()
	counter, err := protocol.CounterComponent(comp)
	require.NoError(t, err)

	_, err = protocol.SendAssetScript(comp, counter.Code)
	require.ErrorIs(t, err, protocol.ErrMissingProc)

	wallet, err := protocol.WalletComponent(comp)
	require.NoError(t, err)
	artifact, err := protocol.SendAssetScript(comp, wallet.Code)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, artifact.CreatedNotes())
}

func TestMintRequest(t *testing.T) {
	rng := crypto.NewSeededRandomCoin(felt.NewWord(1, 0, 0, 0))
	faucet := address.NewDummy([32]byte{1}, address.FungibleFaucet, address.Public)
	target := address.NewDummy([32]byte{2}, address.RegularAccountUpdatableCode, address.Private)

	req, n, err := protocol.MintRequest(faucet, target, 25, note.Private, rng)
	require.NoError(t, err)
	require.Len(t, req.OwnOutputNotes(), 1)
	assert.Equal(t, n.ID(), req.OwnOutputNotes()[0].ID())
	assert.Equal(t, uint64(25), req.OutputAssets()[faucet])

	_, _, err = protocol.MintRequest(target, faucet, 25, note.Public, rng)
	require.ErrorIs(t, err, protocol.ErrNotFaucet)
}

func TestDisperseRequest(t *testing.T) {
	ctx := context.Background()
	rng := crypto.NewSeededRandomCoin(felt.NewWord(2, 0, 0, 0))
	faucet := address.NewDummy([32]byte{3}, address.FungibleFaucet, address.Public)
	sender := address.NewDummy([32]byte{4}, address.RegularAccountUpdatableCode, address.Public)
	target := address.NewDummy([32]byte{5}, address.RegularAccountUpdatableCode, address.Public)

	a, err := asset.NewFungibleAsset(faucet, 10)
	require.NoError(t, err)
	payments := []protocol.Payment{
		{Target: target, Assets: note.Assets{a}},
		{Target: target, Assets: note.Assets{a}},
	}
	req, notes, err := protocol.DisperseRequest(ctx, sender, payments, note.Public, rng)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.NotEqual(t, notes[0].ID(), notes[1].ID())
	assert.Equal(t, uint64(20), req.OutputAssets()[faucet])

	_, _, err = protocol.DisperseRequest(ctx, sender, nil, note.Public, rng)
	require.ErrorIs(t, err, protocol.ErrNoPayments)
}

func TestListAccounts(t *testing.T) {
	c := newClient(t)
	_, err := protocol.NewWallet(c, false, address.Private)
	require.NoError(t, err)
	faucet, err := protocol.NewFaucet(c, "XYZ", 4, 100, address.Public)
	require.NoError(t, err)

	wallets, faucets := protocol.ListAccounts(c)
	require.Len(t, wallets, 1)
	require.Len(t, faucets, 1)
	assert.Equal(t, faucet.ID, faucets[0].ID)
	require.NotNil(t, faucets[0].Faucet)
	assert.Equal(t, uint8(4), faucets[0].Faucet.Decimals)
}
