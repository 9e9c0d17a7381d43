package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/mocks"
	"github.com/NethermindEth/notewise/protocol"
	"github.com/NethermindEth/notewise/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type mockedClient struct {
	*client.Client
	executor *mocks.MockExecutor
	prover   *mocks.MockProver
	network  *mocks.MockNetwork
	acc      *account.Account
}

func newMockedClient(t *testing.T) *mockedClient {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &mockedClient{
		executor: mocks.NewMockExecutor(ctrl),
		prover:   mocks.NewMockProver(ctrl),
		network:  mocks.NewMockNetwork(ctrl),
	}
	st, err := store.New(nil)
	require.NoError(t, err)
	m.Client = client.New(st, m.executor, m.prover, m.network).WithConfig(fastConfig())

	component, err := protocol.CounterComponent(m.Compiler())
	require.NoError(t, err)
	m.acc, err = m.NewAccount(component, address.RegularAccountUpdatableCode, address.Public)
	require.NoError(t, err)
	return m
}

// expectExecution makes the next n executions and proofs succeed with a nonce bump.
func (m *mockedClient) expectExecution(n int) *transaction.ExecutedTransaction {
	final := m.acc.Clone()
	final.Nonce++
	executed := &transaction.ExecutedTransaction{
		AccountID:          m.acc.ID,
		InitialAccountHash: m.acc.Hash(),
		FinalAccount:       final,
	}
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), uint64(0)).
		Return(executed, nil).Times(n)
	m.prover.EXPECT().Prove(gomock.Any(), executed).
		Return(&transaction.ProvenTransaction{ID: executed.ID(), AccountID: m.acc.ID}, nil).Times(n)
	return executed
}

func TestSubmissionFailureReleasesAccount(t *testing.T) {
	ctx := context.Background()
	m := newMockedClient(t)
	m.expectExecution(2)
	m.network.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	result, err := m.NewTransaction(ctx, m.acc.ID, incrementRequest(t, m.Client, m.acc))
	require.NoError(t, err)
	state, ok := m.TxState(result.ID())
	require.True(t, ok)
	assert.Equal(t, client.Submitted, state)

	err = m.SubmitTransaction(ctx, result)
	require.Error(t, err)
	kind, ok := client.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, client.KindSubmission, kind)
	assert.True(t, kind.Retryable())
	_, ok = m.TxState(result.ID())
	assert.False(t, ok)

	// a handle is submitted at most once
	err = m.SubmitTransaction(ctx, result)
	assert.True(t, client.IsKind(err, client.KindConfiguration))

	short, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	again, err := m.NewTransaction(short, m.acc.ID, incrementRequest(t, m.Client, m.acc))
	require.NoError(t, err)
	m.Discard(again)
	assert.Equal(t, uint64(2), m.Sequence(m.acc.ID))
}

func TestExecutionFailure(t *testing.T) {
	ctx := context.Background()
	m := newMockedClient(t)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("stack underflow"))

	_, err := m.NewTransaction(ctx, m.acc.ID, incrementRequest(t, m.Client, m.acc))
	require.Error(t, err)
	var cerr *client.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, client.KindExecution, cerr.Kind)
	assert.Equal(t, m.acc.ID, cerr.Account)
	assert.NotEmpty(t, cerr.Request)
	assert.False(t, cerr.Kind.Retryable())

	m.expectExecution(1)
	result, err := m.NewTransaction(ctx, m.acc.ID, incrementRequest(t, m.Client, m.acc))
	require.NoError(t, err)
	m.Discard(result)
}

func TestSyncFailure(t *testing.T) {
	ctx := context.Background()
	m := newMockedClient(t)
	m.network.EXPECT().SyncState(gomock.Any(), gomock.Any()).Return(nil, errors.New("node unavailable"))

	_, err := m.SyncState(ctx)
	require.Error(t, err)
	assert.True(t, client.IsKind(err, client.KindSync))

	m.network.EXPECT().SyncState(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *client.SyncRequest) (*client.SyncSummary, error) {
			assert.Equal(t, []address.AccountID{m.acc.ID}, req.Accounts)
			assert.Zero(t, req.FromBlock)
			return &client.SyncSummary{BlockNum: 7}, nil
		})
	summary, err := m.SyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), summary.BlockNum)
	assert.Equal(t, uint64(7), m.Store().SyncHeight())
}

func TestAwaitSettlementCancelled(t *testing.T) {
	m := newMockedClient(t)
	m.expectExecution(1)
	m.network.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil)
	m.network.EXPECT().SyncState(gomock.Any(), gomock.Any()).Return(&client.SyncSummary{}, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	result, err := m.NewTransaction(ctx, m.acc.ID, incrementRequest(t, m.Client, m.acc))
	require.NoError(t, err)
	require.NoError(t, m.SubmitTransaction(ctx, result))

	cancel()
	err = m.AwaitSettlement(ctx, result.ID())
	require.Error(t, err)
	assert.True(t, client.IsKind(err, client.KindCancelled))
	require.ErrorIs(t, err, context.Canceled)

	state, _ := m.TxState(result.ID())
	assert.Equal(t, client.PendingSync, state)
}

func TestAwaitSettlementUnknownTransaction(t *testing.T) {
	m := newMockedClient(t)
	executed := &transaction.ExecutedTransaction{FinalAccount: m.acc}
	err := m.AwaitSettlement(context.Background(), executed.ID())
	require.ErrorIs(t, err, client.ErrUnknownTx)
}
