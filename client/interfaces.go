package client

import (
	"context"

	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/txrequest"
)

//go:generate mockgen -destination=../mocks/mock_executor.go -package=mocks github.com/NethermindEth/notewise/client Executor
type Executor interface {
	// Execute runs req against a snapshot of acc. inputs are the resolved notes to consume.
	Execute(ctx context.Context, acc *account.Account, inputs []*note.Note, req *txrequest.Request,
		blockRef uint64) (*transaction.ExecutedTransaction, error)
}

//go:generate mockgen -destination=../mocks/mock_prover.go -package=mocks github.com/NethermindEth/notewise/client Prover
type Prover interface {
	Prove(ctx context.Context, tx *transaction.ExecutedTransaction) (*transaction.ProvenTransaction, error)
}

//go:generate mockgen -destination=../mocks/mock_network.go -package=mocks github.com/NethermindEth/notewise/client Network
type Network interface {
	Submit(ctx context.Context, tx *transaction.ProvenTransaction) error
	SyncState(ctx context.Context, req *SyncRequest) (*SyncSummary, error)
}

// SyncRequest selects the part of the chain a client is interested in. Notes lists expected
// notes whose inclusion is reported regardless of FromBlock.
type SyncRequest struct {
	FromBlock    uint64
	Accounts     []address.AccountID
	Tags         []note.Tag
	Notes        []note.ID
	Transactions []transaction.ID
}

// CommittedNote is a note included in a block. Note is nil for private notes, whose details
// only travel off chain.
type CommittedNote struct {
	Header note.Header
	Note   *note.Note
	Block  uint64
}

// SyncSummary reports what changed on chain after SyncRequest.FromBlock.
type SyncSummary struct {
	BlockNum              uint64
	UpdatedAccounts       map[address.AccountID]crypto.Digest
	CommittedNotes        []CommittedNote
	ConsumedNotes         []note.ID
	CommittedTransactions []transaction.ID
	DiscardedTransactions []transaction.ID
}
