package devnet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/utils"
)

var (
	ErrInvalidProof         = errors.New("invalid transaction proof")
	ErrInvalidSignature     = errors.New("invalid transaction signature")
	ErrDuplicateTransaction = errors.New("transaction already submitted")
	ErrNodeUnavailable      = errors.New("node unavailable")
)

type accountState struct {
	hash      crypto.Digest
	publicKey []byte
	updatedAt uint64
}

type mempoolTx struct {
	tx          *transaction.ProvenTransaction
	submittedAt time.Time
}

type outcome struct {
	status transaction.Status
	block  uint64
}

// Node is an in-process single-operator chain. Submitted transactions wait in a mempool and are
// included by the next block produced after the inclusion delay; blocks are produced on demand or
// lazily when a client syncs.
type Node struct {
	mu           sync.Mutex
	log          utils.SimpleLogger
	delay        time.Duration
	syncFailures int

	blockNum   uint64
	accounts   map[address.AccountID]*accountState
	notes      map[note.ID]client.CommittedNote
	nullifiers map[note.ID]uint64
	mempool    []mempoolTx
	outcomes   map[transaction.ID]outcome
}

var _ client.Network = (*Node)(nil)

func NewNode() *Node {
	return &Node{
		log:        utils.NewNopZapLogger(),
		accounts:   make(map[address.AccountID]*accountState),
		notes:      make(map[note.ID]client.CommittedNote),
		nullifiers: make(map[note.ID]uint64),
		outcomes:   make(map[transaction.ID]outcome),
	}
}

func (n *Node) WithLogger(log utils.SimpleLogger) *Node {
	n.log = log
	return n
}

// WithInclusionDelay keeps submitted transactions out of blocks until d has elapsed.
func (n *Node) WithInclusionDelay(d time.Duration) *Node {
	n.delay = d
	return n
}

// WithSyncFailures makes the next count SyncState calls fail with ErrNodeUnavailable.
func (n *Node) WithSyncFailures(count int) *Node {
	n.mu.Lock()
	n.syncFailures = count
	n.mu.Unlock()
	return n
}

func (n *Node) BlockNum() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blockNum
}

// AccountHash returns the committed state commitment of id.
func (n *Node) AccountHash(id address.AccountID) (crypto.Digest, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.accounts[id]
	if !ok {
		return crypto.Digest{}, false
	}
	return st.hash, true
}

func (n *Node) IsConsumed(id note.ID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.nullifiers[id]
	return ok
}

func (n *Node) Submit(ctx context.Context, tx *transaction.ProvenTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := verify(tx); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if st, ok := n.accounts[tx.AccountID]; ok && !bytes.Equal(st.publicKey, tx.PublicKey) {
		return fmt.Errorf("%w: key does not match account %s", ErrInvalidSignature, tx.AccountID)
	}
	if _, ok := n.outcomes[tx.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}
	n.outcomes[tx.ID] = outcome{status: transaction.Pending}
	n.mempool = append(n.mempool, mempoolTx{tx: tx, submittedAt: time.Now()})
	n.log.Debugw("Transaction accepted into mempool", "tx", tx.ID, "account", tx.AccountID)
	return nil
}

func verify(tx *transaction.ProvenTransaction) error {
	id := transaction.ComputeID(tx.InitialAccountHash, tx.FinalAccountHash, tx.InputNotes, tx.OutputNoteIDs())
	if !id.Equal(tx.ID) {
		return fmt.Errorf("%w: id does not match the state transition", ErrInvalidProof)
	}
	if !bytes.Equal(tx.Proof, Proof(tx.ID)) {
		return fmt.Errorf("%w: %s", ErrInvalidProof, tx.ID)
	}
	ok, err := crypto.Verify(tx.PublicKey, tx.SigningMessage(), tx.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, tx.ID)
	}
	return nil
}

// ProduceBlock includes every mempool transaction whose inclusion delay has passed, in submission
// order. Transactions that conflict with the chain state are discarded.
func (n *Node) ProduceBlock() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.produceBlock(time.Now())
}

func (n *Node) produceBlock(now time.Time) uint64 {
	n.blockNum++
	block := n.blockNum

	var remaining []mempoolTx
	for _, entry := range n.mempool {
		if now.Sub(entry.submittedAt) < n.delay {
			remaining = append(remaining, entry)
			continue
		}
		tx := entry.tx
		if err := n.admissible(tx, block); err != nil {
			n.outcomes[tx.ID] = outcome{status: transaction.Discarded, block: block}
			n.log.Debugw("Transaction discarded", "tx", tx.ID, "block", block, "reason", err)
			continue
		}
		n.apply(tx, block)
		n.outcomes[tx.ID] = outcome{status: transaction.Committed, block: block}
	}
	n.mempool = remaining
	return block
}

func (n *Node) admissible(tx *transaction.ProvenTransaction, block uint64) error {
	if tx.BlockRef >= block {
		return fmt.Errorf("reference block %d is not before %d", tx.BlockRef, block)
	}
	st, known := n.accounts[tx.AccountID]
	switch {
	case known && !st.hash.Equal(tx.InitialAccountHash):
		return errors.New("stale initial account state")
	case known && tx.InitialSeed != nil:
		return errors.New("account already exists")
	case !known && tx.InitialSeed == nil:
		return errors.New("unknown account")
	}
	for _, id := range tx.InputNotes {
		committed, ok := n.notes[id]
		if !ok {
			return fmt.Errorf("note %s is not on chain", id)
		}
		if _, spent := n.nullifiers[id]; spent {
			return fmt.Errorf("note %s already consumed", id)
		}
		if after := committed.Header.Metadata.Hint.AfterBlock; after > block {
			return fmt.Errorf("note %s is not consumable before block %d", id, after)
		}
	}
	for _, out := range tx.OutputNotes {
		if _, ok := n.notes[out.ID()]; ok {
			return fmt.Errorf("output note %s already exists", out.ID())
		}
	}
	return nil
}

func (n *Node) apply(tx *transaction.ProvenTransaction, block uint64) {
	n.accounts[tx.AccountID] = &accountState{hash: tx.FinalAccountHash, publicKey: tx.PublicKey, updatedAt: block}
	for _, id := range tx.InputNotes {
		n.nullifiers[id] = block
	}
	for _, out := range tx.OutputNotes {
		committed := client.CommittedNote{Header: out.Header(), Block: block}
		if out.Metadata.Type == note.Public {
			committed.Note = out
		}
		n.notes[out.ID()] = committed
	}
}

// SyncState produces a block when transactions are due, then reports changes after req.FromBlock.
func (n *Node) SyncState(ctx context.Context, req *client.SyncRequest) (*client.SyncSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.syncFailures > 0 {
		n.syncFailures--
		return nil, ErrNodeUnavailable
	}

	now := time.Now()
	if slices.ContainsFunc(n.mempool, func(e mempoolTx) bool { return now.Sub(e.submittedAt) >= n.delay }) {
		n.produceBlock(now)
	}

	summary := &client.SyncSummary{
		BlockNum:        n.blockNum,
		UpdatedAccounts: make(map[address.AccountID]crypto.Digest),
	}
	for _, id := range req.Accounts {
		if st, ok := n.accounts[id]; ok && st.updatedAt > req.FromBlock {
			summary.UpdatedAccounts[id] = st.hash
		}
	}

	tags := make(map[note.Tag]struct{}, len(req.Tags))
	for _, t := range req.Tags {
		tags[t] = struct{}{}
	}
	expected := make(map[note.ID]struct{}, len(req.Notes))
	for _, id := range req.Notes {
		expected[id] = struct{}{}
	}
	for id, committed := range n.notes {
		_, tracked := tags[committed.Header.Metadata.Tag]
		_, isExpected := expected[id]
		if !tracked && !isExpected {
			continue
		}
		if committed.Block > req.FromBlock || isExpected {
			summary.CommittedNotes = append(summary.CommittedNotes, committed)
		}
		if at, spent := n.nullifiers[id]; spent && (at > req.FromBlock || isExpected) {
			summary.ConsumedNotes = append(summary.ConsumedNotes, id)
		}
	}
	slices.SortFunc(summary.CommittedNotes, func(a, b client.CommittedNote) int {
		return a.Header.ID.Compare(b.Header.ID)
	})
	slices.SortFunc(summary.ConsumedNotes, crypto.Digest.Compare)

	for _, id := range req.Transactions {
		switch n.outcomes[id].status {
		case transaction.Committed:
			summary.CommittedTransactions = append(summary.CommittedTransactions, id)
		case transaction.Discarded:
			summary.DiscardedTransactions = append(summary.DiscardedTransactions, id)
		}
	}
	return summary, nil
}
