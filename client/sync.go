package client

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/store"
)

// SyncState fetches chain changes since the last sync and applies them to the local store in
// one atomic update. It is the only way submitted transactions settle.
func (c *Client) SyncState(ctx context.Context) (*SyncSummary, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	pendingIDs := slices.SortedFunc(maps.Keys(c.pending), transaction.ID.Compare)
	c.mu.Unlock()

	var expected []note.ID
	for _, rec := range c.store.InputNotes(func(r *store.InputNoteRecord) bool { return r.State == store.Expected }) {
		expected = append(expected, rec.ID())
	}
	req := &SyncRequest{
		FromBlock:    c.store.SyncHeight(),
		Accounts:     c.store.AccountIDs(),
		Tags:         c.store.Tags(),
		Notes:        expected,
		Transactions: pendingIDs,
	}
	start := time.Now()
	summary, err := c.network.SyncState(ctx, req)
	c.listener.OnSync(time.Since(start), err)
	if err != nil {
		return nil, &Error{Kind: ctxKind(ctx, KindSync), Err: err}
	}

	committed, discarded := c.resolvePending(summary)
	if err := c.store.Update(func(w *store.Writer) error {
		return c.apply(w, summary, req.Accounts, committed, discarded)
	}); err != nil {
		return nil, &Error{Kind: KindSync, Err: err}
	}

	c.mu.Lock()
	for _, p := range committed {
		delete(c.pending, p.result.ID())
		c.states[p.result.ID()] = Settled
	}
	for _, p := range discarded {
		delete(c.pending, p.result.ID())
		c.states[p.result.ID()] = Rejected
	}
	c.mu.Unlock()

	for _, p := range committed {
		c.unlockAccount(p.result.AccountID())
		c.listener.OnSettled(time.Since(p.submittedAt))
		c.log.Infow("Transaction settled", "account", p.result.AccountID(), "tx", p.result.ID(), "block", summary.BlockNum)
	}
	for _, p := range discarded {
		c.unlockAccount(p.result.AccountID())
		c.listener.OnReverted()
		c.log.Warnw("Transaction reverted", "account", p.result.AccountID(), "tx", p.result.ID(),
			"notes", p.result.Executed.InputNotes)
	}
	c.log.Debugw("Synced state", "block", summary.BlockNum, "notes", len(summary.CommittedNotes),
		"consumed", len(summary.ConsumedNotes))
	return summary, nil
}

func (c *Client) resolvePending(summary *SyncSummary) (committed, discarded []*pendingTx) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range summary.CommittedTransactions {
		if p, ok := c.pending[id]; ok {
			committed = append(committed, p)
		}
	}
	for _, id := range summary.DiscardedTransactions {
		if p, ok := c.pending[id]; ok {
			discarded = append(discarded, p)
		}
	}
	return committed, discarded
}

// apply stages the effects of a sync. Own transactions are applied before notes so that notes
// they created and that were committed in the same window are recognised.
func (c *Client) apply(w *store.Writer, summary *SyncSummary, tracked []address.AccountID,
	committed, discarded []*pendingTx,
) error {
	for _, p := range committed {
		executed := p.result.Executed
		id := p.result.ID()

		final := executed.FinalAccount.Clone()
		final.Seed = nil
		if err := w.PutAccount(final); err != nil {
			return err
		}
		for _, nid := range executed.InputNotes {
			if rec, ok := w.InputNote(nid); ok {
				rec.State = store.Consumed
				rec.ConsumerTx = &id
				if err := w.PutInputNote(rec); err != nil {
					return err
				}
			}
		}
		for _, n := range executed.OutputNotes {
			rec := &store.InputNoteRecord{Note: n, State: store.Expected}
			if _, exists := w.InputNote(n.ID()); exists || !consumableByAny(rec, tracked) {
				continue
			}
			if err := w.PutInputNote(rec); err != nil {
				return err
			}
		}
		if err := w.PutTransaction(txRecord(p, transaction.Committed, summary.BlockNum)); err != nil {
			return err
		}
	}
	for _, p := range discarded {
		if err := w.PutTransaction(txRecord(p, transaction.Discarded, 0)); err != nil {
			return err
		}
	}

	for _, cn := range summary.CommittedNotes {
		rec, ok := w.InputNote(cn.Header.ID)
		switch {
		case ok && rec.State == store.Expected:
			rec.State = store.Committed
			rec.CommitBlock = cn.Block
		case !ok && cn.Note != nil && cn.Note.ID().Equal(cn.Header.ID):
			rec = &store.InputNoteRecord{Note: cn.Note, State: store.Committed, CommitBlock: cn.Block}
			if !consumableByAny(rec, tracked) {
				continue
			}
		default:
			continue
		}
		if err := w.PutInputNote(rec); err != nil {
			return err
		}
	}

	for _, nid := range summary.ConsumedNotes {
		if rec, ok := w.InputNote(nid); ok && rec.State != store.Consumed {
			rec.State = store.Consumed
			if err := w.PutInputNote(rec); err != nil {
				return err
			}
		}
	}

	for id, hash := range summary.UpdatedAccounts {
		if acc, ok := w.Account(id); ok && !acc.Hash().Equal(hash) {
			c.log.Warnw("Local account state differs from chain", "account", id, "local", acc.Hash(), "chain", hash)
		}
	}

	w.SetSyncHeight(summary.BlockNum)
	return nil
}

func txRecord(p *pendingTx, status transaction.Status, block uint64) *store.TransactionRecord {
	executed := p.result.Executed
	return &store.TransactionRecord{
		ID:               p.result.ID(),
		AccountID:        executed.AccountID,
		Status:           status,
		Request:          p.result.Request,
		InputNotes:       executed.InputNotes,
		OutputNotes:      executed.OutputNoteIDs(),
		FinalAccountHash: executed.FinalAccountHash(),
		BlockRef:         executed.BlockRef,
		CommitBlock:      block,
	}
}
