package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/store"
	"github.com/NethermindEth/notewise/txrequest"
	"github.com/NethermindEth/notewise/utils"
)

// TxState is the position of a transaction in the orchestrator lifecycle. Requests being
// assembled by a txrequest.Builder are in the implicit Building state.
type TxState uint8

const (
	// Submitted transactions are executed and proven but not yet sent to the network.
	Submitted TxState = iota + 1
	PendingSync
	Settled
	Rejected
)

func (s TxState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case PendingSync:
		return "pending sync"
	case Settled:
		return "settled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// TransactionResult is the handle of an executed and proven transaction. The account stays
// locked until the handle is submitted and settles, or is discarded.
type TransactionResult struct {
	Executed *transaction.ExecutedTransaction
	Proven   *transaction.ProvenTransaction
	Sequence uint64
	Request  string
	used     atomic.Bool
}

func (r *TransactionResult) ID() transaction.ID {
	return r.Proven.ID
}

func (r *TransactionResult) AccountID() address.AccountID {
	return r.Executed.AccountID
}

type pendingTx struct {
	result      *TransactionResult
	submittedAt time.Time
}

// TxState reports the lifecycle state of a transaction started by this client.
func (c *Client) TxState(id transaction.ID) (TxState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[id]
	return s, ok
}

func (c *Client) setState(id transaction.ID, s TxState) {
	c.mu.Lock()
	c.states[id] = s
	c.mu.Unlock()
}

// NewTransaction executes and proves req on behalf of accountID. It waits for any earlier
// transaction of the same account to settle first, syncing while that one is submitted. Input notes are checked against the last
// synchronised view right before execution.
func (c *Client) NewTransaction(ctx context.Context, accountID address.AccountID,
	req *txrequest.Request,
) (*TransactionResult, error) {
	fail := func(kind Kind, err error) *Error {
		return &Error{Kind: kind, Account: accountID, Notes: req.InputNotes(), Request: req.Summary(), Err: err}
	}
	if err := req.MarkUsed(); err != nil {
		return nil, fail(KindConfiguration, err)
	}
	if err := c.lockAccount(ctx, accountID); err != nil {
		return nil, fail(err.Kind, err.Err)
	}
	result, err := c.newTransaction(ctx, accountID, req, fail)
	if err != nil {
		c.unlockAccount(accountID)
		return nil, err
	}
	return result, nil
}

func (c *Client) newTransaction(ctx context.Context, accountID address.AccountID, req *txrequest.Request,
	fail func(Kind, error) *Error,
) (*TransactionResult, error) {
	acc, err := c.store.Account(accountID)
	if err != nil {
		return nil, fail(KindConfiguration, errors.Join(ErrUnknownAccount, err))
	}

	blockRef := c.store.SyncHeight()
	inputs := make([]*note.Note, 0, len(req.InputNotes()))
	for _, id := range req.InputNotes() {
		rec, err := c.store.InputNote(id)
		if err != nil {
			return nil, fail(KindConfiguration, errors.Join(ErrNoteNotConsumable, err))
		}
		if cons, ok := consumability(rec, accountID); rec.State != store.Committed || !ok || cons.AfterBlock > blockRef {
			return nil, fail(KindConfiguration, fmt.Errorf("%w: note %s is %s", ErrNoteNotConsumable, id, rec.State))
		}
		inputs = append(inputs, rec.Note)
	}

	c.mu.Lock()
	c.sequence[accountID]++
	seq := c.sequence[accountID]
	c.mu.Unlock()

	c.log.Debugw("Executing transaction", "account", accountID, "seq", seq, "request", req.Summary())
	executed, err := c.executor.Execute(ctx, acc, inputs, req, blockRef)
	if err != nil {
		return nil, fail(ctxKind(ctx, KindExecution), err)
	}

	proven, err := c.prove(ctx, executed)
	if err != nil {
		return nil, fail(ctxKind(ctx, KindProving), err)
	}

	c.setState(proven.ID, Submitted)
	c.log.Debugw("Proved transaction", "account", accountID, "tx", proven.ID, "seq", seq)
	return &TransactionResult{Executed: executed, Proven: proven, Sequence: seq, Request: req.Summary()}, nil
}

func (c *Client) prove(ctx context.Context, executed *transaction.ExecutedTransaction) (*transaction.ProvenTransaction, error) {
	var proven *transaction.ProvenTransaction
	policy := utils.Retry{
		MaxAttempts: c.cfg.ProvingRetries + 1,
		MinWait:     c.cfg.ProvingBackoff,
		Backoff:     utils.ExponentialBackoff,
		Retryable: func(error) bool {
			return ctx.Err() == nil
		},
	}
	err := c.prover.Do(ctx, func(p *Prover) error {
		return policy.Do(ctx, func(attempt int) error {
			var err error
			if proven, err = (*p).Prove(ctx, executed); err != nil {
				c.log.Warnw("Proving failed", "account", executed.AccountID, "attempt", attempt, "err", err)
			}
			return err
		})
	})
	return proven, err
}

// Discard releases the account lock held by a result that will not be submitted.
func (c *Client) Discard(result *TransactionResult) {
	if result.used.CompareAndSwap(false, true) {
		c.mu.Lock()
		delete(c.states, result.ID())
		c.mu.Unlock()
		c.unlockAccount(result.AccountID())
	}
}

// SubmitTransaction sends a proven transaction to the network. Submission failures are returned
// to the caller, never retried here; the account lock is released and no local state changes.
func (c *Client) SubmitTransaction(ctx context.Context, result *TransactionResult) error {
	id := result.ID()
	if !result.used.CompareAndSwap(false, true) {
		return &Error{Kind: KindConfiguration, Account: result.AccountID(), Tx: &id, Request: result.Request,
			Err: txrequest.ErrRequestReused}
	}
	if err := c.network.Submit(ctx, result.Proven); err != nil {
		c.mu.Lock()
		delete(c.states, id)
		c.mu.Unlock()
		c.unlockAccount(result.AccountID())
		return &Error{Kind: ctxKind(ctx, KindSubmission), Account: result.AccountID(), Tx: &id,
			Notes: result.Executed.InputNotes, Request: result.Request, Err: err}
	}

	c.mu.Lock()
	c.pending[id] = &pendingTx{result: result, submittedAt: time.Now()}
	c.states[id] = PendingSync
	c.mu.Unlock()

	c.listener.OnSubmitted()
	c.log.Infow("Submitted transaction", "account", result.AccountID(), "tx", id, "seq", result.Sequence)
	return nil
}

// AwaitSettlement syncs until the transaction is settled or rejected, at most
// Config.MaxPollAttempts times. Giving up, by timeout or cancellation, only stops the wait: the
// transaction stays submitted and the account stays locked until a later SyncState, or the next
// NewTransaction on the account, resolves both.
func (c *Client) AwaitSettlement(ctx context.Context, id transaction.ID) error {
	state, ok := c.TxState(id)
	if !ok || state == Submitted {
		return &Error{Kind: KindConfiguration, Tx: &id, Err: ErrUnknownTx}
	}

	var rejected *Error
	err := c.poll(ctx, func() bool {
		switch state, _ = c.TxState(id); state {
		case Settled:
			return true
		case Rejected:
			rejected = c.rejection(id)
			return true
		}
		return false
	})
	if rejected != nil {
		return rejected
	}
	if err != nil {
		err.Tx = &id
		return err
	}
	return nil
}

func (c *Client) rejection(id transaction.ID) *Error {
	rec, err := c.store.Transaction(id)
	if err != nil {
		return &Error{Kind: KindReverted, Tx: &id, Err: err}
	}
	return &Error{
		Kind:    KindReverted,
		Account: rec.AccountID,
		Tx:      &id,
		Notes:   rec.InputNotes,
		Request: rec.Request,
		Err:     errors.New("transaction was discarded by the network"),
	}
}

// RunTransaction executes, proves, submits and waits for req to settle.
func (c *Client) RunTransaction(ctx context.Context, accountID address.AccountID,
	req *txrequest.Request,
) (*TransactionResult, error) {
	result, err := c.NewTransaction(ctx, accountID, req)
	if err != nil {
		return nil, err
	}
	if err := c.SubmitTransaction(ctx, result); err != nil {
		return nil, err
	}
	if err := c.AwaitSettlement(ctx, result.ID()); err != nil {
		return result, err
	}
	return result, nil
}

// poll syncs and evaluates done up to Config.MaxPollAttempts times, sleeping Config.PollInterval
// between attempts. Sync failures are transient and only reported once the cap is reached.
func (c *Client) poll(ctx context.Context, done func() bool) *Error {
	var lastErr error
	for attempt := range c.cfg.MaxPollAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &Error{Kind: KindCancelled, Err: ctx.Err()}
			case <-time.After(c.cfg.PollInterval):
			}
		}
		c.listener.OnPollAttempt()

		if _, err := c.SyncState(ctx); err != nil {
			if ctx.Err() != nil {
				return &Error{Kind: KindCancelled, Err: ctx.Err()}
			}
			lastErr = err
			c.log.Debugw("Sync failed while polling", "attempt", attempt, "err", err)
			continue
		}
		if done() {
			return nil
		}
	}
	return &Error{Kind: KindTimeout, Err: errors.Join(
		fmt.Errorf("%w: gave up after %d attempts", utils.ErrMaxAttempts, c.cfg.MaxPollAttempts), lastErr)}
}
