package client

import (
	"context"
	"slices"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/store"
	"github.com/NethermindEth/notewise/txrequest"
)

// NoteConsumability tells which account may consume a note and from which block on.
type NoteConsumability struct {
	Account    address.AccountID
	AfterBlock uint64
}

type ConsumableNote struct {
	Record        *store.InputNoteRecord
	Consumability []NoteConsumability
}

// NoteFilter narrows consumable note queries.
type NoteFilter func(*note.Note) bool

// FromFaucet accepts notes carrying an asset of faucet.
func FromFaucet(faucet address.AccountID) NoteFilter {
	return func(n *note.Note) bool {
		return slices.ContainsFunc(n.Assets, func(a asset.FungibleAsset) bool { return a.Faucet == faucet })
	}
}

func consumability(rec *store.InputNoteRecord, id address.AccountID) (NoteConsumability, bool) {
	if target, ok := rec.Note.P2IDTarget(); ok && target != id {
		return NoteConsumability{}, false
	}
	return NoteConsumability{Account: id, AfterBlock: rec.Note.Metadata.Hint.AfterBlock}, true
}

func consumableByAny(rec *store.InputNoteRecord, accounts []address.AccountID) bool {
	for _, id := range accounts {
		if _, ok := consumability(rec, id); ok {
			return true
		}
	}
	return false
}

// GetConsumableNotes lists committed, unconsumed notes consumable by the given accounts, or by
// any tracked account when none are given. The answer reflects the last sync only.
func (c *Client) GetConsumableNotes(accounts ...address.AccountID) []ConsumableNote {
	if len(accounts) == 0 {
		accounts = c.store.AccountIDs()
	}
	var out []ConsumableNote
	for _, rec := range c.store.InputNotes(func(r *store.InputNoteRecord) bool { return r.State == store.Committed }) {
		var cons []NoteConsumability
		for _, id := range accounts {
			if nc, ok := consumability(rec, id); ok {
				cons = append(cons, nc)
			}
		}
		if len(cons) > 0 {
			out = append(out, ConsumableNote{Record: rec, Consumability: cons})
		}
	}
	return out
}

func (c *Client) consumableNow(accountID address.AccountID, filter NoteFilter) []note.ID {
	height := c.store.SyncHeight()
	var ids []note.ID
	for _, cn := range c.GetConsumableNotes(accountID) {
		if cn.Consumability[0].AfterBlock > height {
			continue
		}
		if filter == nil || filter(cn.Record.Note) {
			ids = append(ids, cn.Record.ID())
		}
	}
	return ids
}

// WaitForConsumableNotes syncs until at least want notes accepted by filter are consumable by
// accountID, giving up with a timeout after Config.MaxPollAttempts syncs.
func (c *Client) WaitForConsumableNotes(ctx context.Context, accountID address.AccountID, want int,
	filter NoteFilter,
) ([]note.ID, error) {
	var ids []note.ID
	err := c.poll(ctx, func() bool {
		ids = c.consumableNow(accountID, filter)
		c.log.Debugw("Consumable notes", "account", accountID, "have", len(ids), "want", want)
		return len(ids) >= want
	})
	if err != nil {
		err.Account = accountID
		err.Notes = ids
		return nil, err
	}
	return ids, nil
}

// ConsolidateNotes waits for want consumable notes and consumes all of them in one transaction.
func (c *Client) ConsolidateNotes(ctx context.Context, accountID address.AccountID, want int,
	filter NoteFilter,
) (*TransactionResult, error) {
	ids, err := c.WaitForConsumableNotes(ctx, accountID, want, filter)
	if err != nil {
		return nil, err
	}
	req, err := txrequest.NewBuilder().ConsumeNotes(ids...).Build()
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Account: accountID, Notes: ids, Err: err}
	}
	return c.RunTransaction(ctx, accountID, req)
}
