package protocol

import (
	"context"
	"errors"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/txrequest"
)

const (
	IncrementTemplate = "begin call.{increment} end"
	ResetTemplate     = "begin call.{reset} end"
)

// NewCounter creates and tracks a public counter account.
func NewCounter(c *client.Client) (*account.Account, error) {
	component, err := CounterComponent(c.Compiler())
	if err != nil {
		return nil, &client.Error{Kind: client.KindCompile, Err: err}
	}
	return c.NewAccount(component, address.RegularAccountUpdatableCode, address.Public)
}

// IncrementRequest builds a transaction calling the counter increment procedure.
func IncrementRequest(comp compiler.Compiler, counter *account.Account) (*txrequest.Request, error) {
	return counterRequest(comp, counter, IncrementTemplate, "increment")
}

// ResetRequest builds a transaction zeroing the counter.
func ResetRequest(comp compiler.Compiler, counter *account.Account) (*txrequest.Request, error) {
	return counterRequest(comp, counter, ResetTemplate, "reset")
}

func counterRequest(comp compiler.Compiler, counter *account.Account, template, proc string) (*txrequest.Request, error) {
	artifact, err := procedureScript(comp, counter.Code, template, proc)
	if err != nil {
		return nil, err
	}
	return txrequest.NewBuilder().WithCustomScript(artifact).Build()
}

// Increment bumps the counter and waits for the transaction to settle.
func Increment(ctx context.Context, c *client.Client, id address.AccountID) (*client.TransactionResult, error) {
	return runProcedure(ctx, c, id, IncrementRequest)
}

func Reset(ctx context.Context, c *client.Client, id address.AccountID) (*client.TransactionResult, error) {
	return runProcedure(ctx, c, id, ResetRequest)
}

// runProcedure builds a request against the tracked state of id and runs it to settlement.
func runProcedure(ctx context.Context, c *client.Client, id address.AccountID,
	build func(compiler.Compiler, *account.Account) (*txrequest.Request, error),
) (*client.TransactionResult, error) {
	acc, err := c.Account(id)
	if err != nil {
		return nil, err
	}
	req, err := build(c.Compiler(), acc)
	if err != nil {
		kind := client.KindConfiguration
		if errors.Is(err, compiler.ErrCompile) {
			kind = client.KindCompile
		}
		return nil, &client.Error{Kind: kind, Account: id, Err: err}
	}
	return c.RunTransaction(ctx, id, req)
}

// CounterValue reads the counter from the locally tracked account state.
func CounterValue(c *client.Client, id address.AccountID) (uint64, error) {
	acc, err := c.Account(id)
	if err != nil {
		return 0, err
	}
	w, err := acc.Storage.GetItem(0)
	if err != nil {
		return 0, err
	}
	return w[0].Uint64(), nil
}
