package protocol

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/script"
	"github.com/NethermindEth/notewise/txrequest"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrNotFaucet   = errors.New("account is not a fungible faucet")
	ErrNoPayments  = errors.New("no payments given")
	ErrMissingProc = errors.New("account code does not export the procedure")
)

// SendAssetTemplate moves the first expected output note out of the sender through the wallet
// send_asset procedure.
const SendAssetTemplate = `
begin
    call.{send_asset}
    create_note.0
end
`

// Payment is one transfer of a dispersal.
type Payment struct {
	Target address.AccountID
	Assets note.Assets
}

// MintRequest builds the faucet transaction issuing amount tokens to target as a pay-to-id note.
func MintRequest(faucet, target address.AccountID, amount uint64, noteType note.Type,
	rng crypto.RandomCoin,
) (*txrequest.Request, *note.Note, error) {
	if faucet.Type() != address.FungibleFaucet {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFaucet, faucet)
	}
	a, err := asset.NewFungibleAsset(faucet, amount)
	if err != nil {
		return nil, nil, err
	}
	n, err := note.NewP2ID(faucet, target, note.Assets{a}, noteType, felt.Zero, rng)
	if err != nil {
		return nil, nil, err
	}
	req, err := txrequest.NewBuilder().WithOwnOutputNotes(n).Build()
	if err != nil {
		return nil, nil, err
	}
	return req, n, nil
}

// Mint issues amount tokens from faucet to target and waits for the mint to settle.
func Mint(ctx context.Context, c *client.Client, faucet, target address.AccountID, amount uint64,
	noteType note.Type,
) (*client.TransactionResult, *note.Note, error) {
	req, n, err := MintRequest(faucet, target, amount, noteType, c.RandomCoin())
	if err != nil {
		return nil, nil, &client.Error{Kind: client.KindConfiguration, Account: faucet, Err: err}
	}
	result, err := c.RunTransaction(ctx, faucet, req)
	return result, n, err
}

// SendAssetScript renders and compiles SendAssetTemplate against the sender code.
func SendAssetScript(comp compiler.Compiler, code *account.Code) (*compiler.Artifact, error) {
	return procedureScript(comp, code, SendAssetTemplate, "send_asset")
}

// procedureScript binds the placeholder named after proc, e.g. {send_asset}, to the root of proc in code.
func procedureScript(comp compiler.Compiler, code *account.Code, template, proc string) (*compiler.Artifact, error) {
	p, ok := code.ProcedureByName(proc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingProc, proc)
	}
	roots := code.ProcedureRoots()
	index := slices.IndexFunc(roots, p.Root.Equal)

	tmpl := script.NewTemplate(template)
	if err := tmpl.BindProcedure(proc, roots, index); err != nil {
		return nil, err
	}
	source, err := tmpl.Render()
	if err != nil {
		return nil, err
	}
	return script.CompileScript(comp, source, nil)
}

// PayToIDRequest builds a transfer of assets from sender to target run through the wallet
// send_asset procedure.
func PayToIDRequest(comp compiler.Compiler, sender *account.Account, target address.AccountID, assets note.Assets,
	noteType note.Type, rng crypto.RandomCoin,
) (*txrequest.Request, *note.Note, error) {
	n, err := note.NewP2ID(sender.ID, target, assets, noteType, felt.Zero, rng)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := SendAssetScript(comp, sender.Code)
	if err != nil {
		return nil, nil, err
	}
	req, err := txrequest.NewBuilder().WithCustomScript(artifact).WithExpectedOutputNotes(n).Build()
	if err != nil {
		return nil, nil, err
	}
	return req, n, nil
}

// PayToID transfers assets from sender to target and waits for the transfer to settle.
func PayToID(ctx context.Context, c *client.Client, sender, target address.AccountID, assets note.Assets,
	noteType note.Type,
) (*client.TransactionResult, *note.Note, error) {
	acc, err := c.Account(sender)
	if err != nil {
		return nil, nil, err
	}
	req, n, err := PayToIDRequest(c.Compiler(), acc, target, assets, noteType, c.RandomCoin())
	if err != nil {
		kind := client.KindConfiguration
		if errors.Is(err, compiler.ErrCompile) {
			kind = client.KindCompile
		}
		return nil, nil, &client.Error{Kind: kind, Account: sender, Err: err}
	}
	result, err := c.RunTransaction(ctx, sender, req)
	return result, n, err
}

// Consume consumes ids into accountID and waits for the transaction to settle.
func Consume(ctx context.Context, c *client.Client, accountID address.AccountID, ids ...note.ID,
) (*client.TransactionResult, error) {
	req, err := txrequest.NewBuilder().ConsumeNotes(ids...).Build()
	if err != nil {
		return nil, &client.Error{Kind: client.KindConfiguration, Account: accountID, Notes: ids, Err: err}
	}
	return c.RunTransaction(ctx, accountID, req)
}

// DisperseRequest builds a single transaction paying every payment as its own pay-to-id note.
// Notes are built concurrently; each draws its own serial number so repeated targets stay distinct.
func DisperseRequest(ctx context.Context, sender address.AccountID, payments []Payment, noteType note.Type,
	rng crypto.RandomCoin,
) (*txrequest.Request, []*note.Note, error) {
	if len(payments) == 0 {
		return nil, nil, ErrNoPayments
	}
	notes := make([]*note.Note, len(payments))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, payment := range payments {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := note.NewP2ID(sender, payment.Target, payment.Assets, noteType, felt.Zero, rng)
			if err != nil {
				return fmt.Errorf("payment %d to %s: %w", i, payment.Target, err)
			}
			notes[i] = n
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	req, err := txrequest.NewBuilder().WithOwnOutputNotes(notes...).Build()
	if err != nil {
		return nil, nil, err
	}
	return req, notes, nil
}

// Disperse pays every payment from sender in one transaction and waits for it to settle.
func Disperse(ctx context.Context, c *client.Client, sender address.AccountID, payments []Payment,
	noteType note.Type,
) (*client.TransactionResult, []*note.Note, error) {
	req, notes, err := DisperseRequest(ctx, sender, payments, noteType, c.RandomCoin())
	if err != nil {
		return nil, nil, &client.Error{Kind: client.KindConfiguration, Account: sender, Err: err}
	}
	result, err := c.RunTransaction(ctx, sender, req)
	return result, notes, err
}

// ConsolidateAndDistribute waits until want notes accepted by filter are consumable by accountID,
// consumes them in one transaction and then disperses payments.
func ConsolidateAndDistribute(ctx context.Context, c *client.Client, accountID address.AccountID, want int,
	filter client.NoteFilter, payments []Payment, noteType note.Type,
) (*client.TransactionResult, []*note.Note, error) {
	consumed, err := c.ConsolidateNotes(ctx, accountID, want, filter)
	if err != nil {
		return nil, nil, err
	}
	if len(payments) == 0 {
		return consumed, nil, nil
	}
	return Disperse(ctx, c, accountID, payments, noteType)
}
