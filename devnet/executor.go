package devnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/txrequest"
)

var (
	ErrExecution         = errors.New("transaction execution failed")
	ErrMaxSupplyExceeded = errors.New("faucet max supply exceeded")
)

// Executor interprets the reference instruction set against a copy of the account.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

type machine struct {
	acc      *account.Account
	advice   txrequest.AdviceMap
	expected []*note.Note
	outputs  []*note.Note
}

func (e *Executor) Execute(ctx context.Context, acc *account.Account, inputs []*note.Note, req *txrequest.Request,
	blockRef uint64,
) (*transaction.ExecutedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &machine{acc: acc.Clone(), advice: req.AdviceMap(), expected: req.ExpectedOutputNotes()}

	inputIDs := make([]note.ID, 0, len(inputs))
	for _, n := range inputs {
		if err := m.consume(n); err != nil {
			return nil, fmt.Errorf("%w: note %s: %w", ErrExecution, n.ID(), err)
		}
		inputIDs = append(inputIDs, n.ID())
	}
	if script := req.Script(); script != nil {
		if err := m.run(script.Body, nil); err != nil {
			return nil, fmt.Errorf("%w: script %s: %w", ErrExecution, script.Root, err)
		}
	}
	for _, n := range req.OwnOutputNotes() {
		if err := m.emit(n); err != nil {
			return nil, fmt.Errorf("%w: output note %s: %w", ErrExecution, n.ID(), err)
		}
	}
	m.acc.Nonce++

	executed := &transaction.ExecutedTransaction{
		AccountID:          acc.ID,
		InitialAccountHash: acc.Hash(),
		FinalAccount:       m.acc,
		InputNotes:         inputIDs,
		OutputNotes:        m.outputs,
		BlockRef:           blockRef,
	}
	if acc.IsNew() {
		seed := *acc.Seed
		executed.InitialSeed = &seed
	}

	sig, err := m.acc.Sign(executed.SigningMessage())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	pub, err := m.acc.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	executed.Signature, executed.PublicKey = sig, pub
	return executed, nil
}

// consume runs the note script with the note in scope.
func (m *machine) consume(n *note.Note) error {
	if n.Recipient.Script == nil {
		return errors.New("note has no script")
	}
	return m.run(n.Recipient.Script.Body, n)
}

func (m *machine) run(body []compiler.Instruction, current *note.Note) error {
	for _, ins := range body {
		if err := m.step(ins, current); err != nil {
			return fmt.Errorf("%s: %w", ins, err)
		}
	}
	return nil
}

func (m *machine) step(ins compiler.Instruction, current *note.Note) error {
	storage := m.acc.Storage
	switch ins.Op {
	case compiler.OpNop:
		return nil
	case compiler.OpIncr, compiler.OpAdd:
		delta := uint64(1)
		if ins.Op == compiler.OpAdd {
			delta = ins.Args[1]
		}
		w, err := storage.GetItem(int(ins.Args[0]))
		if err != nil {
			return err
		}
		d := felt.New(delta)
		w[0].Add(&w[0], &d)
		return storage.SetItem(int(ins.Args[0]), w)
	case compiler.OpSet:
		return storage.SetItem(int(ins.Args[0]), felt.NewWord(ins.Args[1], ins.Args[2], ins.Args[3], ins.Args[4]))
	case compiler.OpAdv:
		value, ok := m.advice.Get(ins.Target)
		if !ok {
			return fmt.Errorf("advice key %s not found", ins.Target)
		}
		if len(value) != felt.WordSize {
			return fmt.Errorf("advice value for %s has %d elements, expected %d", ins.Target, len(value), felt.WordSize)
		}
		return storage.SetItem(int(ins.Args[0]), felt.Word(value))
	case compiler.OpCall:
		proc, ok := m.acc.Code.Procedure(ins.Target)
		if !ok {
			return fmt.Errorf("account %s has no procedure %s", m.acc.ID, ins.Target)
		}
		return m.run(proc.Body, current)
	case compiler.OpReceive:
		if current == nil {
			return errors.New("receive outside of a note")
		}
		for _, a := range current.Assets {
			if err := m.acc.Vault.Add(a); err != nil {
				return err
			}
		}
		return nil
	case compiler.OpAssertTarget:
		if current == nil || len(current.Recipient.Inputs) == 0 {
			return errors.New("assert_target needs a note with a target input")
		}
		want := m.acc.ID.Felt()
		if !current.Recipient.Inputs[0].Equal(&want) {
			return fmt.Errorf("note is not addressed to %s", m.acc.ID)
		}
		return nil
	case compiler.OpCreateNote:
		idx := int(ins.Args[0])
		if idx >= len(m.expected) {
			return fmt.Errorf("no expected output note %d", idx)
		}
		return m.emit(m.expected[idx])
	default:
		return fmt.Errorf("unsupported instruction %s", ins.Op)
	}
}

// emit moves the note assets out of the vault, or mints them when the account is their faucet.
func (m *machine) emit(n *note.Note) error {
	for _, a := range n.Assets {
		if a.Faucet == m.acc.ID {
			if err := m.mint(a); err != nil {
				return err
			}
			continue
		}
		if err := m.acc.Vault.Remove(a); err != nil {
			return err
		}
	}
	m.outputs = append(m.outputs, n)
	return nil
}

func (m *machine) mint(a asset.FungibleAsset) error {
	meta, err := m.acc.Storage.GetItem(account.FaucetMetadataSlot)
	if err != nil {
		return err
	}
	maxSupply, issued := meta[0].Uint64(), meta[3].Uint64()
	total, err := asset.AddAmounts(issued, a.Amount)
	if err != nil || total > maxSupply {
		return fmt.Errorf("%w: issued %d, minting %d, max %d", ErrMaxSupplyExceeded, issued, a.Amount, maxSupply)
	}
	meta[3] = felt.New(total)
	return m.acc.Storage.SetItem(account.FaucetMetadataSlot, meta)
}

// Proof is the stand-in proof the devnet prover attaches and the node checks.
func Proof(id transaction.ID) []byte {
	d := crypto.NewHasher("devnet-proof").UpdateDigest(id).Finish().Bytes()
	return d[:]
}
