package devnet

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/NethermindEth/notewise/core/transaction"
)

var ErrProverUnavailable = errors.New("prover unavailable")

// Prover attaches a stand-in proof. Failures can be injected to exercise retries.
type Prover struct {
	failures atomic.Int64
	proofs   atomic.Uint64
}

func NewProver() *Prover {
	return &Prover{}
}

// WithTransientFailures makes the next n Prove calls fail with ErrProverUnavailable.
func (p *Prover) WithTransientFailures(n int) *Prover {
	p.failures.Store(int64(n))
	return p
}

// Proofs returns the number of successful proofs.
func (p *Prover) Proofs() uint64 {
	return p.proofs.Load()
}

func (p *Prover) Prove(ctx context.Context, tx *transaction.ExecutedTransaction) (*transaction.ProvenTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.failures.Add(-1) >= 0 {
		return nil, ErrProverUnavailable
	}

	id := tx.ID()
	proven := &transaction.ProvenTransaction{
		ID:                 id,
		AccountID:          tx.AccountID,
		InitialAccountHash: tx.InitialAccountHash,
		FinalAccountHash:   tx.FinalAccountHash(),
		InputNotes:         tx.InputNotes,
		OutputNotes:        tx.OutputNotes,
		BlockRef:           tx.BlockRef,
		InitialSeed:        tx.InitialSeed,
		Signature:          tx.Signature,
		PublicKey:          tx.PublicKey,
		Proof:              Proof(id),
	}
	p.proofs.Add(1)
	return proven, nil
}
