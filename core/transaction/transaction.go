package transaction

import (
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/core/note"
)

// ID commits to the state change of a transaction.
type ID = crypto.Digest

// ExecutedTransaction is the outcome of running a request against an account, before proving.
type ExecutedTransaction struct {
	AccountID          address.AccountID
	InitialAccountHash crypto.Digest
	// FinalAccount is the full post-state; it never leaves the client for private accounts.
	FinalAccount *account.Account
	InputNotes   []note.ID
	OutputNotes  []*note.Note
	BlockRef     uint64
	// InitialSeed is set when the transaction creates the account on chain.
	InitialSeed *felt.Word `cbor:",omitempty"`
	Signature   []byte
	PublicKey   []byte
}

func (t *ExecutedTransaction) FinalAccountHash() crypto.Digest {
	return t.FinalAccount.Hash()
}

func (t *ExecutedTransaction) OutputNoteIDs() []note.ID {
	return noteIDs(t.OutputNotes)
}

// ID binds the account transition to the notes it consumes and creates.
func (t *ExecutedTransaction) ID() ID {
	return ComputeID(t.InitialAccountHash, t.FinalAccountHash(), t.InputNotes, t.OutputNoteIDs())
}

// SigningMessage is what the account auth key signs.
func (t *ExecutedTransaction) SigningMessage() crypto.Digest {
	return crypto.Merge("tx-auth", t.ID(), crypto.HashElements("tx-auth", t.AccountID.Felt(), felt.New(t.BlockRef)))
}

func ComputeID(initial, final crypto.Digest, inputs, outputs []note.ID) ID {
	h := crypto.NewHasher("transaction-id").UpdateDigest(initial, final)
	h.Update(felt.New(uint64(len(inputs)))).UpdateDigest(inputs...)
	h.Update(felt.New(uint64(len(outputs)))).UpdateDigest(outputs...)
	return h.Finish()
}

// ProvenTransaction is what gets submitted to the network. It carries commitments only; the
// full account state stays with the client.
type ProvenTransaction struct {
	ID                 ID
	AccountID          address.AccountID
	InitialAccountHash crypto.Digest
	FinalAccountHash   crypto.Digest
	InputNotes         []note.ID
	// OutputNotes are published in full when public; only their headers are kept for private notes.
	OutputNotes []*note.Note
	BlockRef    uint64
	InitialSeed *felt.Word `cbor:",omitempty"`
	Signature   []byte
	PublicKey   []byte
	Proof       []byte
}

func (t *ProvenTransaction) OutputNoteIDs() []note.ID {
	return noteIDs(t.OutputNotes)
}

// SigningMessage recomputes the message the account signed.
func (t *ProvenTransaction) SigningMessage() crypto.Digest {
	return crypto.Merge("tx-auth", t.ID, crypto.HashElements("tx-auth", t.AccountID.Felt(), felt.New(t.BlockRef)))
}

func noteIDs(notes []*note.Note) []note.ID {
	ids := make([]note.ID, len(notes))
	for i, n := range notes {
		ids[i] = n.ID()
	}
	return ids
}

type Status uint8

const (
	Pending Status = iota
	Committed
	Discarded
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}
