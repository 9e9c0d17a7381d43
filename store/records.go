package store

import (
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
)

type NoteState uint8

const (
	// Expected notes are known locally but not yet seen on chain.
	Expected NoteState = iota
	Committed
	Consumed
)

func (s NoteState) String() string {
	switch s {
	case Expected:
		return "expected"
	case Committed:
		return "committed"
	case Consumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// InputNoteRecord is a note some tracked account may consume.
type InputNoteRecord struct {
	Note        *note.Note
	State       NoteState
	CommitBlock uint64
	// ConsumerTx is the local transaction that consumed the note, if any.
	ConsumerTx *transaction.ID `cbor:",omitempty"`
}

func (r *InputNoteRecord) ID() note.ID {
	return r.Note.ID()
}

// TransactionRecord is the local history entry of a submitted transaction.
type TransactionRecord struct {
	ID               transaction.ID
	AccountID        address.AccountID
	Status           transaction.Status
	Request          string
	InputNotes       []note.ID
	OutputNotes      []note.ID
	FinalAccountHash crypto.Digest
	BlockRef         uint64
	CommitBlock      uint64
}
