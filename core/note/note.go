package note

import (
	"errors"
	"fmt"
	"slices"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

// MaxAssets bounds the number of assets a single note can carry.
const MaxAssets = 255

var (
	ErrEmptyAssets     = errors.New("note carries no assets")
	ErrTooManyAssets   = errors.New("too many assets in note")
	ErrDuplicateFaucet = errors.New("note holds two assets from the same faucet")
	ErrNotNoteScript   = errors.New("artifact is not a note script")
)

// ID is the commitment identifying a note.
type ID = crypto.Digest

type Type uint8

const (
	Public Type = iota
	Private
)

func (t Type) String() string {
	if t == Private {
		return "private"
	}
	return "public"
}

// Tag lets the network route notes to interested clients without revealing recipients.
type Tag uint32

// TagFromAccountID derives the tag of notes addressed to id from its high bits.
func TagFromAccountID(id address.AccountID) Tag {
	return Tag(uint64(id) >> 32)
}

type ExecutionHint struct {
	// AfterBlock is the first block in which the note may be consumed; zero means always.
	AfterBlock uint64
}

type Metadata struct {
	Sender address.AccountID
	Type   Type
	Tag    Tag
	Hint   ExecutionHint
	Aux    felt.Felt
}

// Script is a compiled note script.
type Script struct {
	Root crypto.Digest
	Body []compiler.Instruction
}

func NewScript(artifact *compiler.Artifact) (*Script, error) {
	if artifact.Kind != compiler.NoteScript {
		return nil, fmt.Errorf("%w: got %s", ErrNotNoteScript, artifact.Kind)
	}
	return &Script{Root: artifact.Root, Body: slices.Clone(artifact.Body)}, nil
}

func InputsCommitment(inputs []felt.Felt) crypto.Digest {
	return crypto.HashElements("note-inputs", inputs...)
}

// Recipient binds a serial number, a script and its inputs. Only its digest is public.
type Recipient struct {
	SerialNum felt.Word
	Script    *Script
	Inputs    []felt.Felt
}

func (r *Recipient) Digest() crypto.Digest {
	return RecipientDigest(r.SerialNum, r.Script.Root, r.Inputs)
}

func RecipientDigest(serial felt.Word, scriptRoot crypto.Digest, inputs []felt.Felt) crypto.Digest {
	serialHash := crypto.NewHasher("note-serial").UpdateWord(serial, felt.ZeroWord).Finish()
	withScript := crypto.Merge("note-recipient", serialHash, scriptRoot)
	return crypto.Merge("note-recipient", withScript, InputsCommitment(inputs))
}

// Assets is the ordered asset list of a note.
type Assets []asset.FungibleAsset

func NewAssets(assets ...asset.FungibleAsset) (Assets, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyAssets
	}
	if len(assets) > MaxAssets {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAssets, len(assets))
	}
	seen := make(map[address.AccountID]struct{}, len(assets))
	for _, a := range assets {
		if _, dup := seen[a.Faucet]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFaucet, a.Faucet)
		}
		seen[a.Faucet] = struct{}{}
	}
	return slices.Clone(assets), nil
}

func (a Assets) Commitment() crypto.Digest {
	h := crypto.NewHasher("note-assets")
	for _, fa := range a {
		h.UpdateWord(fa.Word())
	}
	return h.Finish()
}

// Note is an asset-bearing, script-gated object produced and consumed by transactions.
type Note struct {
	Assets    Assets
	Metadata  Metadata
	Recipient Recipient
}

func New(assets Assets, metadata Metadata, recipient Recipient) *Note {
	return &Note{Assets: assets, Metadata: metadata, Recipient: recipient}
}

// ID is a pure function of the recipient and assets, so identical notes collide on purpose.
func (n *Note) ID() ID {
	return DeriveID(n.Recipient.Digest(), n.Assets)
}

// DeriveID computes a note id from its recipient digest and assets.
func DeriveID(recipient crypto.Digest, assets Assets) ID {
	return crypto.Merge("note-id", recipient, assets.Commitment())
}

func (n *Note) Header() Header {
	return Header{ID: n.ID(), Metadata: n.Metadata}
}

// Header is the part of a note that is always published, even for private notes.
type Header struct {
	ID       ID
	Metadata Metadata
}
