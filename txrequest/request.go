package txrequest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/note"
)

var (
	ErrConflictingConfiguration = errors.New("conflicting transaction request configuration")
	ErrDuplicateAdviceKey       = errors.New("advice map key already bound to a different value")
	ErrEmptyRequest             = errors.New("transaction request has no script, input notes or output notes")
	ErrEmptyNoteAssets          = errors.New("output note has no assets")
	ErrAssetOverflow            = errors.New("output note assets overflow the fungible asset domain")
	ErrDuplicateOutputNote      = errors.New("duplicate output note")
	ErrInvalidScript            = errors.New("invalid transaction script")
	ErrMissingExpectedNote      = errors.New("script creates a note that was not provided")
	ErrRequestReused            = errors.New("transaction request was already submitted")
)

// Request is the full description of one attempted state transition. It is built by a Builder
// and may be executed exactly once.
type Request struct {
	script              *compiler.Artifact
	adviceMap           AdviceMap
	inputNotes          []note.ID
	ownOutputNotes      []*note.Note
	expectedOutputNotes []*note.Note
	used                atomic.Bool
}

func (r *Request) Script() *compiler.Artifact {
	return r.script
}

func (r *Request) AdviceMap() AdviceMap {
	return r.adviceMap.Clone()
}

func (r *Request) InputNotes() []note.ID {
	return slices.Clone(r.inputNotes)
}

// OwnOutputNotes are created by the executor on behalf of the request, outside of any script.
func (r *Request) OwnOutputNotes() []*note.Note {
	return slices.Clone(r.ownOutputNotes)
}

// ExpectedOutputNotes are the notes the custom script creates, indexed by its create_note operands.
func (r *Request) ExpectedOutputNotes() []*note.Note {
	return slices.Clone(r.expectedOutputNotes)
}

// OutputNotes lists every note the transaction will create.
func (r *Request) OutputNotes() []*note.Note {
	return slices.Concat(r.ownOutputNotes, r.expectedOutputNotes)
}

// OutputAssets totals the assets leaving the executing account, per faucet.
func (r *Request) OutputAssets() map[address.AccountID]uint64 {
	totals := make(map[address.AccountID]uint64)
	for _, n := range r.OutputNotes() {
		for _, a := range n.Assets {
			// Totals were bounds checked when the request was built.
			totals[a.Faucet] += a.Amount
		}
	}
	return totals
}

// MarkUsed claims the request for a single execution.
func (r *Request) MarkUsed() error {
	if !r.used.CompareAndSwap(false, true) {
		return ErrRequestReused
	}
	return nil
}

func (r *Request) Used() bool {
	return r.used.Load()
}

// Summary renders a compact description for logs and errors.
func (r *Request) Summary() string {
	var b strings.Builder
	if r.script != nil {
		fmt.Fprintf(&b, "script=%s ", r.script.Root)
	}
	ids := make([]string, len(r.inputNotes))
	for i, id := range r.inputNotes {
		ids[i] = id.Hex()
	}
	fmt.Fprintf(&b, "consume=[%s] outputs=%d advice=%d", strings.Join(ids, " "), len(r.OutputNotes()), len(r.adviceMap))
	return b.String()
}

// Builder accumulates a Request. Calls compose rather than overwrite; the first failing call is
// recorded, turns every later call into a no-op and is returned by Build.
type Builder struct {
	req *Request
	err error
}

func NewBuilder() *Builder {
	return &Builder{req: &Request{adviceMap: make(AdviceMap)}}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// WithCustomScript sets the transaction script. Setting a second script is a conflict, as is a
// script that creates notes in a request that already has own output notes.
func (b *Builder) WithCustomScript(script *compiler.Artifact) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case script == nil || script.Kind != compiler.TxScript:
		return b.fail(fmt.Errorf("%w: expected a compiled transaction script", ErrInvalidScript))
	case b.req.script != nil:
		return b.fail(fmt.Errorf("%w: custom script already set to %s", ErrConflictingConfiguration, b.req.script.Root))
	case script.EmitsNotes() && len(b.req.ownOutputNotes) > 0:
		return b.fail(fmt.Errorf("%w: script %s creates notes and own output notes are set", ErrConflictingConfiguration,
			script.Root))
	}
	b.req.script = script
	return b
}

func (b *Builder) ExtendAdviceMap(entries AdviceMap) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.req.adviceMap.Merge(entries); err != nil {
		return b.fail(err)
	}
	return b
}

// WithOwnOutputNotes appends notes the executor creates directly from the account vault.
func (b *Builder) WithOwnOutputNotes(notes ...*note.Note) *Builder {
	if b.err != nil {
		return b
	}
	if b.req.script != nil && b.req.script.EmitsNotes() {
		return b.fail(fmt.Errorf("%w: script %s creates notes and own output notes were added", ErrConflictingConfiguration,
			b.req.script.Root))
	}
	all := slices.Concat(b.req.ownOutputNotes, notes)
	if err := checkOutputNotes(slices.Concat(all, b.req.expectedOutputNotes)); err != nil {
		return b.fail(err)
	}
	b.req.ownOutputNotes = all
	return b
}

// WithExpectedOutputNotes supplies the notes created by the custom script, in create_note order.
func (b *Builder) WithExpectedOutputNotes(notes ...*note.Note) *Builder {
	if b.err != nil {
		return b
	}
	all := slices.Concat(b.req.expectedOutputNotes, notes)
	if err := checkOutputNotes(slices.Concat(b.req.ownOutputNotes, all)); err != nil {
		return b.fail(err)
	}
	b.req.expectedOutputNotes = all
	return b
}

// ConsumeNotes records the intent to consume ids. Consumability is checked at submission.
func (b *Builder) ConsumeNotes(ids ...note.ID) *Builder {
	if b.err != nil {
		return b
	}
	for _, id := range ids {
		if !slices.Contains(b.req.inputNotes, id) {
			b.req.inputNotes = append(b.req.inputNotes, id)
		}
	}
	return b
}

// Build finalizes the request. Every later call on the builder fails.
func (b *Builder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	req := b.req
	if req.script == nil && len(req.inputNotes) == 0 && len(req.OutputNotes()) == 0 {
		return nil, ErrEmptyRequest
	}
	if req.script == nil && len(req.expectedOutputNotes) > 0 {
		return nil, fmt.Errorf("%w: expected output notes without a custom script", ErrConflictingConfiguration)
	}
	if req.script != nil {
		for _, idx := range req.script.CreatedNotes() {
			if idx >= len(req.expectedOutputNotes) {
				return nil, fmt.Errorf("%w: create_note.%d with %d expected notes", ErrMissingExpectedNote, idx,
					len(req.expectedOutputNotes))
			}
		}
	}
	b.req, b.err = nil, fmt.Errorf("%w: builder already finalized", ErrRequestReused)
	return req, nil
}

func checkOutputNotes(notes []*note.Note) error {
	seen := make(map[note.ID]struct{}, len(notes))
	totals := make(map[address.AccountID]uint64)
	for _, n := range notes {
		if len(n.Assets) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyNoteAssets, n.ID())
		}
		id := n.ID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateOutputNote, id)
		}
		seen[id] = struct{}{}
		for _, a := range n.Assets {
			total, err := asset.AddAmounts(totals[a.Faucet], a.Amount)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrAssetOverflow, err)
			}
			totals[a.Faucet] = total
		}
	}
	return nil
}
