package note

import (
	"fmt"
	"sync"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

// P2IDSource pays the note assets to the account whose id is the single note input.
const P2IDSource = `
# pay-to-id: fails unless executed by the account named in the note inputs
begin
    assert_target
    receive
end
`

var (
	p2idOnce   sync.Once
	p2idScript *Script
)

// P2IDScript returns the compiled standard pay-to-id script.
func P2IDScript() *Script {
	p2idOnce.Do(func() {
		artifact, err := compiler.NewAssembler().Compile(P2IDSource, compiler.Options{Kind: compiler.NoteScript})
		if err != nil {
			panic(fmt.Sprintf("compile p2id script: %v", err))
		}
		p2idScript, err = NewScript(artifact)
		if err != nil {
			panic(err)
		}
	})
	return p2idScript
}

// NewP2ID builds a pay-to-id note. The serial number is drawn from rng, so two calls with the
// same arguments produce distinct notes.
func NewP2ID(sender, target address.AccountID, assets Assets, noteType Type, aux felt.Felt,
	rng crypto.RandomCoin,
) (*Note, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyAssets
	}
	serial, err := rng.DrawWord()
	if err != nil {
		return nil, fmt.Errorf("draw serial number: %w", err)
	}
	metadata := Metadata{
		Sender: sender,
		Type:   noteType,
		Tag:    TagFromAccountID(target),
		Aux:    aux,
	}
	recipient := Recipient{
		SerialNum: serial,
		Script:    P2IDScript(),
		Inputs:    []felt.Felt{target.Felt()},
	}
	return New(assets, metadata, recipient), nil
}

// P2IDTarget returns the account a pay-to-id note is locked to.
func (n *Note) P2IDTarget() (address.AccountID, bool) {
	if n.Recipient.Script == nil || !n.Recipient.Script.Root.Equal(P2IDScript().Root) || len(n.Recipient.Inputs) != 1 {
		return 0, false
	}
	id, err := address.FromFelt(n.Recipient.Inputs[0])
	if err != nil {
		return 0, false
	}
	return id, true
}
