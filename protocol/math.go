package protocol

import (
	"context"
	"fmt"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/NethermindEth/notewise/txrequest"
)

// MathInputKey is the advice map key the math contract reads its operand from.
var MathInputKey = crypto.Digest(felt.NewWord(1, 1, 1, 1))

// MathSource loads an operand supplied through the transaction advice map into slot 0.
var MathSource = fmt.Sprintf(`
export.load_input
    adv.0.%s
end

export.add_one
    add.0.1
end
`, MathInputKey.Hex())

const LoadInputTemplate = "begin call.{load_input} end"

func MathComponent(c compiler.Compiler) (*account.Component, error) {
	component, err := account.CompileComponent(c, MathSource, []account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	if err != nil {
		return nil, err
	}
	return component.WithSupportsAllTypes(), nil
}

// NewMath creates and tracks a public math account.
func NewMath(c *client.Client) (*account.Account, error) {
	component, err := MathComponent(c.Compiler())
	if err != nil {
		return nil, &client.Error{Kind: client.KindCompile, Err: err}
	}
	return c.NewAccount(component, address.RegularAccountUpdatableCode, address.Public)
}

// LoadInputRequest calls load_input with operand bound under MathInputKey.
func LoadInputRequest(comp compiler.Compiler, math *account.Account, operand felt.Word) (*txrequest.Request, error) {
	artifact, err := procedureScript(comp, math.Code, LoadInputTemplate, "load_input")
	if err != nil {
		return nil, err
	}
	return txrequest.NewBuilder().
		WithCustomScript(artifact).
		ExtendAdviceMap(txrequest.AdviceMap{MathInputKey: operand[:]}).
		Build()
}

// LoadInput stores operand in slot 0 of the math account and waits for settlement.
func LoadInput(ctx context.Context, c *client.Client, id address.AccountID, operand felt.Word) (*client.TransactionResult, error) {
	return runProcedure(ctx, c, id, func(comp compiler.Compiler, acc *account.Account) (*txrequest.Request, error) {
		return LoadInputRequest(comp, acc, operand)
	})
}

// MathValue reads slot 0 of the math account from the locally tracked state.
func MathValue(c *client.Client, id address.AccountID) (felt.Word, error) {
	acc, err := c.Account(id)
	if err != nil {
		return felt.Word{}, err
	}
	return acc.Storage.GetItem(0)
}
