package account

import (
	"fmt"
	"slices"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/crypto"
)

// Code is the compiled procedure set of an account and its commitment.
type Code struct {
	Commitment crypto.Digest
	Procedures []compiler.Procedure
}

func NewCode(artifact *compiler.Artifact) (*Code, error) {
	if artifact.Kind != compiler.AccountCode {
		return nil, fmt.Errorf("%w: expected account code, got %s", ErrMalformedAccount, artifact.Kind)
	}
	code := &Code{Procedures: slices.Clone(artifact.Procedures)}
	code.Commitment = compiler.CodeCommitment(code.ProcedureRoots())
	return code, nil
}

func (c *Code) ProcedureRoots() []crypto.Digest {
	roots := make([]crypto.Digest, len(c.Procedures))
	for i := range c.Procedures {
		roots[i] = c.Procedures[i].Root
	}
	return roots
}

func (c *Code) Procedure(root crypto.Digest) (compiler.Procedure, bool) {
	for _, p := range c.Procedures {
		if p.Root.Equal(root) {
			return p, true
		}
	}
	return compiler.Procedure{}, false
}

func (c *Code) ProcedureByName(name string) (compiler.Procedure, bool) {
	for _, p := range c.Procedures {
		if p.Name == name {
			return p, true
		}
	}
	return compiler.Procedure{}, false
}

// Validate recomputes every procedure root and the code commitment.
func (c *Code) Validate() error {
	if len(c.Procedures) == 0 {
		return fmt.Errorf("%w: account code has no procedures", ErrMalformedAccount)
	}
	for _, p := range c.Procedures {
		if root := compiler.ProcedureRoot(p.Body); !root.Equal(p.Root) {
			return fmt.Errorf("%w: procedure %q root %s does not match its body", ErrMalformedAccount, p.Name, p.Root)
		}
	}
	if commitment := compiler.CodeCommitment(c.ProcedureRoots()); !commitment.Equal(c.Commitment) {
		return fmt.Errorf("%w: code commitment %s does not match procedures (%s)", ErrMalformedAccount,
			c.Commitment, commitment)
	}
	return nil
}

// Library exposes the code as a compiler import so scripts can call its procedures by name.
func (c *Code) Library() *compiler.Artifact {
	return &compiler.Artifact{Kind: compiler.AccountCode, Root: c.Commitment, Procedures: slices.Clone(c.Procedures)}
}
