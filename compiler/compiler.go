package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

//go:generate mockgen -destination=../mocks/mock_compiler.go -package=mocks github.com/NethermindEth/notewise/compiler Compiler

var ErrCompile = errors.New("compile error")

// Error reports a malformed source together with the offending line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("compile error: %s", e.Msg)
	}
	return fmt.Sprintf("compile error: line %d: %s", e.Line, e.Msg)
}

func (e *Error) Unwrap() error {
	return ErrCompile
}

type Kind uint8

const (
	AccountCode Kind = iota
	TxScript
	NoteScript
)

func (k Kind) String() string {
	switch k {
	case AccountCode:
		return "account code"
	case TxScript:
		return "transaction script"
	case NoteScript:
		return "note script"
	default:
		return "unknown"
	}
}

// Options select what is being compiled. Libraries are addressable from scripts as `call.<alias>::<proc>`.
type Options struct {
	Kind      Kind
	Libraries map[string]*Artifact
}

// Compiler turns source text into a committed artifact.
type Compiler interface {
	Compile(source string, opts Options) (*Artifact, error)
}

type Procedure struct {
	Name string
	Root crypto.Digest
	Body []Instruction
}

// Artifact is compiled account code or a compiled script. For account code Root is the code
// commitment and Procedures are ordered by root; for scripts Root is the script root and Body holds the program.
type Artifact struct {
	Kind       Kind
	Root       crypto.Digest
	Procedures []Procedure
	Body       []Instruction
}

// ProcedureRoots returns the procedure commitments in their canonical order.
func (a *Artifact) ProcedureRoots() []crypto.Digest {
	roots := make([]crypto.Digest, len(a.Procedures))
	for i := range a.Procedures {
		roots[i] = a.Procedures[i].Root
	}
	return roots
}

func (a *Artifact) ProcedureByName(name string) (Procedure, bool) {
	for _, p := range a.Procedures {
		if p.Name == name {
			return p, true
		}
	}
	return Procedure{}, false
}

func (a *Artifact) ProcedureByRoot(root crypto.Digest) (Procedure, bool) {
	for _, p := range a.Procedures {
		if p.Root.Equal(root) {
			return p, true
		}
	}
	return Procedure{}, false
}

// CreatedNotes returns the expected-output-note indices referenced by create_note instructions.
func (a *Artifact) CreatedNotes() []int {
	var out []int
	for _, ins := range a.Body {
		if ins.Op == OpCreateNote {
			out = append(out, int(ins.Args[0]))
		}
	}
	return out
}

// EmitsNotes reports whether executing the script creates output notes.
func (a *Artifact) EmitsNotes() bool {
	return len(a.CreatedNotes()) > 0
}

// CodeCommitment hashes procedure roots, the same way the assembler commits to account code.
func CodeCommitment(roots []crypto.Digest) crypto.Digest {
	sorted := slices.Clone(roots)
	slices.SortFunc(sorted, crypto.Digest.Compare)
	return crypto.NewHasher("account-code").UpdateDigest(sorted...).Finish()
}

// Assembler is the reference Compiler for the notewise instruction set.
type Assembler struct{}

var _ Compiler = (*Assembler)(nil)

func NewAssembler() *Assembler {
	return &Assembler{}
}

type token struct {
	text string
	line int
}

func tokenize(source string) []token {
	var tokens []token
	for i, line := range strings.Split(source, "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		for _, field := range strings.Fields(line) {
			tokens = append(tokens, token{text: field, line: i + 1})
		}
	}
	return tokens
}

func (a *Assembler) Compile(source string, opts Options) (*Artifact, error) {
	tokens := tokenize(source)
	if len(tokens) == 0 {
		return nil, &Error{Msg: "empty source"}
	}
	switch opts.Kind {
	case AccountCode:
		return a.compileAccountCode(tokens, opts)
	case TxScript, NoteScript:
		return a.compileScript(tokens, opts)
	default:
		return nil, &Error{Msg: fmt.Sprintf("unsupported kind %d", opts.Kind)}
	}
}

func (a *Assembler) compileAccountCode(tokens []token, opts Options) (*Artifact, error) {
	var procs []Procedure
	seen := make(map[string]struct{})
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		name, ok := strings.CutPrefix(tok.text, "export.")
		if !ok || name == "" {
			return nil, &Error{Line: tok.line, Msg: fmt.Sprintf("expected export.<name>, found %q", tok.text)}
		}
		if _, dup := seen[name]; dup {
			return nil, &Error{Line: tok.line, Msg: fmt.Sprintf("duplicate procedure %q", name)}
		}
		seen[name] = struct{}{}

		body, next, err := parseBody(tokens, i+1, opts)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, &Error{Line: tok.line, Msg: fmt.Sprintf("procedure %q has an empty body", name)}
		}
		procs = append(procs, Procedure{Name: name, Root: ProcedureRoot(body), Body: body})
		i = next
	}

	slices.SortFunc(procs, func(x, y Procedure) int { return x.Root.Compare(y.Root) })
	for i := 1; i < len(procs); i++ {
		if procs[i].Root.Equal(procs[i-1].Root) {
			return nil, &Error{Msg: fmt.Sprintf("procedures %q and %q have identical bodies", procs[i-1].Name, procs[i].Name)}
		}
	}

	artifact := &Artifact{Kind: AccountCode, Procedures: procs}
	artifact.Root = CodeCommitment(artifact.ProcedureRoots())
	return artifact, nil
}

func (a *Assembler) compileScript(tokens []token, opts Options) (*Artifact, error) {
	if tokens[0].text != "begin" {
		return nil, &Error{Line: tokens[0].line, Msg: fmt.Sprintf("expected begin, found %q", tokens[0].text)}
	}
	body, next, err := parseBody(tokens, 1, opts)
	if err != nil {
		return nil, err
	}
	if next != len(tokens) {
		return nil, &Error{Line: tokens[next].line, Msg: fmt.Sprintf("unexpected %q after end", tokens[next].text)}
	}
	if len(body) == 0 {
		return nil, &Error{Line: tokens[0].line, Msg: "script has an empty body"}
	}
	domain := "tx-script"
	if opts.Kind == NoteScript {
		domain = "note-script"
	}
	return &Artifact{Kind: opts.Kind, Root: bodyRoot(domain, body), Body: body}, nil
}

// parseBody reads instructions up to the matching end and returns the index following it.
func parseBody(tokens []token, start int, opts Options) ([]Instruction, int, error) {
	var body []Instruction
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.text == "end" {
			return body, i + 1, nil
		}
		ins, err := parseInstruction(tok, opts)
		if err != nil {
			return nil, 0, err
		}
		body = append(body, ins)
	}
	line := 0
	if len(tokens) > 0 {
		line = tokens[len(tokens)-1].line
	}
	return nil, 0, &Error{Line: line, Msg: "missing end"}
}

func parseInstruction(tok token, opts Options) (Instruction, error) {
	parts := strings.Split(tok.text, ".")
	op, ok := lookupOp(parts[0])
	if !ok {
		return Instruction{}, &Error{Line: tok.line, Msg: fmt.Sprintf("unknown instruction %q", tok.text)}
	}
	if !op.allowedIn(opts.Kind) {
		return Instruction{}, &Error{Line: tok.line, Msg: fmt.Sprintf("%s is not allowed in %s", op, opts.Kind)}
	}
	args := parts[1:]
	spec := opSpecs[op]

	ins := Instruction{Op: op}
	switch op {
	case OpCall:
		if len(args) == 0 {
			return ins, &Error{Line: tok.line, Msg: "call requires a target"}
		}
		target, err := resolveCallTarget(strings.Join(args, "."), opts)
		if err != nil {
			return ins, &Error{Line: tok.line, Msg: err.Error()}
		}
		ins.Target = target
		return ins, nil
	case OpAdv:
		if len(args) != 2 {
			return ins, &Error{Line: tok.line, Msg: "adv requires a slot and an advice key"}
		}
		slot, err := parseArg(args[0], maxSlot)
		if err != nil {
			return ins, &Error{Line: tok.line, Msg: err.Error()}
		}
		key, err := crypto.DigestFromHex(args[1])
		if err != nil {
			return ins, &Error{Line: tok.line, Msg: err.Error()}
		}
		ins.Args = []uint64{slot}
		ins.Target = key
		return ins, nil
	}

	if len(args) != spec.arity {
		return ins, &Error{Line: tok.line, Msg: fmt.Sprintf("%s expects %d arguments, found %d", op, spec.arity, len(args))}
	}
	for i, raw := range args {
		limit := felt.Modulus - 1
		if i == 0 && spec.slotArg {
			limit = maxSlot
		}
		v, err := parseArg(raw, limit)
		if err != nil {
			return ins, &Error{Line: tok.line, Msg: err.Error()}
		}
		ins.Args = append(ins.Args, v)
	}
	return ins, nil
}

func parseArg(raw string, limit uint64) (uint64, error) {
	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q", raw)
	}
	if v > limit {
		return 0, fmt.Errorf("argument %d exceeds %d", v, limit)
	}
	return v, nil
}

func resolveCallTarget(target string, opts Options) (crypto.Digest, error) {
	alias, name, isLib := strings.Cut(target, "::")
	if !isLib {
		return crypto.DigestFromHex(target)
	}
	lib, ok := opts.Libraries[alias]
	if !ok {
		return crypto.Digest{}, fmt.Errorf("unknown library %q", alias)
	}
	proc, ok := lib.ProcedureByName(name)
	if !ok {
		return crypto.Digest{}, fmt.Errorf("library %q has no procedure %q", alias, name)
	}
	return proc.Root, nil
}

// ProcedureRoot is the commitment to one exported procedure body.
func ProcedureRoot(body []Instruction) crypto.Digest {
	return bodyRoot("procedure", body)
}

func bodyRoot(domain string, body []Instruction) crypto.Digest {
	h := crypto.NewHasher(domain)
	for _, ins := range body {
		h.UpdateBytes([]byte(ins.String()))
	}
	return h.Finish()
}
