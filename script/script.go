package script

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/crypto"
)

var (
	ErrIndexOutOfRange    = errors.New("procedure index out of range")
	ErrUnboundPlaceholder = errors.New("unbound template placeholder")
)

// Script source has no literal braces, so any brace group is a placeholder whatever it contains.
var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// ResolveProcedure returns the commitment of procedure index within procedures.
func ResolveProcedure(procedures []crypto.Digest, index int) (crypto.Digest, error) {
	if index < 0 || index >= len(procedures) {
		return crypto.Digest{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(procedures))
	}
	return procedures[index], nil
}

// Placeholders lists the distinct tokens of template in order of first appearance.
func Placeholders(template string) []string {
	var tokens []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !slices.Contains(tokens, m[1]) {
			tokens = append(tokens, m[1])
		}
	}
	return tokens
}

// Render substitutes every `{token}` in template with its binding. Tokens are case-sensitive and
// every one of them must be bound; bindings for tokens not present are ignored. The result may
// not contain braces.
func Render(template string, bindings map[string]string) (string, error) {
	var missing []string
	for _, token := range Placeholders(template) {
		if _, ok := bindings[token]; !ok {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %q", ErrUnboundPlaceholder, missing)
	}
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		return bindings[m[1:len(m)-1]]
	})
	if err := checkBraces(out); err != nil {
		return "", err
	}
	return out, nil
}

// checkBraces rejects source still holding placeholders or stray braces.
func checkBraces(source string) error {
	if tokens := Placeholders(source); len(tokens) > 0 {
		return fmt.Errorf("%w: %q", ErrUnboundPlaceholder, tokens)
	}
	if i := strings.IndexAny(source, "{}"); i >= 0 {
		return fmt.Errorf("%w: stray %q at offset %d", ErrUnboundPlaceholder, source[i], i)
	}
	return nil
}

// Template is script source with `{token}` placeholders and the bindings collected so far.
type Template struct {
	source   string
	bindings map[string]string
}

func NewTemplate(source string) *Template {
	return &Template{source: source, bindings: make(map[string]string)}
}

func (t *Template) Bind(token, value string) *Template {
	t.bindings[token] = value
	return t
}

// BindProcedure binds token to the hex commitment of procedure index.
func (t *Template) BindProcedure(token string, procedures []crypto.Digest, index int) error {
	root, err := ResolveProcedure(procedures, index)
	if err != nil {
		return err
	}
	t.Bind(token, root.Hex())
	return nil
}

func (t *Template) Render() (string, error) {
	return Render(t.source, t.bindings)
}

// CompileScript compiles a transaction script. imports maps library aliases to compiled account code.
func CompileScript(c compiler.Compiler, source string, imports map[string]*compiler.Artifact) (*compiler.Artifact, error) {
	if err := checkBraces(source); err != nil {
		return nil, err
	}
	artifact, err := c.Compile(source, compiler.Options{Kind: compiler.TxScript, Libraries: imports})
	if err != nil {
		return nil, fmt.Errorf("compile transaction script: %w", err)
	}
	return artifact, nil
}

// CompileNoteScript is CompileScript for note scripts.
func CompileNoteScript(c compiler.Compiler, source string, imports map[string]*compiler.Artifact) (*compiler.Artifact, error) {
	if err := checkBraces(source); err != nil {
		return nil, err
	}
	artifact, err := c.Compile(source, compiler.Options{Kind: compiler.NoteScript, Libraries: imports})
	if err != nil {
		return nil, fmt.Errorf("compile note script: %w", err)
	}
	return artifact, nil
}
