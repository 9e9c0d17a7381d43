package compiler_test

import (
	"testing"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterCode = `
# counter component
export.increment
    incr.0
end

export.reset
    set.0.0.0.0.0
end
`

func TestCompileAccountCode(t *testing.T) {
	asm := compiler.NewAssembler()

	code, err := asm.Compile(counterCode, compiler.Options{Kind: compiler.AccountCode})
	require.NoError(t, err)
	require.Len(t, code.Procedures, 2)
	assert.Equal(t, code.Root, compiler.CodeCommitment(code.ProcedureRoots()))
	assert.Equal(t, -1, code.Procedures[0].Root.Compare(code.Procedures[1].Root))

	inc, ok := code.ProcedureByName("increment")
	require.True(t, ok)
	require.Len(t, inc.Body, 1)
	assert.Equal(t, "incr.0", inc.Body[0].String())

	t.Run("deterministic", func(t *testing.T) {
		again, err := asm.Compile(counterCode, compiler.Options{Kind: compiler.AccountCode})
		require.NoError(t, err)
		assert.Equal(t, code.Root, again.Root)
	})

	t.Run("declaration order does not change the commitment", func(t *testing.T) {
		reordered := "export.reset set.0.0.0.0.0 end\nexport.increment incr.0 end"
		again, err := asm.Compile(reordered, compiler.Options{Kind: compiler.AccountCode})
		require.NoError(t, err)
		assert.Equal(t, code.Root, again.Root)
	})
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   compiler.Kind
		line   int
	}{
		{name: "empty", source: "  # nothing", kind: compiler.AccountCode},
		{name: "unknown instruction", source: "export.a\n  frobnicate\nend", kind: compiler.AccountCode, line: 2},
		{name: "missing end", source: "export.a\n incr.0\n", kind: compiler.AccountCode, line: 2},
		{name: "duplicate export", source: "export.a incr.0 end\nexport.a incr.1 end", kind: compiler.AccountCode, line: 2},
		{name: "empty procedure", source: "export.a end", kind: compiler.AccountCode, line: 1},
		{name: "wrong arity", source: "export.a add.0 end", kind: compiler.AccountCode, line: 1},
		{name: "slot out of range", source: "export.a incr.900 end", kind: compiler.AccountCode, line: 1},
		{name: "call in account code", source: "export.a call.0x00 end", kind: compiler.AccountCode, line: 1},
		{name: "unbound placeholder", source: "begin\n call.{proc}\nend", kind: compiler.TxScript, line: 2},
		{name: "missing begin", source: "incr.0 end", kind: compiler.TxScript, line: 1},
		{name: "trailing tokens", source: "begin nop end nop", kind: compiler.TxScript, line: 1},
		{name: "receive in tx script", source: "begin receive end", kind: compiler.TxScript, line: 1},
		{name: "unknown library", source: "begin call.lib::inc end", kind: compiler.TxScript, line: 1},
	}
	asm := compiler.NewAssembler()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := asm.Compile(test.source, compiler.Options{Kind: test.kind})
			require.ErrorIs(t, err, compiler.ErrCompile)
			var cErr *compiler.Error
			require.ErrorAs(t, err, &cErr)
			assert.Equal(t, test.line, cErr.Line)
		})
	}
}

func TestCompileScriptWithLibrary(t *testing.T) {
	asm := compiler.NewAssembler()
	code, err := asm.Compile(counterCode, compiler.Options{Kind: compiler.AccountCode})
	require.NoError(t, err)
	inc, _ := code.ProcedureByName("increment")

	byName, err := asm.Compile("begin call.counter::increment end", compiler.Options{
		Kind:      compiler.TxScript,
		Libraries: map[string]*compiler.Artifact{"counter": code},
	})
	require.NoError(t, err)

	byRoot, err := asm.Compile("begin\n  call."+inc.Root.Hex()+"\nend", compiler.Options{Kind: compiler.TxScript})
	require.NoError(t, err)

	assert.Equal(t, byRoot.Root, byName.Root)
	assert.Equal(t, inc.Root, byName.Body[0].Target)
	assert.False(t, byName.EmitsNotes())
}

func TestCreatedNotes(t *testing.T) {
	script, err := compiler.NewAssembler().Compile("begin create_note.0 create_note.1 end", compiler.Options{Kind: compiler.TxScript})
	require.NoError(t, err)
	assert.True(t, script.EmitsNotes())
	assert.Equal(t, []int{0, 1}, script.CreatedNotes())
}

func TestNoteAndTxScriptRootsDiffer(t *testing.T) {
	asm := compiler.NewAssembler()
	tx, err := asm.Compile("begin nop end", compiler.Options{Kind: compiler.TxScript})
	require.NoError(t, err)
	note, err := asm.Compile("begin nop end", compiler.Options{Kind: compiler.NoteScript})
	require.NoError(t, err)
	assert.NotEqual(t, tx.Root, note.Root)
}
