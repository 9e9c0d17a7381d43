package compiler

import (
	"strconv"
	"strings"

	"github.com/NethermindEth/notewise/core/crypto"
)

// maxSlot bounds storage slot indices.
const maxSlot = 254

type Op uint8

const (
	OpNop Op = iota
	OpIncr
	OpAdd
	OpSet
	OpAdv
	OpCall
	OpReceive
	OpAssertTarget
	OpCreateNote
)

type opSpec struct {
	name    string
	arity   int
	slotArg bool
	kinds   []Kind
}

var opSpecs = map[Op]opSpec{
	OpNop:          {name: "nop", kinds: []Kind{AccountCode, TxScript, NoteScript}},
	OpIncr:         {name: "incr", arity: 1, slotArg: true, kinds: []Kind{AccountCode, TxScript}},
	OpAdd:          {name: "add", arity: 2, slotArg: true, kinds: []Kind{AccountCode, TxScript}},
	OpSet:          {name: "set", arity: 5, slotArg: true, kinds: []Kind{AccountCode, TxScript}},
	OpAdv:          {name: "adv", kinds: []Kind{AccountCode, TxScript}},
	OpCall:         {name: "call", kinds: []Kind{TxScript, NoteScript}},
	OpReceive:      {name: "receive", kinds: []Kind{NoteScript}},
	OpAssertTarget: {name: "assert_target", kinds: []Kind{NoteScript}},
	OpCreateNote:   {name: "create_note", arity: 1, kinds: []Kind{TxScript}},
}

func lookupOp(name string) (Op, bool) {
	for op, spec := range opSpecs {
		if spec.name == name {
			return op, true
		}
	}
	return 0, false
}

func (o Op) String() string {
	if spec, ok := opSpecs[o]; ok {
		return spec.name
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

func (o Op) allowedIn(kind Kind) bool {
	for _, k := range opSpecs[o].kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Instruction is one decoded operation. Target holds the callee root for call and the advice key for adv.
type Instruction struct {
	Op     Op
	Args   []uint64
	Target crypto.Digest
}

// String renders the canonical form that procedure and script roots commit to.
func (i Instruction) String() string {
	parts := []string{i.Op.String()}
	for _, a := range i.Args {
		parts = append(parts, strconv.FormatUint(a, 10))
	}
	if i.Op == OpCall || i.Op == OpAdv {
		parts = append(parts, i.Target.Hex())
	}
	return strings.Join(parts, ".")
}
