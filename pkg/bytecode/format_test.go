package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassembleSimpleProgram(t *testing.T) {
	b := NewBuilder("state:main", 0)
	b.Emit(OpMoveNumber, Op(0), OpF(42), Operand{})
	b.Emit(OpPush, Op(0), Operand{}, Operand{})
	b.Emit(OpRet, Operand{}, Operand{}, Operand{})
	p := b.Finish()

	out := Disassemble(p)
	assert.Contains(t, out, `program "state:main" arity=0 locals=0`)
	assert.Contains(t, out, "MOVE_NUMBER  t[0], 42")
	assert.Contains(t, out, "PUSH         t[0]")
	assert.Contains(t, out, "RET")
}

func TestDisassembleStringLiteralOperand(t *testing.T) {
	b := NewBuilder("__ssconstructor", 0)
	idx := b.Intern("child")
	b.Emit(OpFindObject, Op(1), Op(idx), Operand{})
	p := b.Finish()

	out := Disassemble(p)
	assert.Contains(t, out, `FIND_OBJECT  t[1], "child"`)
}

func TestDisassembleOutOfRangeStringIndexIsPlaceholder(t *testing.T) {
	b := NewBuilder("f", 1)
	b.Emit(OpMoveString, Op(0), Op(7), Operand{}) // never interned
	p := b.Finish()

	out := Disassemble(p)
	assert.Contains(t, out, `MOVE_STRING  t[0], "?"`)
}

func TestDisassembleLabelsAndBranches(t *testing.T) {
	b := NewBuilder("state:main", 0)
	top := b.NewLabel()
	done := b.NewLabel()
	b.BindLabel(top)
	b.Emit(OpTestNull, Op(0), Operand{}, Operand{})
	b.EmitJump(OpJe, done)
	b.EmitJump(OpJmp, top)
	b.BindLabel(done)
	b.Emit(OpRet, Operand{}, Operand{}, Operand{})
	p := b.Finish()

	out := Disassemble(p)
	lines := strings.Split(out, "\n")
	require.True(t, len(lines) > 4)
	assert.Contains(t, out, "L0:\n")
	assert.Contains(t, out, "L1:\n")
	assert.Contains(t, out, "JE           L")
	assert.Contains(t, out, "JMP          L0")
}

func TestDisassembleBreakpointNop(t *testing.T) {
	b := NewBuilder("state:main", 0)
	label := b.Intern("check")
	b.Emit(OpNop, Op(label), Operand{}, OpB(true))
	p := b.Finish()

	out := Disassemble(p)
	assert.Contains(t, out, `NOP          ; breakpoint "check"`)
}

func TestDisassembleCallOperand(t *testing.T) {
	b := NewBuilder("state:main", 0)
	sel := b.Intern("length")
	b.Emit(OpCall, Op(sel), Op(2), Op(0))
	p := b.Finish()

	out := Disassemble(p)
	assert.Contains(t, out, `CALL         "length", t[2], 0`)
}

func TestOpcodeStringUnknownFallsBackToNumeric(t *testing.T) {
	var bogus Opcode = 255
	assert.Equal(t, "OP(255)", bogus.String())
}

func TestProgramResolveLabelPanicsOnUnbound(t *testing.T) {
	p := &Program{Name: "f", Labels: map[Label]int{}}
	assert.Panics(t, func() { p.ResolveLabel(Label(3)) })
}

func TestProgramTextPanicsOutOfRange(t *testing.T) {
	p := &Program{Name: "f", StringLiterals: []string{"a"}}
	assert.Panics(t, func() { p.Text(5) })
}
