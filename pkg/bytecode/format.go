// Disassembly support for ember bytecode.
//
// Design Rationale (following kristofer-smog/pkg/bytecode/format.go):
//
// spec.md §6 is explicit that the bytecode has no stable on-disk form —
// compilation is in-process, one source unit at a time. What IS useful,
// and what the teacher's .sg format was really standing in for, is a
// human-readable dump for diagnostics: `--debug` runs print one of these
// before executing a program, and test failures can print one to show
// exactly which instruction misbehaved. There is no corresponding loader;
// Disassemble is one-directional by design.
package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders p as one mnemonic-plus-operands line per instruction,
// prefixed by labels bound to that index.
func Disassemble(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; program %q arity=%d locals=%d\n", p.Name, p.Arity, p.NumLocalVars)

	labelsAt := make(map[int][]Label, len(p.Labels))
	for l, idx := range p.Labels {
		labelsAt[idx] = append(labelsAt[idx], l)
	}

	for i, inst := range p.Instructions {
		for _, l := range labelsAt[i] {
			fmt.Fprintf(&b, "L%d:\n", l)
		}
		fmt.Fprintf(&b, "  %04d  %s\n", i, formatInstruction(p, inst))
	}
	return b.String()
}

func formatInstruction(p *Program, inst Instruction) string {
	switch inst.Op {
	case OpMoveString, OpFindObject:
		return fmt.Sprintf("%-12s t[%d], %q", inst.Op, inst.A.U(), textOrPlaceholder(p, inst.B.U()))
	case OpMoveBool:
		return fmt.Sprintf("%-12s t[%d], %v", inst.Op, inst.A.U(), inst.B.Bool)
	case OpMoveNumber:
		return fmt.Sprintf("%-12s t[%d], %v", inst.Op, inst.A.U(), inst.B.F32)
	case OpMoveHandle:
		return fmt.Sprintf("%-12s t[%d], #%d", inst.Op, inst.A.U(), inst.B.U())
	case OpCopy, OpInc, OpDec, OpNeg, OpNot, OpTestNull, OpTestBool, OpTestNumber, OpTestString, OpTestObject, OpHeapAlloc, OpPush, OpPop, OpMoveState:
		return fmt.Sprintf("%-12s t[%d]", inst.Op, inst.A.U())
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow, OpAnd, OpOr, OpCat, OpCmp, OpTest:
		return fmt.Sprintf("%-12s t[%d], t[%d]", inst.Op, inst.A.U(), inst.B.U())
	case OpHeapPeek, OpHeapPoke:
		return fmt.Sprintf("%-12s t[%d], heap[%d]", inst.Op, inst.A.U(), inst.B.U())
	case OpStkPeek, OpStkPoke:
		return fmt.Sprintf("%-12s t[%d], BP%+d", inst.Op, inst.A.U(), inst.B.I())
	case OpReserve, OpDiscard:
		return fmt.Sprintf("%-12s %d", inst.Op, inst.A.U())
	case OpJmp, OpJe, OpJne, OpJl, OpJle, OpJg, OpJge:
		return fmt.Sprintf("%-12s L%d", inst.Op, inst.A.U())
	case OpCall:
		return fmt.Sprintf("%-12s %q, t[%d], %d", inst.Op, textOrPlaceholder(p, inst.A.U()), inst.B.U(), inst.C.U())
	case OpRet:
		return inst.Op.String()
	case OpNop:
		if !inst.C.Bool {
			return inst.Op.String()
		}
		return fmt.Sprintf("%-12s ; breakpoint %q", inst.Op, textOrPlaceholder(p, inst.A.U()))
	default:
		return inst.Op.String()
	}
}

func textOrPlaceholder(p *Program, idx int) string {
	if idx < 0 || idx >= len(p.StringLiterals) {
		return "?"
	}
	return p.StringLiterals[idx]
}
