package bytecode

// Builder assembles a Program instruction by instruction, with backpatched
// label support (spec.md §3: "Labels are created during emission before
// they are bound; binding assigns the current length of the operation
// sequence to the label").
type Builder struct {
	prog      Program
	nextLabel Label
	strIndex  map[string]int
}

// NewBuilder starts building a program with the given name and arity.
func NewBuilder(name string, arity int) *Builder {
	return &Builder{
		prog:     Program{Name: name, Arity: arity, Labels: make(map[Label]int)},
		strIndex: make(map[string]int),
	}
}

// NewLabel allocates an unbound label.
func (b *Builder) NewLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

// BindLabel assigns l to the current end of the instruction stream.
func (b *Builder) BindLabel(l Label) {
	b.prog.Labels[l] = len(b.prog.Instructions)
}

// Emit appends an instruction and returns its index.
func (b *Builder) Emit(op Opcode, a, c, d Operand) int {
	idx := len(b.prog.Instructions)
	b.prog.Instructions = append(b.prog.Instructions, Instruction{Op: op, A: a, B: c, C: d})
	return idx
}

// EmitJump is a convenience for Jmp/Je/.../ opcodes taking a label operand;
// the label need not be bound yet.
func (b *Builder) EmitJump(op Opcode, target Label) int {
	return b.Emit(op, Op(int(target)), Operand{}, Operand{})
}

// Intern adds s to the string-literal pool, deduplicating, and returns its
// index.
func (b *Builder) Intern(s string) int {
	if idx, ok := b.strIndex[s]; ok {
		return idx
	}
	idx := len(b.prog.StringLiterals)
	b.prog.StringLiterals = append(b.prog.StringLiterals, s)
	b.strIndex[s] = idx
	return idx
}

// SetNumLocalVars records how many stack cells beyond its parameters this
// program's call protocol must reserve for locals (spec.md §4.4).
func (b *Builder) SetNumLocalVars(n int) { b.prog.NumLocalVars = n }

// Len returns the number of instructions emitted so far (used to compute
// relative jump targets if ever needed, and for diagnostics).
func (b *Builder) Len() int { return len(b.prog.Instructions) }

// Finish resolves every label operand of every Jmp/Je/... instruction
// in place (replacing the raw label id with the bound instruction index)
// and returns the finished, immutable Program. Panics if any referenced
// label was never bound.
func (b *Builder) Finish() *Program {
	for i, inst := range b.prog.Instructions {
		if !isBranch(inst.Op) {
			continue
		}
		l := Label(inst.A.U())
		idx, ok := b.prog.Labels[l]
		if !ok {
			panic("bytecode: unbound label at emission finish")
		}
		b.prog.Instructions[i].A = Op(idx)
	}
	p := b.prog
	return &p
}

func isBranch(op Opcode) bool {
	switch op {
	case OpJmp, OpJe, OpJne, OpJl, OpJle, OpJg, OpJge:
		return true
	default:
		return false
	}
}
