// Package stack implements the per-VM value stack with nested activation
// frames described in spec.md §4.3.
//
// This generalises the teacher VM's flat `[]interface{}` + `sp` design (see
// kristofer-smog/pkg/vm/vm.go, which has no BP or frame concept at all —
// it relies on Go's own call stack for method nesting) to the BP/frame
// model spec.md §3 requires: every call opens a frame by pushing the saved
// BP, and closes it by destroying every cell back to that saved BP. This is
// necessary because ember's call protocol crosses object/heap boundaries at
// every `call`, so the frame bookkeeping has to live in the value stack
// itself rather than in the host language's native call stack.
package stack

import (
	"fmt"

	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
)

// Capacity is the fixed size of the stack, in cells (spec.md §3 suggests 64K).
const Capacity = 64 * 1024

// ErrOverflow is the value Push panics with when Capacity would be exceeded.
var ErrOverflow = fmt.Errorf("stack: overflow")

// Stack is a single linear array of Values with SP (top) and BP (base of
// the current frame) pointers.
type Stack struct {
	cells []value.Value
	sp    int
	bp    int
	pool  *strpool.Pool
}

// New creates an empty Stack.
func New(pool *strpool.Pool) *Stack {
	return &Stack{cells: make([]value.Value, Capacity), pool: pool}
}

// SP returns the current stack pointer (one past the top element).
func (s *Stack) SP() int { return s.sp }

// BP returns the base pointer of the current frame.
func (s *Stack) BP() int { return s.bp }

// Push pushes v onto the stack. Panics on overflow (fatal per spec.md §4.3).
func (s *Stack) Push(v value.Value) {
	if s.sp >= len(s.cells) {
		panic(ErrOverflow)
	}
	s.cells[s.sp] = v
	s.sp++
}

// Pop pops and returns the top value, destroying its ownership of any
// pooled string into the returned copy (the caller now owns it).
func (s *Stack) Pop() value.Value {
	if s.sp == 0 {
		panic("stack: underflow")
	}
	s.sp--
	v := s.cells[s.sp]
	s.cells[s.sp] = value.Null()
	return v
}

// Top returns (without removing) the top value.
func (s *Stack) Top() value.Value {
	if s.sp == 0 {
		panic("stack: underflow")
	}
	return s.cells[s.sp-1]
}

// PeekAbs reads the cell at the given absolute stack index, bypassing BP.
// Used by native call dispatch to read arguments before any frame for the
// call exists.
func (s *Stack) PeekAbs(idx int) value.Value {
	if idx < 0 || idx >= s.sp {
		panic(fmt.Sprintf("stack: absolute peek out of range at %d", idx))
	}
	return s.cells[idx]
}

// Peek reads the cell at BP+offset.
func (s *Stack) Peek(offset int) value.Value {
	idx := s.bp + offset
	if idx < 0 || idx >= len(s.cells) {
		panic(fmt.Sprintf("stack: peek out of range at BP%+d", offset))
	}
	return s.cells[idx]
}

// Poke writes v to the cell at BP+offset, destroying whatever was there.
func (s *Stack) Poke(offset int, v value.Value) {
	idx := s.bp + offset
	if idx < 0 || idx >= len(s.cells) {
		panic(fmt.Sprintf("stack: poke out of range at BP%+d", offset))
	}
	s.cells[idx].Destroy(s.pool)
	s.cells[idx] = v
}

// Pushn reserves n cells, initialised to null.
func (s *Stack) Pushn(n int) {
	for i := 0; i < n; i++ {
		s.Push(value.Null())
	}
}

// Popn discards n cells, destroying their Values.
func (s *Stack) Popn(n int) {
	for i := 0; i < n; i++ {
		v := s.Pop()
		v.Destroy(s.pool)
	}
}

// PushFrame opens a new activation frame: it pushes a raw value containing
// the previous BP, then sets BP = SP (spec.md §3).
func (s *Stack) PushFrame() {
	s.Push(value.Raw(uint64(s.bp)))
	s.bp = s.sp
}

// PopFrame closes the current frame: destroys every cell in [BP, SP), reads
// the saved BP from BP-1, and restores SP = BP-1.
func (s *Stack) PopFrame() {
	for i := s.bp; i < s.sp; i++ {
		s.cells[i].Destroy(s.pool)
		s.cells[i] = value.Null()
	}
	s.sp = s.bp
	savedBP := s.Pop()
	s.bp = int(savedBP.RawBits())
}

// ScanObjects invokes cb for every live cell holding an object handle; used
// by the GC marker to anchor temporaries reachable only from the stack.
func (s *Stack) ScanObjects(cb func(handle uint32)) {
	for i := 0; i < s.sp; i++ {
		if s.cells[i].Typecode() == value.TypeObjectHandle {
			cb(s.cells[i].Handle())
		}
	}
}

// PatchHandle replaces every live stack cell holding the given handle with
// null. Used by the GC when a scan discovers a broken handle (spec.md §4.6
// hazard: "stack cells holding object handles must be patched to null if
// the handle ceases to exist between mark and sweep").
func (s *Stack) PatchHandle(handle uint32) {
	for i := 0; i < s.sp; i++ {
		if s.cells[i].Typecode() == value.TypeObjectHandle && s.cells[i].Handle() == handle {
			s.cells[i] = value.Null()
		}
	}
}
