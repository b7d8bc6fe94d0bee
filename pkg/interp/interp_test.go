package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/heap"
	"github.com/emberlang/ember/pkg/stack"
	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
)

// fakeDirectory is a minimal ObjectDirectory double: FindByName answers from
// a fixed table, the rest of the methods are unused by the tests below.
type fakeDirectory struct {
	byName map[string]Handle
}

func (f *fakeDirectory) Exists(h Handle) bool       { return h != 0 }
func (f *fakeDirectory) NameOf(h Handle) string     { return "" }
func (f *fakeDirectory) HeapOf(h Handle) *heap.Heap { return nil }
func (f *fakeDirectory) FindByName(self Handle, name string) (Handle, bool) {
	h, ok := f.byName[name]
	return h, ok
}
func (f *fakeDirectory) StateOf(h Handle) string                { return "main" }
func (f *fakeDirectory) ChangeState(h Handle, name string)      {}
func (f *fakeDirectory) Timeout(h Handle, seconds float64) bool { return false }

type fakeResolver struct{}

func (fakeResolver) Resolve(objectName, programName string) (Callable, bool) {
	return Callable{}, false
}

func newTestInterp() (*Interpreter, *fakeDirectory) {
	pool := strpool.NewPool()
	st := stack.New(pool)
	dir := &fakeDirectory{byName: map[string]Handle{"Console": 5}}
	return New(st, pool, dir, fakeResolver{}), dir
}

func runProgram(t *testing.T, it *Interpreter, env *Env, b *bytecode.Builder) {
	t.Helper()
	b.Emit(bytecode.OpRet, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{})
	require.NoError(t, it.Run(env, b.Finish()))
}

// Division by a divisor whose magnitude is below epsilon returns +/-Inf
// with the sign of the dividend, per spec.md §4.4 and DESIGN.md Open
// Question (b) (not the sign of the divisor).
func TestDivideByNearZeroTakesSignOfDividend(t *testing.T) {
	assert.Equal(t, math.Inf(1), divide(3, 0))
	assert.Equal(t, math.Inf(-1), divide(-3, 0))
	assert.True(t, math.IsNaN(divide(0, 0)))
}

func TestDivideByNearZeroSignOfDividendNotDivisor(t *testing.T) {
	// A negative-but-near-zero divisor must not flip the sign: the result
	// tracks the dividend, never the divisor, per DESIGN.md's rejection of
	// the original C runtime's divisor-sign behaviour.
	assert.Equal(t, math.Inf(1), divide(3, -1e-310))
	assert.Equal(t, math.Inf(-1), divide(-3, 1e-310))
}

func TestOpDivByZeroThroughInterpreter(t *testing.T) {
	it, _ := newTestInterp()
	env := &Env{Self: 1, Heap: heap.New(it.Pool)}
	env.Temp[0] = value.Number(-10)
	env.Temp[1] = value.Number(0)

	b := bytecode.NewBuilder("state:main", 0)
	b.Emit(bytecode.OpDiv, op(0), op(1), bytecode.Operand{})
	runProgram(t, it, env, b)

	assert.Equal(t, math.Inf(-1), env.Temp[0].ToNumber())
}

// OpFindObject resolves a bare, undeclared identifier (e.g. `Console` in
// `Console.print(...)`) against the ObjectDirectory at runtime, per
// DESIGN.md's "Bare references to system/child objects" decision.
func TestOpFindObjectResolvesKnownName(t *testing.T) {
	it, _ := newTestInterp()
	env := &Env{Self: 1, Heap: heap.New(it.Pool)}

	b := bytecode.NewBuilder("state:main", 0)
	idx := b.Intern("Console")
	b.Emit(bytecode.OpFindObject, op(0), op(idx), bytecode.Operand{})
	runProgram(t, it, env, b)

	require.Equal(t, value.TypeObjectHandle, env.Temp[0].Typecode())
	assert.Equal(t, uint32(5), env.Temp[0].Handle())
}

func TestOpFindObjectMissingNameYieldsNull(t *testing.T) {
	it, _ := newTestInterp()
	env := &Env{Self: 1, Heap: heap.New(it.Pool)}

	b := bytecode.NewBuilder("state:main", 0)
	idx := b.Intern("NoSuchObject")
	b.Emit(bytecode.OpFindObject, op(0), op(idx), bytecode.Operand{})
	runProgram(t, it, env, b)

	assert.True(t, env.Temp[0].IsNull())
}

func op(u int) bytecode.Operand { return bytecode.Op(u) }
