// Package interp implements the dispatch loop for one program activation,
// as described in spec.md §4.4.
//
// This generalises kristofer-smog/pkg/vm/vm.go's `VM.Run` switch-over-
// opcode loop (single operand, interface{}-typed stack, one VM-wide
// locals array) to: three-operand instructions, a typed value.Value stack,
// four per-activation temp registers (t[0]..t[3]), and the cross-object
// call protocol of spec.md §4.4 — every call crosses into a different
// object's own heap, which the teacher's single flat `locals []interface{}`
// array has no notion of.
package interp

import (
	"fmt"
	"math"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/heap"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/stack"
	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// Env is the runtime environment bundling the current object, its heap,
// the (VM-wide, shared) stack, and four temp registers, per spec.md §2/§4.4.
type Env struct {
	Self Handle
	Heap *heap.Heap
	Temp [4]value.Value
}

// Handle is a bare alias of object.Handle kept local to avoid pkg/interp
// importing pkg/objmanager (which would create an import cycle, since the
// manager needs the interpreter to run constructors/destructors).
type Handle = object.Handle

// ObjectDirectory is the subset of *objmanager.Manager the interpreter
// needs: resolving a handle to the object name a call or constant refers
// to, and the heap a handle's object owns.
type ObjectDirectory interface {
	Exists(h Handle) bool
	NameOf(h Handle) string
	HeapOf(h Handle) *heap.Heap

	// FindByName resolves a bare capitalized reference such as `Console` in
	// `Console.print(...)` to a live object: first a child of self, then a
	// system object, matching how such references are never declared as
	// local variables in script source (DESIGN.md "bare system/child object
	// references").
	FindByName(self Handle, name string) (Handle, bool)

	// StateOf/ChangeState back the `state` keyword and `changeState(name)`
	// built-in (spec.md §4.7).
	StateOf(h Handle) string
	ChangeState(h Handle, name string)

	// Timeout backs the `timeout(seconds)` predicate (spec.md §4.7).
	Timeout(h Handle, seconds float64) bool
}

// Callable is a thing the interpreter can invoke through OpCall: either a
// bytecode.Program (run through this same Interpreter, recursively) or a
// native function registered via vm.Bind.
type Callable struct {
	Bytecode *bytecode.Program
	Native   NativeFunc
	Arity    int
}

// NativeFunc is the shape of a bound native function (spec.md §6
// vm_bind): it receives the calling interpreter, the callee handle, and
// the already-evaluated argument values, and returns a single Value.
type NativeFunc func(it *Interpreter, self Handle, args []value.Value) (value.Value, error)

// Resolver looks up what (objectName, programName) should run — a
// ProgramPool entry, a native binding, or neither.
type Resolver interface {
	Resolve(objectName, programName string) (Callable, bool)
}

// Binder is implemented by the VM and used by pkg/stdlib to register the
// native system objects (String, Number, Math, Array, ...) without
// pkg/stdlib needing to import pkg/vm. arity may be negative to mean
// "variadic, whatever argc the call site used" (array/dictionary literal
// construction, spec.md §4.8's supplemented literal syntax).
type Binder interface {
	Bind(objectName, programName string, arity int, fn NativeFunc) error
}

// Interpreter executes bytecode.Program activations against a shared
// Stack, a shared string Pool, an ObjectDirectory, and a call Resolver.
type Interpreter struct {
	Stack    *stack.Stack
	Pool     *strpool.Pool
	Objects  ObjectDirectory
	Programs Resolver

	// Breakpoint, if set, is invoked synchronously whenever a labelled
	// OpNop (spec.md §9's "debug-breakpoint-via-nop") is executed. The
	// interpreter blocks until it returns. Left nil outside of
	// `ember run --debug`.
	Breakpoint func(env *Env, programName, label string)

	depth int // call nesting depth, bounded to catch runaway recursion
}

// MaxCallDepth bounds interpreter recursion through OpCall, standing in
// for the host stack overflow spec.md §7 treats as fatal.
const MaxCallDepth = 4096

// New creates an Interpreter. stack, pool, objects, and programs are
// shared with the rest of the VM.
func New(st *stack.Stack, pool *strpool.Pool, objects ObjectDirectory, programs Resolver) *Interpreter {
	return &Interpreter{Stack: st, Pool: pool, Objects: objects, Programs: programs}
}

// Run executes p against env from ip=0 until a `ret` or natural end,
// leaving the return value in env.Temp[0].
func (it *Interpreter) Run(env *Env, p *bytecode.Program) error {
	ip := 0
	for ip < len(p.Instructions) {
		inst := p.Instructions[ip]
		next := ip + 1

		switch inst.Op {
		case bytecode.OpMoveNull:
			env.Temp[inst.A.U()] = value.Null()
		case bytecode.OpMoveBool:
			env.Temp[inst.A.U()] = value.Bool(inst.B.Bool)
		case bytecode.OpMoveNumber:
			env.Temp[inst.A.U()] = value.Number(float64(inst.B.F32))
		case bytecode.OpMoveString:
			env.Temp[inst.A.U()] = value.String(it.Pool, p.Text(inst.B.U()))
		case bytecode.OpMoveHandle:
			env.Temp[inst.A.U()] = value.ObjectHandle(inst.B.U32)
		case bytecode.OpMoveThis:
			env.Temp[inst.A.U()] = value.ObjectHandle(uint32(env.Self))
		case bytecode.OpCopy:
			env.Temp[inst.A.U()] = env.Temp[inst.B.U()]
		case bytecode.OpFindObject:
			name := p.Text(inst.B.U())
			if h, ok := it.Objects.FindByName(env.Self, name); ok {
				env.Temp[inst.A.U()] = value.ObjectHandle(uint32(h))
			} else {
				env.Temp[inst.A.U()] = value.Null()
			}
		case bytecode.OpMoveState:
			env.Temp[inst.A.U()] = value.String(it.Pool, it.Objects.StateOf(env.Self))

		case bytecode.OpHeapAlloc:
			env.Temp[inst.A.U()] = value.Number(float64(env.Heap.Alloc()))
		case bytecode.OpHeapPeek:
			env.Temp[inst.A.U()] = *env.Heap.At(inst.B.U())
		case bytecode.OpHeapPoke:
			value.Copy(it.Pool, env.Heap.At(inst.B.U()), env.Temp[inst.A.U()])

		case bytecode.OpPush:
			it.Stack.Push(env.Temp[inst.A.U()].Clone(it.Pool))
		case bytecode.OpPop:
			env.Temp[inst.A.U()] = it.Stack.Pop()
		case bytecode.OpStkPeek:
			env.Temp[inst.A.U()] = it.Stack.Peek(inst.B.I())
		case bytecode.OpStkPoke:
			it.Stack.Poke(inst.B.I(), env.Temp[inst.A.U()].Clone(it.Pool))
		case bytecode.OpReserve:
			it.Stack.Pushn(inst.A.U())
		case bytecode.OpDiscard:
			it.Stack.Popn(inst.A.U())

		case bytecode.OpInc:
			env.Temp[inst.A.U()] = value.Number(env.Temp[inst.A.U()].ToNumber() + 1)
		case bytecode.OpDec:
			env.Temp[inst.A.U()] = value.Number(env.Temp[inst.A.U()].ToNumber() - 1)
		case bytecode.OpAdd:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = it.add(*a, b)
		case bytecode.OpSub:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Number(a.ToNumber() - b.ToNumber())
		case bytecode.OpMul:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Number(a.ToNumber() * b.ToNumber())
		case bytecode.OpDiv:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Number(divide(a.ToNumber(), b.ToNumber()))
		case bytecode.OpMod:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Number(math.Mod(a.ToNumber(), b.ToNumber()))
		case bytecode.OpPow:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Number(math.Pow(a.ToNumber(), b.ToNumber()))
		case bytecode.OpNeg:
			a := &env.Temp[inst.A.U()]
			*a = value.Number(-a.ToNumber())
		case bytecode.OpNot:
			a := &env.Temp[inst.A.U()]
			*a = value.Bool(!a.ToBool())
		case bytecode.OpAnd:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Bool(a.ToBool() && b.ToBool())
		case bytecode.OpOr:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.Bool(a.ToBool() || b.ToBool())

		case bytecode.OpTestNull:
			env.Temp[2] = zeroIf(env.Temp[inst.A.U()].Typecode() == value.TypeNull)
		case bytecode.OpTestBool:
			env.Temp[2] = zeroIf(env.Temp[inst.A.U()].Typecode() == value.TypeBool)
		case bytecode.OpTestNumber:
			env.Temp[2] = zeroIf(env.Temp[inst.A.U()].Typecode() == value.TypeNumber)
		case bytecode.OpTestString:
			env.Temp[2] = zeroIf(env.Temp[inst.A.U()].Typecode() == value.TypeString)
		case bytecode.OpTestObject:
			env.Temp[2] = zeroIf(env.Temp[inst.A.U()].Typecode() == value.TypeObjectHandle)
		case bytecode.OpCat:
			a, b := &env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			*a = value.String(it.Pool, a.ToString(it.Pool)+b.ToString(it.Pool))

		case bytecode.OpCmp:
			a, b := env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			env.Temp[2] = value.Number(float64(value.Compare(it.Pool, a, b)))
		case bytecode.OpTest:
			a, b := env.Temp[inst.A.U()], env.Temp[inst.B.U()]
			env.Temp[2] = zeroIf(a.ToBool() && b.ToBool())

		case bytecode.OpJmp:
			next = inst.A.U()
		case bytecode.OpJe:
			if env.Temp[2].ToNumber() == 0 {
				next = inst.A.U()
			}
		case bytecode.OpJne:
			if env.Temp[2].ToNumber() != 0 {
				next = inst.A.U()
			}
		case bytecode.OpJl:
			if env.Temp[2].ToNumber() < 0 {
				next = inst.A.U()
			}
		case bytecode.OpJle:
			if env.Temp[2].ToNumber() <= 0 {
				next = inst.A.U()
			}
		case bytecode.OpJg:
			if env.Temp[2].ToNumber() > 0 {
				next = inst.A.U()
			}
		case bytecode.OpJge:
			if env.Temp[2].ToNumber() >= 0 {
				next = inst.A.U()
			}

		case bytecode.OpCall:
			ret, err := it.call(env, p, inst)
			if err != nil {
				return err
			}
			env.Temp[0] = ret

		case bytecode.OpRet:
			return nil

		case bytecode.OpNop:
			// C.Bool marks this as a named breakpoint rather than a plain
			// codegen filler nop; A indexes its label in the text pool.
			if inst.C.Bool && it.Breakpoint != nil {
				it.Breakpoint(env, p.Name, p.Text(inst.A.U()))
			}

		default:
			panic(fmt.Sprintf("interp: unknown opcode %v", inst.Op))
		}

		ip = next
	}
	return nil
}

// add implements + with the numeric/string dispatch of spec.md §4.8: if
// either operand is a string, concatenate; otherwise add numerically.
func (it *Interpreter) add(a, b value.Value) value.Value {
	if a.Typecode() == value.TypeString || b.Typecode() == value.TypeString {
		return value.String(it.Pool, a.ToString(it.Pool)+b.ToString(it.Pool))
	}
	return value.Number(a.ToNumber() + b.ToNumber())
}

// divide implements spec.md §4.4's division-by-near-zero rule: ±∞ with the
// sign of the dividend (DESIGN.md Open Question (b)).
func divide(dividend, divisor float64) float64 {
	const epsilon = 1e-300
	if math.Abs(divisor) < epsilon {
		if dividend > 0 {
			return math.Inf(1)
		}
		if dividend < 0 {
			return math.Inf(-1)
		}
		return math.NaN()
	}
	return dividend / divisor
}

func zeroIf(truthy bool) value.Value {
	if truthy {
		return value.Number(0)
	}
	return value.Number(1)
}

// call implements the function-call protocol of spec.md §4.4:
//
//  1. the caller has already pushed the callee handle then each actual
//     parameter (left to right) onto the shared Stack;
//  2. this looks up (object_name(callee), programName) and verifies arity;
//  3. it builds a callee Env over the callee's own heap, opens a stack
//     frame, reserves NumLocalVars cells for locals, and recurses into Run;
//  4. on return it copies the callee's t[0] into the caller's t[0] (done by
//     the OpCall case above) and pops 1+argc cells (handle + params).
func (it *Interpreter) call(caller *Env, callerProg *bytecode.Program, inst bytecode.Instruction) (value.Value, error) {
	programName := callerProg.Text(inst.A.U())
	calleeHandleVal := caller.Temp[inst.B.U()]
	argc := inst.C.U()

	if it.depth >= MaxCallDepth {
		return value.Null(), &vmerrors.AllocationError{Resource: "stack", Limit: MaxCallDepth, Detail: "call recursion depth"}
	}

	calleeHandle := Handle(calleeHandleVal.Handle())
	if calleeHandleVal.Typecode() != value.TypeObjectHandle || !it.Objects.Exists(calleeHandle) {
		it.Stack.Popn(1 + argc)
		return value.Null(), &vmerrors.RuntimeTypeError{
			Program: programName,
			Message: fmt.Sprintf("call to %q on a non-existent object", programName),
		}
	}

	objectName := it.Objects.NameOf(calleeHandle)
	callable, ok := it.Programs.Resolve(objectName, programName)
	if !ok {
		it.Stack.Popn(1 + argc)
		return value.Null(), &vmerrors.RuntimeTypeError{
			Object:  objectName,
			Program: programName,
			Message: "no such program",
		}
	}
	if callable.Arity >= 0 && callable.Arity != argc {
		it.Stack.Popn(1 + argc)
		return value.Null(), &vmerrors.RuntimeTypeError{
			Object:  objectName,
			Program: programName,
			Message: fmt.Sprintf("arity mismatch: expected %d, got %d", callable.Arity, argc),
		}
	}

	if callable.Native != nil {
		args := make([]value.Value, argc)
		base := it.Stack.SP() - argc
		for i := 0; i < argc; i++ {
			args[i] = it.Stack.PeekAbs(base + i)
		}
		it.Stack.Popn(1 + argc)
		return callable.Native(it, calleeHandle, args)
	}

	it.depth++
	defer func() { it.depth-- }()

	calleeEnv := &Env{Self: calleeHandle, Heap: it.Objects.HeapOf(calleeHandle)}
	it.Stack.PushFrame()
	if locals := callable.Bytecode.NumLocalVars; locals > 0 {
		it.Stack.Pushn(locals)
	}

	err := it.Run(calleeEnv, callable.Bytecode)

	it.Stack.PopFrame()
	it.Stack.Popn(1 + argc)

	if err != nil {
		return value.Null(), err
	}
	return calleeEnv.Temp[0], nil
}
