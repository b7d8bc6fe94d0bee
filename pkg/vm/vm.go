// Package vm ties the rest of ember's runtime packages into the embedding
// API of spec.md §6: it owns the stack, the object manager, the program
// pool, the tag system, and the garbage collector, and drives the
// depth-first scheduler tick described in spec.md §4.7.
//
// This generalises kristofer-smog/pkg/vm/vm.go's `VM` (a single
// interpreter plus a global scope map, with no object tree, no per-tick
// GC, and no cross-object call protocol) into a VM that owns a forest of
// objects, each with its own heap, updated one tick at a time.
package vm

import (
	"fmt"
	"os"
	"time"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/compiler"
	"github.com/emberlang/ember/pkg/gc"
	"github.com/emberlang/ember/pkg/heap"
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/objmanager"
	"github.com/emberlang/ember/pkg/program"
	"github.com/emberlang/ember/pkg/stack"
	"github.com/emberlang/ember/pkg/stdlib"
	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/tags"
	"github.com/emberlang/ember/pkg/value"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// NativeFunc is re-exported so callers of Bind don't need to import
// pkg/interp directly.
type NativeFunc = interp.NativeFunc

type nativeKey struct {
	object  string
	program string
}

type binding struct {
	fn    NativeFunc
	arity int
}

// VM is the embeddable ember runtime: one program pool, one tag system,
// one shared value stack, one object manager, and the interpreter that
// ties them together, per spec.md §2.
type VM struct {
	Pool     *strpool.Pool
	Programs *program.Pool
	Tags     *tags.System
	Stack    *stack.Stack
	Objects  *objmanager.Manager
	Interp   *interp.Interpreter
	GC       *gc.Collector

	natives map[nativeKey]binding
	now     func() time.Time

	launched      bool
	exitRequested bool
	launchTime    time.Time
	lastTick      time.Time
	delta         float64
	scriptArgs    []string

	debugger *Debugger
}

// New creates a VM with empty program pool, tag system, and object table.
// Compile scripts with Compile/CompileSource, then Launch before Update.
func New() *VM {
	pool := strpool.NewPool()
	st := stack.New(pool)

	vm := &VM{
		Pool:     pool,
		Programs: program.New(),
		Tags:     tags.New(),
		Stack:    st,
		natives:  make(map[nativeKey]binding),
		now:      time.Now,
	}
	vm.Objects = objmanager.New(pool, vm.now)
	vm.Interp = interp.New(st, pool, vm, vm)
	vm.GC = gc.New(vm.Objects, st)
	return vm
}

// Close releases the debugger's REPL, if any. The rest of the VM's state
// is ordinary Go memory, collected by the host garbage collector once the
// VM is dropped.
func (vm *VM) Close() {
	if vm.debugger != nil {
		vm.debugger.Close()
	}
}

// --- stdlib.Host -----------------------------------------------------

// Manager exposes the object tree to pkg/stdlib, which needs parent/child
// links and Spawn/Kill that the narrower interp.ObjectDirectory a native
// function's own *interp.Interpreter carries doesn't provide.
func (vm *VM) Manager() *objmanager.Manager { return vm.Objects }

// TagSystem exposes the tag registry to pkg/stdlib's __TagSystem bindings.
func (vm *VM) TagSystem() *tags.System { return vm.Tags }

// Collector exposes the garbage collector to pkg/stdlib's __GC bindings.
func (vm *VM) Collector() *gc.Collector { return vm.GC }

// StringPool exposes the shared string pool to pkg/stdlib, for native
// functions that build new value.Value strings.
func (vm *VM) StringPool() *strpool.Pool { return vm.Pool }

// ElapsedTime reports seconds from Launch to the start of the most recent
// Update (0 before the first), for the Time system object's `time` property.
func (vm *VM) ElapsedTime() float64 { return vm.lastTick.Sub(vm.launchTime).Seconds() }

// DeltaTime reports the seconds between the starts of the two most recent
// Update calls (or between Launch and the first Update), for the Time
// system object's `delta` property.
func (vm *VM) DeltaTime() float64 { return vm.delta }

// SetScriptArgs records the CLI's `--` passthrough arguments, read back by
// Application.args. Call before Launch.
func (vm *VM) SetScriptArgs(args []string) { vm.scriptArgs = args }

// ScriptArgs exposes the passthrough arguments to pkg/stdlib's Application
// binding.
func (vm *VM) ScriptArgs() []string { return vm.scriptArgs }

// --- interp.ObjectDirectory -------------------------------------------

func (vm *VM) Exists(h interp.Handle) bool { return vm.Objects.Exists(object.Handle(h)) }

func (vm *VM) NameOf(h interp.Handle) string { return vm.Objects.Get(object.Handle(h)).Name }

func (vm *VM) HeapOf(h interp.Handle) *heap.Heap { return vm.Objects.Get(object.Handle(h)).Heap }

func (vm *VM) FindByName(self interp.Handle, name string) (interp.Handle, bool) {
	h, ok := vm.Objects.FindByName(object.Handle(self), name)
	return interp.Handle(h), ok
}

func (vm *VM) StateOf(h interp.Handle) string { return vm.Objects.Get(object.Handle(h)).StateName }

func (vm *VM) ChangeState(h interp.Handle, name string) {
	vm.Objects.Get(object.Handle(h)).ChangeState(name, vm.now())
}

func (vm *VM) Timeout(h interp.Handle, seconds float64) bool {
	return vm.Objects.Get(object.Handle(h)).Timeout(vm.now(), seconds)
}

// --- interp.Resolver -----------------------------------------------

// baseObjectName is the pseudo-class every object implicitly inherits
// generic methods from (changeState, spawn, destroy, parent, child, ...)
// when it declares no program of its own under that name, mirroring how
// original_source/runtime/sslib/object.c's functions are available on
// every object instance regardless of its own class.
const baseObjectName = "Object"

// Resolve looks up a callable for (objectName, programName): a native
// binding registered via Bind takes priority over a compiled program,
// mirroring how the original runtime lets sslib objects shadow
// script-declared programs of the same name. A miss on objectName itself
// falls back to the shared "Object" base class before failing.
func (vm *VM) Resolve(objectName, programName string) (interp.Callable, bool) {
	if c, ok := vm.resolveExact(objectName, programName); ok {
		return c, ok
	}
	if objectName != baseObjectName {
		if c, ok := vm.resolveExact(baseObjectName, programName); ok {
			return c, ok
		}
	}
	return interp.Callable{}, false
}

func (vm *VM) resolveExact(objectName, programName string) (interp.Callable, bool) {
	if b, ok := vm.natives[nativeKey{objectName, programName}]; ok {
		return interp.Callable{Native: b.fn, Arity: b.arity}, true
	}
	if p, ok := vm.Programs.Lookup(objectName, programName); ok {
		return interp.Callable{Bytecode: p, Arity: p.Arity}, true
	}
	return interp.Callable{}, false
}

// --- interp.Binder -------------------------------------------------

// Bind registers a native implementation of (objectName, functionName),
// per spec.md §6 vm_bind. Used by pkg/stdlib to install the system
// objects, and available to embedders for host-provided functions.
func (vm *VM) Bind(objectName, functionName string, arity int, fn NativeFunc) error {
	if fn == nil {
		return fmt.Errorf("vm: Bind: nil function for %s.%s", objectName, functionName)
	}
	vm.natives[nativeKey{objectName, functionName}] = binding{fn: fn, arity: arity}
	return nil
}

// Compile reads path from disk and compiles it as a unit named after the
// file (spec.md §4.8's "<file>:<line>" diagnostics use this name).
func (vm *VM) Compile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &vmerrors.ParseError{File: path, Message: err.Error()}
	}
	return vm.CompileSource(path, string(src))
}

// CompileSource compiles source under unitName (used only for diagnostics)
// and registers every object declaration's programs and tags. May be
// called more than once, before Launch, to link several units together.
func (vm *VM) CompileSource(unitName, source string) error {
	unit, err := compiler.Compile(unitName, source)
	if err != nil {
		return err
	}
	for _, obj := range unit.Objects {
		for _, p := range obj.Programs {
			vm.Programs.Register(obj.Name, p)
		}
		for _, tag := range obj.Tags {
			vm.Tags.AddTag(obj.Name, tag)
		}
	}
	return nil
}

// Launch installs the standard library, spawns the root object and the
// fixed system objects (spec.md §4.5/§6), and runs their constructors in
// spawn order. Call once, after compiling every script unit.
func (vm *VM) Launch() error {
	if vm.launched {
		return fmt.Errorf("vm: already launched")
	}

	if err := stdlib.Install(vm); err != nil {
		return err
	}

	rootHandle, err := vm.Objects.SpawnRoot()
	if err != nil {
		return err
	}
	if err := vm.construct(rootHandle); err != nil {
		return err
	}
	for _, child := range append([]object.Handle(nil), vm.Objects.Get(rootHandle).Children...) {
		if err := vm.construct(child); err != nil {
			return err
		}
	}

	vm.launched = true
	vm.launchTime = vm.now()
	vm.lastTick = vm.launchTime
	return nil
}

// construct runs __ssconstructor (if the object's class declares one)
// followed by the optional zero-arity constructor, per
// original_source/runtime/object.c's surgescript_object_init.
func (vm *VM) construct(h object.Handle) error {
	o := vm.Objects.Get(h)
	if err := vm.runProgramIfExists(h, o.Name, program.ConstructorProgramName); err != nil {
		return err
	}
	if err := vm.runProgramIfExists(h, o.Name, program.UserConstructorProgramName); err != nil {
		return err
	}
	return nil
}

// destruct runs the optional __destructor before the object is removed
// from the table.
func (vm *VM) destruct(h object.Handle) error {
	o := vm.Objects.Get(h)
	return vm.runProgramIfExists(h, o.Name, program.DestructorProgramName)
}

func (vm *VM) runProgramIfExists(h object.Handle, objectName, programName string) error {
	callable, ok := vm.Resolve(objectName, programName)
	if !ok {
		return nil
	}
	if callable.Arity != 0 {
		return &vmerrors.RuntimeTypeError{Object: objectName, Program: programName, Message: "cannot receive parameters"}
	}
	return vm.invoke(h, callable)
}

// invoke runs a zero-argument program on h: constructors, the destructor,
// and state programs are all invoked this way (spec.md §4.7's dispatch is
// "one program per tick per active object", modelled the same way the
// original engine's surgescript_object_call_state pushes the self handle
// and opens a frame, per original_source/runtime/object.c). This gives
// every directly-invoked program the same frame/locals semantics as a
// program reached through OpCall, so an implicit local declared in a
// state body behaves identically to one declared in a `fun`.
func (vm *VM) invoke(h object.Handle, callable interp.Callable) error {
	if callable.Native != nil {
		_, err := callable.Native(vm.Interp, interp.Handle(h), nil)
		return err
	}

	vm.Stack.Push(value.ObjectHandle(uint32(h)))
	env := &interp.Env{Self: interp.Handle(h), Heap: vm.HeapOf(interp.Handle(h))}
	vm.Stack.PushFrame()
	if callable.Bytecode.NumLocalVars > 0 {
		vm.Stack.Pushn(callable.Bytecode.NumLocalVars)
	}
	err := vm.Interp.Run(env, callable.Bytecode)
	vm.Stack.PopFrame()
	vm.Stack.Popn(1)
	return err
}

// Root returns the root object's handle.
func (vm *VM) Root() object.Handle { return vm.Objects.Root() }

// Find returns the handle of the named system object (String, Math,
// Application, ...), or the null handle if name isn't one.
func (vm *VM) Find(name string) object.Handle {
	h, ok := vm.Objects.SystemObject(name)
	if !ok {
		return object.NullHandle
	}
	return h
}

// Spawn creates a child of parent and runs its constructors, per spec.md
// §6 vm_spawn. userData is attached to the object and may be read back by
// native functions bound to it.
func (vm *VM) Spawn(parent object.Handle, name string, userData any) (object.Handle, error) {
	h, err := vm.Objects.Spawn(parent, name, userData)
	if err != nil {
		return object.NullHandle, err
	}
	if err := vm.construct(h); err != nil {
		return h, err
	}
	return h, nil
}

// RequestExit sets a flag that makes the next Update kill the root object,
// which cascades: once the root is deleted, IsActive() becomes false and
// Update stops traversing.
func (vm *VM) RequestExit() { vm.exitRequested = true }

// IsActive reports whether the root object still exists.
func (vm *VM) IsActive() bool { return vm.Objects.Exists(vm.Objects.Root()) }

// Update runs one scheduler tick: a depth-first, parent-before-children
// traversal of the object tree invoking each active object's current
// state program, followed by one incremental GC step (spec.md §4.7). It
// returns false once the VM has gone inactive (the root was killed and
// removed), at which point the embedder should stop calling Update.
func (vm *VM) Update() (bool, error) {
	if !vm.launched {
		return false, fmt.Errorf("vm: Update called before Launch")
	}
	if !vm.IsActive() {
		return false, nil
	}

	if vm.exitRequested {
		vm.Objects.Kill(vm.Objects.Root())
	}

	now := vm.now()
	vm.delta = now.Sub(vm.lastTick).Seconds()
	vm.lastTick = now

	if err := vmerrors.Recover(func() error {
		return vm.tick(vm.Objects.Root())
	}); err != nil {
		return vm.IsActive(), err
	}

	vm.GC.Step()

	return vm.IsActive(), nil
}

// tick implements surgescript_object_traverse_tree + surgescript_object_update:
// depth-first, parent before children; a killed object is deleted on
// sight, after its own __destructor runs, and objmanager.Delete disposes of
// its whole subtree at once (the children's destructors are not run); an
// inactive object still blocks descent into its
// children, matching the original engine's update-skips-children rule.
func (vm *VM) tick(h object.Handle) error {
	if !vm.Objects.Exists(h) {
		return nil
	}
	o := vm.Objects.Get(h)

	if o.Killed {
		if err := vm.destruct(h); err != nil {
			return err
		}
		vm.Objects.Delete(h)
		return nil
	}

	if !o.Active {
		return nil
	}

	if err := vm.runState(h, o); err != nil {
		return err
	}

	for _, c := range append([]object.Handle(nil), o.Children...) {
		if err := vm.tick(c); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) runState(h object.Handle, o *object.Object) error {
	progName := program.StateProgramName(o.StateName)
	callable, ok := vm.Resolve(o.Name, progName)
	if !ok {
		return nil
	}
	return vm.invoke(h, callable)
}

// Disassemble returns a human-readable dump of a compiled program, for
// the `ember disasm` CLI subcommand (spec.md §6 AMBIENT note).
func Disassemble(p *bytecode.Program) string { return bytecode.Disassemble(p) }

// CallFunction invokes a zero-or-more-argument function on an object from
// host code, mirroring surgescript_object_call_function. Used by embedders
// that need to call into script code from Go.
func (vm *VM) CallFunction(self object.Handle, functionName string, args []value.Value) (value.Value, error) {
	objectName := vm.NameOf(interp.Handle(self))
	callable, ok := vm.Resolve(objectName, functionName)
	if !ok {
		return value.Null(), &vmerrors.RuntimeTypeError{Object: objectName, Program: functionName, Message: "no such program"}
	}
	if callable.Arity != len(args) {
		return value.Null(), &vmerrors.RuntimeTypeError{Object: objectName, Program: functionName, Message: fmt.Sprintf("arity mismatch: expected %d, got %d", callable.Arity, len(args))}
	}
	if callable.Native != nil {
		return callable.Native(vm.Interp, interp.Handle(self), args)
	}

	vm.Stack.Push(value.ObjectHandle(uint32(self)))
	for _, a := range args {
		vm.Stack.Push(a.Clone(vm.Pool))
	}
	env := &interp.Env{Self: interp.Handle(self), Heap: vm.HeapOf(interp.Handle(self))}
	vm.Stack.PushFrame()
	if callable.Bytecode.NumLocalVars > 0 {
		vm.Stack.Pushn(callable.Bytecode.NumLocalVars)
	}
	err := vm.Interp.Run(env, callable.Bytecode)
	vm.Stack.PopFrame()
	vm.Stack.Popn(1 + len(args))
	if err != nil {
		return value.Null(), err
	}
	return env.Temp[0], nil
}
