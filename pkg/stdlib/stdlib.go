// Package stdlib implements the native system objects bound into a fresh
// *vm.VM at Launch time: Object's generic built-ins, Application, Console,
// Math, String/Number/Boolean wrappers, Array/Dictionary, Transform2D,
// System, Time, and the three underscore-prefixed support objects
// (__Temp, __GC, __TagSystem), grounded throughout on
// original_source/runtime/sslib/*.c and adapted to ember's distilled
// grammar's property-style zero-arg calls (plain names: `length`, not
// `getLength`; `objectCount`, not `getObjectCount`).
package stdlib

import (
	"github.com/emberlang/ember/pkg/gc"
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/objmanager"
	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/tags"
	"github.com/emberlang/ember/pkg/value"
)

// Host is what Install needs from the embedding VM: registering native
// functions (interp.Binder) plus the object-tree, tag, GC, and string-pool
// access none of those native functions can reach through the narrower
// interp.ObjectDirectory their own `it *interp.Interpreter` argument
// carries. *vm.VM satisfies this purely by its existing method set — kept
// as an interface here, not a direct import of pkg/vm, since pkg/vm itself
// imports pkg/stdlib to call Install.
type Host interface {
	interp.Binder

	Manager() *objmanager.Manager
	TagSystem() *tags.System
	Collector() *gc.Collector
	StringPool() *strpool.Pool
	ElapsedTime() float64
	DeltaTime() float64
	ScriptArgs() []string

	Spawn(parent object.Handle, name string, userData any) (object.Handle, error)
	CallFunction(self object.Handle, functionName string, args []value.Value) (value.Value, error)
	RequestExit()
}

// Install registers every system object's native functions on host. Called
// once, by vm.VM.Launch, before the root and system objects are spawned.
func Install(host Host) error {
	installers := []func(Host) error{
		installObject,
		installApplication,
		installConsole,
		installMath,
		installString,
		installNumber,
		installBoolean,
		installArray,
		installDictionary,
		installTransform2D,
		installSystem,
		installTime,
		installGC,
		installTagSystem,
	}
	for _, install := range installers {
		if err := install(host); err != nil {
			return err
		}
	}
	return nil
}
