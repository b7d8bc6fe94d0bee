package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// ember's version string, reported by System.version (original_source's
// System.getVersion reports the engine's own release).
const engineVersion = "0.1.0"

// installSystem binds the System-equivalent surface onto the Application
// system object (spec.md's distillation never names a separate "System"
// object; original_source/runtime/sslib/system.c's exit/spawn/destroy
// already live on Application here — see application.go), adding the
// read-only accessors original_source/.../system.c exposes for the
// temp/gc/tags support objects and engine metadata.
func installSystem(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"version", 0, sysVersion},
		{"objectCount", 0, sysObjectCount(host)},
		{"temp", 0, sysTemp(host)},
		{"gc", 0, sysGC(host)},
		{"tags", 0, sysTags(host)},
	}
	for _, b := range binds {
		if err := host.Bind("Application", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func sysVersion(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, engineVersion), nil
}

func sysObjectCount(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(float64(host.Manager().Count())), nil
	}
}

func sysTemp(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		h, _ := host.Manager().SystemObject("__Temp")
		return value.ObjectHandle(uint32(h)), nil
	}
}

func sysGC(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		h, _ := host.Manager().SystemObject("__GC")
		return value.ObjectHandle(uint32(h)), nil
	}
}

func sysTags(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		h, _ := host.Manager().SystemObject("__TagSystem")
		return value.ObjectHandle(uint32(h)), nil
	}
}
