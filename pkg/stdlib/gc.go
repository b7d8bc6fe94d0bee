package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installGC binds the __GC support object: script-triggerable collection
// and the disposal counter, grounded on original_source/runtime/sslib/gc.c.
func installGC(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"collect", 0, gcCollect(host)},
		{"objectCount", 0, gcObjectCount(host)},
	}
	for _, b := range binds {
		if err := host.Bind("__GC", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// gcCollect runs one incremental step per call, same as the scheduler's own
// per-tick Step; a script asking explicitly just gets the same granularity
// rather than a full stop-the-world sweep, since gc.Collector exposes
// nothing more aggressive than Step.
func gcCollect(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		host.Collector().Step()
		return value.Number(float64(host.Collector().LastDisposed())), nil
	}
}

func gcObjectCount(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(float64(host.Manager().Count())), nil
	}
}
