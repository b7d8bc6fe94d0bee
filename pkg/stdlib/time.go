package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installTime binds the Time system object, grounded on
// original_source/runtime/sslib/time.c.
func installTime(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"time", 0, timeElapsed(host)},
		{"delta", 0, timeDelta(host)},
	}
	for _, b := range binds {
		if err := host.Bind("Time", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func timeElapsed(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(host.ElapsedTime()), nil
	}
}

func timeDelta(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(host.DeltaTime()), nil
	}
}
