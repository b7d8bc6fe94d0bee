package stdlib

import (
	"fmt"
	"os"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// installApplication binds the Application system object, grounded on
// original_source/runtime/sslib/application.c.
func installApplication(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"exit", 0, appExit(host)},
		{"destroy", 0, appExit(host)}, // application.c: destroy is exit's synonym
		{"print", 1, appPrint},
		{"crash", 1, appCrash},
		{"args", 0, appArgs(host)},
	}
	for _, b := range binds {
		if err := host.Bind("Application", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func appExit(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		host.RequestExit()
		return value.Null(), nil
	}
}

func appPrint(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	fmt.Println(args[0].ToString(it.Pool))
	return value.Null(), nil
}

// appCrash raises a ScriptFatalError, per spec.md §7 point 4. This is
// propagated as an ordinary error return, not a panic: OpCall's caller in
// pkg/interp returns it up through every enclosing Run unchanged, and
// vm.Update's recover boundary only ever sees it if something further up
// the chain turned it into a panic, which nothing here does.
func appCrash(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	msg := args[0].ToString(it.Pool)
	fmt.Fprintf(os.Stderr, "ember: script crash: %s\n", msg)
	return value.Null(), &vmerrors.ScriptFatalError{Message: msg}
}

// appArgs exposes the CLI's `--` passthrough arguments (cmd/ember) as an
// Array of strings, the one piece of the host environment a script can
// observe besides Time/Console.
func appArgs(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		raw := host.ScriptArgs()
		elems := make([]value.Value, len(raw))
		for i, a := range raw {
			elems[i] = value.String(host.StringPool(), a)
		}
		return spawnArray(host, elems)
	}
}
