package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installBoolean binds the Boolean system object, grounded on
// original_source/runtime/sslib/boolean.c, adapted the same way String and
// Number are (see string.go's doc comment).
func installBoolean(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"toString", 1, boolToString},
	}
	for _, b := range binds {
		if err := host.Bind("Boolean", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func boolToString(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, args[0].ToString(it.Pool)), nil
}
