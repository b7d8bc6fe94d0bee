package stdlib

import (
	"strconv"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installNumber binds the Number system object, grounded on
// original_source/runtime/sslib/number.c, adapted the same way String is:
// static functions on the singleton taking the subject number as args[0]
// (see string.go's doc comment).
func installNumber(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"toString", 1, numToString},
		{"parse", 1, numParse},
		{"isNaN", 1, numIsNaN},
	}
	for _, b := range binds {
		if err := host.Bind("Number", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func numToString(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, args[0].ToString(it.Pool)), nil
}

// numParse supplements the original, which never exposes string->number
// parsing as a named function (coercion there is always implicit via
// surgescript_var_get_number); ember's Number surface gets it explicitly
// since there's no implicit-coercion opcode for this direction.
func numParse(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	s := args[0].ToString(it.Pool)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Number(0), nil
	}
	return value.Number(n), nil
}

func numIsNaN(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	n := args[0].ToNumber()
	return value.Bool(n != n), nil
}
