package stdlib

import (
	"math/rand"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/value"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// newArrayProgramName mirrors pkg/compiler/expr.go's unexported constant of
// the same name; array-literal codegen calls this program on the "Array"
// system object, and the two names must agree.
const newArrayProgramName = "__new"

// arrayData is the Go-side backing store for one Array instance, carried in
// object.Object.UserData (spec.md never specifies a representation for
// this supplemented type; original_source/runtime/sslib/array.c backs its
// arrays with a BST of index->value nodes, which a Go slice supersedes for
// an in-memory port). Values are cloned in and destroyed out so the array's
// own lifetime over pooled strings is independent of whatever handed them
// in, matching every other copy-in/copy-out boundary in this VM (heap
// cells, stack cells).
type arrayData struct {
	items []value.Value
}

// installArray binds the Array system object: the variadic `__new`
// constructor array-literal codegen calls, plus the index/length protocol
// pkg/compiler's foreach desugaring and spec.md §8's own array scenario
// both depend on. Grounded on original_source/runtime/sslib/array.c,
// renamed to the plain-name convention ember's zero-arg dotted calls
// require (see DESIGN.md).
func installArray(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{newArrayProgramName, -1, arrayNew(host)},
		{"length", 0, arrayLength(host)},
		{"get", 1, arrayGet(host)},
		{"set", 2, arraySet(host)},
		{"push", 1, arrayPush(host)},
		{"pop", 0, arrayPop(host)},
		{"shift", 0, arrayShift(host)},
		{"unshift", 1, arrayUnshift(host)},
		{"indexOf", 1, arrayIndexOf(host)},
		{"clear", 0, arrayClear(host)},
		{"reverse", 0, arrayReverse(host)},
		{"sort", 0, arraySort(host)},
		{"shuffle", 0, arrayShuffle(host)},
		{"__destructor", 0, arrayDestructor(host)},
	}
	for _, b := range binds {
		if err := host.Bind("Array", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// spawnArray is the Go-side equivalent of evaluating an array literal:
// spawns a fresh Array instance anchored on __Temp and populates it with
// elems. Used by native functions elsewhere in pkg/stdlib (Object.children,
// String.split, ...) that need to hand a script an array without going
// through bytecode.
func spawnArray(host Host, elems []value.Value) (value.Value, error) {
	temp, _ := host.Manager().SystemObject("__Temp")
	items := make([]value.Value, len(elems))
	for i, e := range elems {
		items[i] = e.Clone(host.StringPool())
	}
	h, err := host.Spawn(temp, "Array", &arrayData{items: items})
	if err != nil {
		return value.Null(), err
	}
	return value.ObjectHandle(uint32(h)), nil
}

func arrayNew(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return spawnArray(host, args)
	}
}

// dataOf fetches self's backing slice. Every Array instance reaching a
// native function here was produced by arrayNew/spawnArray, which always
// sets UserData to a *arrayData, so a mismatch is an internal bug, not a
// recoverable script-level condition.
func dataOf(host Host, self object.Handle) *arrayData {
	return host.Manager().Get(self).UserData.(*arrayData)
}

func arrayLength(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(float64(len(dataOf(host, self).items))), nil
	}
}

func indexArg(v value.Value) int { return int(v.ToNumber()) }

func arrayGet(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		i := indexArg(args[0])
		if i < 0 || i >= len(data.items) {
			return value.Null(), &vmerrors.RuntimeTypeError{Object: "Array", Program: "get", Message: "index out of range"}
		}
		return data.items[i].Clone(host.StringPool()), nil
	}
}

func arraySet(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		i := indexArg(args[0])
		if i < 0 || i >= len(data.items) {
			return value.Null(), &vmerrors.RuntimeTypeError{Object: "Array", Program: "set", Message: "index out of range"}
		}
		value.Copy(host.StringPool(), &data.items[i], args[1])
		return value.Null(), nil
	}
}

func arrayPush(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		data.items = append(data.items, args[0].Clone(host.StringPool()))
		return value.Null(), nil
	}
}

func arrayPop(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		n := len(data.items)
		if n == 0 {
			return value.Null(), &vmerrors.RuntimeTypeError{Object: "Array", Program: "pop", Message: "pop on an empty array"}
		}
		v := data.items[n-1]
		data.items = data.items[:n-1]
		return v, nil
	}
}

func arrayShift(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		if len(data.items) == 0 {
			return value.Null(), &vmerrors.RuntimeTypeError{Object: "Array", Program: "shift", Message: "shift on an empty array"}
		}
		v := data.items[0]
		data.items = data.items[1:]
		return v, nil
	}
}

func arrayUnshift(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		data.items = append([]value.Value{args[0].Clone(host.StringPool())}, data.items...)
		return value.Null(), nil
	}
}

func arrayIndexOf(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		for i, item := range data.items {
			if value.Equal(host.StringPool(), item, args[0]) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	}
}

func arrayClear(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		for i := range data.items {
			data.items[i].Destroy(host.StringPool())
		}
		data.items = nil
		return value.Null(), nil
	}
}

func arrayReverse(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		for i, j := 0, len(data.items)-1; i < j; i, j = i+1, j-1 {
			data.items[i], data.items[j] = data.items[j], data.items[i]
		}
		return value.Null(), nil
	}
}

func arraySort(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		pool := host.StringPool()
		items := data.items
		// insertion sort: arrays here are small in practice and this keeps
		// the comparator inline with value.Compare's pool-aware string path.
		for i := 1; i < len(items); i++ {
			for j := i; j > 0 && value.Compare(pool, items[j-1], items[j]) > 0; j-- {
				items[j-1], items[j] = items[j], items[j-1]
			}
		}
		return value.Null(), nil
	}
}

func arrayShuffle(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		rand.Shuffle(len(data.items), func(i, j int) {
			data.items[i], data.items[j] = data.items[j], data.items[i]
		})
		return value.Null(), nil
	}
}

func arrayDestructor(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dataOf(host, self)
		for i := range data.items {
			data.items[i].Destroy(host.StringPool())
		}
		return value.Null(), nil
	}
}
