package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// dictionaryData is the Go-side backing store for one Dictionary instance,
// carried in object.Object.UserData. original_source/runtime/sslib/dictionary.c
// backs its dictionaries with a self-balancing-free BST of BSTNode objects
// spawned in script space (dictionary.c's own fun_bst_insert/fun_bst_find);
// a Go map supersedes that representation for an in-memory port (see
// DESIGN.md), at the cost of the original's key-sorted iteration order —
// iteration here is insertion order, tracked separately in keys.
type dictionaryData struct {
	values map[string]value.Value
	keys   []string // insertion order, for iteration
}

// installDictionary binds the Dictionary system object: a variadic `__new`
// constructor (dictionaries are always built empty and populated with set,
// unlike array literals) plus the key/value protocol, grounded on
// original_source/runtime/sslib/dictionary.c and renamed to ember's
// plain-name convention for zero-arg dotted calls.
func installDictionary(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{newArrayProgramName, -1, dictNew(host)},
		{"count", 0, dictCount(host)},
		{"get", 1, dictGet(host)},
		{"set", 2, dictSet(host)},
		{"has", 1, dictHas(host)},
		{"remove", 1, dictRemove(host)},
		{"clear", 0, dictClear(host)},
		{"keys", 0, dictKeys(host)},
		{"values", 0, dictValues(host)},
		{"__destructor", 0, dictDestructor(host)},
	}
	for _, b := range binds {
		if err := host.Bind("Dictionary", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func dictDataOf(host Host, self interp.Handle) *dictionaryData {
	return host.Manager().Get(self).UserData.(*dictionaryData)
}

func dictNew(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		temp, _ := host.Manager().SystemObject("__Temp")
		h, err := host.Spawn(temp, "Dictionary", &dictionaryData{values: make(map[string]value.Value)})
		if err != nil {
			return value.Null(), err
		}
		return value.ObjectHandle(uint32(h)), nil
	}
}

func dictCount(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(float64(len(dictDataOf(host, self).keys))), nil
	}
}

func dictGet(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		key := args[0].ToString(it.Pool)
		v, ok := data.values[key]
		if !ok {
			return value.Null(), nil
		}
		return v.Clone(host.StringPool()), nil
	}
}

func dictSet(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		key := args[0].ToString(it.Pool)
		if old, ok := data.values[key]; ok {
			old.Destroy(host.StringPool())
		} else {
			data.keys = append(data.keys, key)
		}
		data.values[key] = args[1].Clone(host.StringPool())
		return value.Null(), nil
	}
}

func dictHas(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		_, ok := data.values[args[0].ToString(it.Pool)]
		return value.Bool(ok), nil
	}
}

func dictRemove(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		key := args[0].ToString(it.Pool)
		v, ok := data.values[key]
		if !ok {
			return value.Bool(false), nil
		}
		v.Destroy(host.StringPool())
		delete(data.values, key)
		for i, k := range data.keys {
			if k == key {
				data.keys = append(data.keys[:i], data.keys[i+1:]...)
				break
			}
		}
		return value.Bool(true), nil
	}
}

func dictClear(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		for _, v := range data.values {
			v.Destroy(host.StringPool())
		}
		data.values = make(map[string]value.Value)
		data.keys = nil
		return value.Null(), nil
	}
}

func dictKeys(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		elems := make([]value.Value, len(data.keys))
		for i, k := range data.keys {
			elems[i] = value.String(host.StringPool(), k)
		}
		return spawnArray(host, elems)
	}
}

func dictValues(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		elems := make([]value.Value, len(data.keys))
		for i, k := range data.keys {
			elems[i] = data.values[k]
		}
		return spawnArray(host, elems)
	}
}

func dictDestructor(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		data := dictDataOf(host, self)
		for _, v := range data.values {
			v.Destroy(host.StringPool())
		}
		return value.Null(), nil
	}
}
