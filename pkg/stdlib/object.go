package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/value"
)

// installObject binds the generic built-ins every object answers to
// regardless of its own class (DESIGN.md "Generic per-object built-ins"),
// grounded on original_source/runtime/sslib/object.c. Bound under the
// pseudo-class "Object": vm.Resolve falls back to it whenever an object's
// own class declares no program of the same name.
func installObject(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"spawn", 1, objSpawn(host)},
		{"destroy", 0, objDestroy(host)},
		{"parent", 0, objParent(host)},
		{"child", 1, objChild(host)},
		{"sibling", 1, objSibling(host)},
		{"findChild", 1, objFindChild(host)},
		{"findObject", 1, objFindChild(host)}, // alias: descendant search
		{"children", 0, objChildren(host)},
		{"toString", 0, objToString},
		{"equals", 1, objEquals},
		{"hasFunction", 1, objHasFunction},
		{"hasTag", 1, objHasTag(host)},
		{"timeout", 1, objTimeoutFn},
		{"changeState", 1, objChangeState},
		{"name", 0, objName},
	}
	for _, b := range binds {
		if err := host.Bind(baseObjectName, b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// baseObjectName mirrors pkg/vm's own constant of the same name (unexported
// there); kept as a separate copy here so pkg/stdlib doesn't need to import
// pkg/vm just for a string literal.
const baseObjectName = "Object"

func objSpawn(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		name := args[0].ToString(it.Pool)
		h, err := host.Spawn(self, name, nil)
		if err != nil {
			return value.Null(), err
		}
		return value.ObjectHandle(uint32(h)), nil
	}
}

func objDestroy(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		host.Manager().Kill(self)
		return value.Null(), nil
	}
}

func objParent(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.ObjectHandle(uint32(host.Manager().Get(self).Parent)), nil
	}
}

func objChild(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		name := args[0].ToString(it.Pool)
		for _, c := range host.Manager().Get(self).Children {
			if host.Manager().Exists(c) && host.Manager().Get(c).Name == name {
				return value.ObjectHandle(uint32(c)), nil
			}
		}
		return value.Null(), nil
	}
}

func objSibling(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		name := args[0].ToString(it.Pool)
		parent := host.Manager().Get(self).Parent
		if !host.Manager().Exists(parent) {
			return value.Null(), nil
		}
		for _, c := range host.Manager().Get(parent).Children {
			if c == self || !host.Manager().Exists(c) {
				continue
			}
			if host.Manager().Get(c).Name == name {
				return value.ObjectHandle(uint32(c)), nil
			}
		}
		return value.Null(), nil
	}
}

// objFindChild performs the recursive descendant search of
// original_source/runtime/sslib/object.c's fun_findchild: every descendant,
// not just direct children, in depth-first order.
func objFindChild(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		name := args[0].ToString(it.Pool)
		var found object.Handle
		for _, c := range host.Manager().Get(self).Children {
			host.Manager().Walk(c, func(o *object.Object) bool {
				if found != object.NullHandle {
					return false
				}
				if o.Name == name {
					found = o.Handle
					return false
				}
				return true
			})
			if found != object.NullHandle {
				break
			}
		}
		return value.ObjectHandle(uint32(found)), nil
	}
}

func objChildren(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		kids := host.Manager().Get(self).Children
		elems := make([]value.Value, len(kids))
		for i, c := range kids {
			elems[i] = value.ObjectHandle(uint32(c))
		}
		return spawnArray(host, elems)
	}
}

func objToString(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, "[object]"), nil
}

func objEquals(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	other := args[0]
	if other.Typecode() != value.TypeObjectHandle {
		return value.Bool(false), nil
	}
	return value.Bool(other.Handle() == uint32(self)), nil
}

func objHasFunction(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	name := args[0].ToString(it.Pool)
	objectName := it.Objects.NameOf(self)
	_, ok := it.Programs.Resolve(objectName, name)
	return value.Bool(ok), nil
}

func objHasTag(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		tag := args[0].ToString(it.Pool)
		objectName := it.Objects.NameOf(self)
		return value.Bool(host.TagSystem().HasTag(objectName, tag)), nil
	}
}

func objTimeoutFn(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.Bool(it.Objects.Timeout(self, args[0].ToNumber())), nil
}

func objChangeState(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	it.Objects.ChangeState(self, args[0].ToString(it.Pool))
	return value.Null(), nil
}

func objName(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, it.Objects.NameOf(self)), nil
}
