package stdlib

import (
	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installTagSystem binds the __TagSystem support object, exposing
// pkg/tags.System's query surface (HasTag, TagsOf, ObjectsTagged) to
// script, grounded on original_source/runtime/tag_system.c.
func installTagSystem(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"hasTag", 2, tagHasTag(host)},
		{"tags", 1, tagTagsOf(host)},
		{"objectsTagged", 1, tagObjectsTagged(host)},
	}
	for _, b := range binds {
		if err := host.Bind("__TagSystem", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func tagHasTag(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		objectName := args[0].ToString(it.Pool)
		tag := args[1].ToString(it.Pool)
		return value.Bool(host.TagSystem().HasTag(objectName, tag)), nil
	}
}

func tagTagsOf(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		objectName := args[0].ToString(it.Pool)
		tags := host.TagSystem().TagsOf(objectName)
		elems := make([]value.Value, len(tags))
		for i, t := range tags {
			elems[i] = value.String(host.StringPool(), t)
		}
		return spawnArray(host, elems)
	}
}

func tagObjectsTagged(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		tag := args[0].ToString(it.Pool)
		names := host.TagSystem().ObjectsTagged(tag)
		elems := make([]value.Value, len(names))
		for i, n := range names {
			elems[i] = value.String(host.StringPool(), n)
		}
		return spawnArray(host, elems)
	}
}
