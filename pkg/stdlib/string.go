package stdlib

import (
	"strings"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installString binds the String system object, grounded on
// original_source/runtime/sslib/string.c. The original dispatches these as
// methods on a primitive receiver, with the primitive itself riding along
// as param[0]; ember's call protocol (pkg/interp.call) requires every
// callee to be a genuine object handle, so here they are static utility
// functions on the String singleton instead, with the subject string as an
// explicit leading argument (`String.length(s)` rather than `s.length`; see
// DESIGN.md).
func installString(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"length", 1, strLength},
		{"indexOf", 2, strIndexOf},
		{"substr", 3, strSubstr},
		{"concat", 2, strConcat},
		{"toUpper", 1, strToUpper},
		{"toLower", 1, strToLower},
		{"trim", 1, strTrim},
		{"split", 2, strSplit(host)},
	}
	for _, b := range binds {
		if err := host.Bind("String", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func strLength(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	s := args[0].ToString(it.Pool)
	return value.Number(float64(len([]rune(s)))), nil
}

// strIndexOf finds the first occurrence of args[1] within args[0], in
// rune offsets (original_source/.../string.c's fun_indexof is UTF-8 aware).
func strIndexOf(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	haystack := args[0].ToString(it.Pool)
	needle := args[1].ToString(it.Pool)
	byteIdx := strings.Index(haystack, needle)
	if byteIdx < 0 {
		return value.Number(-1), nil
	}
	return value.Number(float64(len([]rune(haystack[:byteIdx])))), nil
}

func strSubstr(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	runes := []rune(args[0].ToString(it.Pool))
	start := clampInt(int(args[1].ToNumber()), 0, len(runes))
	length := clampInt(int(args[2].ToNumber()), 0, len(runes)-start)
	return value.String(it.Pool, string(runes[start:start+length])), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func strConcat(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, args[0].ToString(it.Pool)+args[1].ToString(it.Pool)), nil
}

func strToUpper(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, strings.ToUpper(args[0].ToString(it.Pool))), nil
}

func strToLower(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, strings.ToLower(args[0].ToString(it.Pool))), nil
}

func strTrim(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.String(it.Pool, strings.TrimSpace(args[0].ToString(it.Pool))), nil
}

// strSplit supplements the distilled grammar's String surface (not in the
// original sslib) with an Array-returning split, in the same spirit as
// Object.children's use of spawnArray to hand a script a composite value
// without going through bytecode.
func strSplit(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		s := args[0].ToString(it.Pool)
		sep := args[1].ToString(it.Pool)
		parts := strings.Split(s, sep)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = value.String(host.StringPool(), p)
		}
		return spawnArray(host, elems)
	}
}
