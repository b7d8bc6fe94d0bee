package value

import (
	"math"
	"strings"

	"github.com/emberlang/ember/pkg/strpool"
)

// Compare implements the total preorder described in spec.md §4.1:
//
//   - equal typecodes: per-variant natural order
//   - otherwise: null ordered by truthiness; raw compared numerically;
//     if either side is a string, the other is stringified and compared
//     with strcmp; else if either side is a number, the other is
//     numerified and compared with </> (NaN is unordered, yields 0);
//     bool compared as int; handles compared numerically.
//
// Returns -1, 0, or 1.
func Compare(pool *strpool.Pool, a, b Value) int {
	if a.typ == b.typ {
		return compareSameType(pool, a, b)
	}

	if a.typ == TypeNull || b.typ == TypeNull {
		return compareBool(a.ToBool(), b.ToBool())
	}

	if a.typ == TypeRaw || b.typ == TypeRaw {
		return compareFloat(rawAsFloat(a), rawAsFloat(b))
	}

	if a.typ == TypeString || b.typ == TypeString {
		return strings.Compare(a.ToString(pool), b.ToString(pool))
	}

	if a.typ == TypeNumber || b.typ == TypeNumber {
		return compareFloat(a.ToNumber(), b.ToNumber())
	}

	if a.typ == TypeBool || b.typ == TypeBool {
		return compareBool(a.ToBool(), b.ToBool())
	}

	// both object handles
	return compareHandle(a.handle, b.handle)
}

func compareSameType(pool *strpool.Pool, a, b Value) int {
	switch a.typ {
	case TypeNull:
		return 0
	case TypeBool:
		return compareBool(a.num != 0, b.num != 0)
	case TypeNumber:
		return compareFloat(a.num, b.num)
	case TypeString:
		return strings.Compare(a.ToString(pool), b.ToString(pool))
	case TypeObjectHandle:
		return compareHandle(a.handle, b.handle)
	case TypeRaw:
		return compareUint64(a.raw, b.raw)
	default:
		return 0
	}
}

func rawAsFloat(v Value) float64 {
	if v.typ == TypeRaw {
		return float64(v.raw)
	}
	return v.ToNumber()
}

func compareBool(a, b bool) int {
	ai, bi := 0, 0
	if a {
		ai = 1
	}
	if b {
		bi = 1
	}
	return ai - bi
}

func compareFloat(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareHandle(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal is a convenience wrapper for the common case of testing equality.
func Equal(pool *strpool.Pool, a, b Value) bool {
	return Compare(pool, a, b) == 0
}

// ApproxEqual compares two numbers within epsilon. Nothing in the runtime
// calls this implicitly (see DESIGN.md Open Question (a)); it exists for
// callers — primarily stdlib Math routines — that want fuzzy comparison.
func ApproxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
