// Package value implements the dynamic value type shared by every other
// package in ember: the heap, the stack, the interpreter, and the standard
// library all move values of this one type around.
//
// Value Architecture:
//
// A Value is a tagged union with six variants:
//
//   1. Null          - the absence of a value
//   2. Bool           - true/false
//   3. Number         - an IEEE-754 double
//   4. String         - a handle into a ManagedString pool (pkg/strpool)
//   5. ObjectHandle   - a 32-bit index into the ObjectManager's handle table
//   6. Raw            - an internal 64-bit payload used only for activation
//                       frame bookkeeping on the VM stack (never visible to
//                       script code)
//
// Why a struct instead of interface{}?
//
// A bare interface{} (the approach the teacher VM uses for its own stack)
// cannot express the invariants this package must hold: the null object
// handle collapsing to the null variant, a stable typecode for `typeof`,
// and the `raw` variant that only the stack and interpreter are allowed to
// produce. A fixed-shape struct with an explicit tag makes illegal states
// unrepresentable and keeps every dispatch a single switch on Type.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/emberlang/ember/pkg/strpool"
)

// Type is the typecode returned by typeof and used to drive every coercion
// and comparison switch in this package.
type Type byte

const (
	TypeNull Type = iota
	TypeBool
	TypeNumber
	TypeString
	TypeObjectHandle
	TypeRaw
)

// String returns the name typeof() reports for this type.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObjectHandle:
		return "object"
	case TypeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// NullHandle is the numeric value of the null object handle (spec.md §3:
// "the null object handle is numerically zero").
const NullHandle uint32 = 0

// Value is the tagged dynamic value. Zero value is TypeNull.
type Value struct {
	typ    Type
	num    float64
	handle uint32
	raw    uint64
	str    *strpool.String
}

// Null returns the null value.
func Null() Value { return Value{typ: TypeNull} }

// Bool constructs a bool value.
func Bool(b bool) Value {
	v := Value{typ: TypeBool}
	if b {
		v.num = 1
	}
	return v
}

// Number constructs a number value.
func Number(n float64) Value {
	return Value{typ: TypeNumber, num: n}
}

// String constructs a string value, acquiring s from the pool.
func String(pool *strpool.Pool, s string) Value {
	return Value{typ: TypeString, str: pool.Acquire(s)}
}

// stringFromManaged wraps an already-acquired ManagedString without
// acquiring it a second time; used internally by Clone/Copy.
func stringFromManaged(s *strpool.String) Value {
	return Value{typ: TypeString, str: s}
}

// ObjectHandle constructs an object-handle value. Assigning the null
// handle collapses to the null variant (spec.md §3 invariant).
func ObjectHandle(h uint32) Value {
	if h == NullHandle {
		return Null()
	}
	return Value{typ: TypeObjectHandle, handle: h}
}

// Raw constructs the internal frame-bookkeeping variant. Not reachable
// from script code; produced only by pkg/stack when opening a frame.
func Raw(bits uint64) Value {
	return Value{typ: TypeRaw, raw: bits}
}

// Typecode returns the dynamic type of v.
func (v Value) Typecode() Type { return v.typ }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// Destroy releases any resources v owns (its pooled string, if any).
// Safe to call more than once.
func (v *Value) Destroy(pool *strpool.Pool) {
	if v.typ == TypeString && v.str != nil {
		pool.Release(v.str)
		v.str = nil
	}
	v.typ = TypeNull
	v.num = 0
	v.handle = 0
	v.raw = 0
}

// Clone duplicates v, acquiring a fresh copy of any pooled string so the
// clone's lifetime is independent of the original's.
func (v Value) Clone(pool *strpool.Pool) Value {
	if v.typ == TypeString && v.str != nil {
		return stringFromManaged(pool.Acquire(v.str.Bytes()))
	}
	return v
}

// Copy overwrites dst with a clone of src, destroying whatever dst held.
func Copy(pool *strpool.Pool, dst *Value, src Value) {
	dst.Destroy(pool)
	*dst = src.Clone(pool)
}

// Swap exchanges the contents of a and b without any allocation.
func Swap(a, b *Value) { *a, *b = *b, *a }

// --- Coercions -------------------------------------------------------------

// ToBool coerces v to bool per spec.md §4.1:
//   null -> false; number v -> v != 0 && !NaN; string s -> len(s) > 0;
//   handle h -> h != 0.
func (v Value) ToBool() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeBool:
		return v.num != 0
	case TypeNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TypeString:
		return v.str != nil && v.str.Len() > 0
	case TypeObjectHandle:
		return v.handle != 0
	case TypeRaw:
		return v.raw != 0
	default:
		return false
	}
}

// ToNumber coerces v to a number per spec.md §4.1:
//   null -> 0; bool -> {0,1}; string -> parsed decimal or NaN; handle -> NaN.
func (v Value) ToNumber() float64 {
	switch v.typ {
	case TypeNull:
		return 0
	case TypeBool:
		return v.num
	case TypeNumber:
		return v.num
	case TypeString:
		if v.str == nil {
			return 0
		}
		s := strings.TrimSpace(v.str.Bytes())
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case TypeObjectHandle:
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToString renders v's canonical textual form per spec.md §4.1. Object
// handles print "[object]" unless the caller dispatches toString itself
// (the interpreter/stdlib layer is responsible for that dispatch; this
// package only ever sees raw handles).
func (v Value) ToString(pool *strpool.Pool) string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case TypeNumber:
		return formatNumber(v.num)
	case TypeString:
		if v.str == nil {
			return ""
		}
		return v.str.Bytes()
	case TypeObjectHandle:
		return "[object]"
	case TypeRaw:
		return fmt.Sprintf("[raw %#x]", v.raw)
	default:
		return ""
	}
}

// formatNumber renders numbers integral under ceil without a fraction, and
// everything else with a locale-independent decimal point, per spec.md §4.1.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.Ceil(n) == n && !math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// RawBits returns the raw payload of a TypeRaw value (stack frame use only).
func (v Value) RawBits() uint64 { return v.raw }

// Handle returns the object handle payload of a TypeObjectHandle value.
func (v Value) Handle() uint32 { return v.handle }

// BoolValue returns the underlying boolean bit without any coercion;
// callers must check Typecode() == TypeBool first.
func (v Value) BoolValue() bool { return v.num != 0 }

// NumberValue returns the underlying float without any coercion; callers
// must check Typecode() == TypeNumber first.
func (v Value) NumberValue() float64 { return v.num }

// StringValue returns the underlying managed string's bytes without any
// coercion; callers must check Typecode() == TypeString first.
func (v Value) StringValue() string {
	if v.str == nil {
		return ""
	}
	return v.str.Bytes()
}
