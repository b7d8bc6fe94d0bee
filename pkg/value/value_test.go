package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberlang/ember/pkg/strpool"
)

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, TypeNull, v.Typecode())
}

func TestObjectHandleCollapsesNullHandleToNull(t *testing.T) {
	v := ObjectHandle(0)
	assert.True(t, v.IsNull())

	v = ObjectHandle(7)
	assert.Equal(t, TypeObjectHandle, v.Typecode())
	assert.Equal(t, uint32(7), v.Handle())
}

func TestToBoolCoercions(t *testing.T) {
	pool := strpool.NewPool()
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"nonzero", Number(-3), true},
		{"empty string", String(pool, ""), false},
		{"nonempty string", String(pool, "x"), true},
		{"null handle", ObjectHandle(0), false},
		{"live handle", ObjectHandle(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.ToBool())
		})
	}
}

func TestToNumberCoercions(t *testing.T) {
	pool := strpool.NewPool()
	assert.Equal(t, float64(0), Null().ToNumber())
	assert.Equal(t, float64(1), Bool(true).ToNumber())
	assert.Equal(t, float64(0), Bool(false).ToNumber())
	assert.Equal(t, 3.5, Number(3.5).ToNumber())
	assert.Equal(t, float64(42), String(pool, "  42  ").ToNumber())
	assert.True(t, math.IsNaN(String(pool, "nope").ToNumber()))
	assert.True(t, math.IsNaN(ObjectHandle(1).ToNumber()))
}

func TestToStringFormatsIntegralNumbersWithoutFraction(t *testing.T) {
	pool := strpool.NewPool()
	assert.Equal(t, "null", Null().ToString(pool))
	assert.Equal(t, "true", Bool(true).ToString(pool))
	assert.Equal(t, "10", Number(10).ToString(pool))
	assert.Equal(t, "10.5", Number(10.5).ToString(pool))
	assert.Equal(t, "NaN", Number(math.NaN()).ToString(pool))
	assert.Equal(t, "hi", String(pool, "hi").ToString(pool))
	assert.Equal(t, "[object]", ObjectHandle(3).ToString(pool))
}

func TestCloneAcquiresIndependentStringCopy(t *testing.T) {
	pool := strpool.NewPool()
	a := String(pool, "shared")
	b := a.Clone(pool)

	a.Destroy(pool)
	assert.True(t, a.IsNull())
	assert.Equal(t, "shared", b.StringValue())
	b.Destroy(pool)
}

func TestCopyDestroysDestinationFirst(t *testing.T) {
	pool := strpool.NewPool()
	dst := String(pool, "old")
	src := String(pool, "new")

	Copy(pool, &dst, src)
	assert.Equal(t, "new", dst.StringValue())
	dst.Destroy(pool)
	src.Destroy(pool)
}

func TestSwapExchangesContentsInPlace(t *testing.T) {
	a := Number(1)
	b := Number(2)
	Swap(&a, &b)
	assert.Equal(t, float64(2), a.NumberValue())
	assert.Equal(t, float64(1), b.NumberValue())
}

func TestCompareAcrossTypesFollowsCoercionOrder(t *testing.T) {
	pool := strpool.NewPool()
	assert.Equal(t, 0, Compare(pool, Null(), Bool(false)))
	assert.Negative(t, Compare(pool, Null(), Bool(true)))
	assert.Equal(t, 0, Compare(pool, Number(5), Number(5)))
	assert.Negative(t, Compare(pool, Number(1), Number(2)))
	assert.Equal(t, 0, Compare(pool, Number(math.NaN()), Number(1)))
	assert.Negative(t, Compare(pool, String(pool, "a"), String(pool, "b")))
	assert.Equal(t, 0, Compare(pool, Number(5), String(pool, "5")))
}

func TestEqualWrapsCompare(t *testing.T) {
	pool := strpool.NewPool()
	assert.True(t, Equal(pool, Number(1), Bool(true)))
	assert.False(t, Equal(pool, Number(1), Number(2)))
}

func TestApproxEqualWithinEpsilon(t *testing.T) {
	assert.True(t, ApproxEqual(1.0, 1.0000001, 1e-4))
	assert.False(t, ApproxEqual(1.0, 1.1, 1e-4))
}

func TestTypeStringNamesEveryVariant(t *testing.T) {
	assert.Equal(t, "null", TypeNull.String())
	assert.Equal(t, "bool", TypeBool.String())
	assert.Equal(t, "number", TypeNumber.String())
	assert.Equal(t, "string", TypeString.String())
	assert.Equal(t, "object", TypeObjectHandle.String())
	assert.Equal(t, "raw", TypeRaw.String())
}
