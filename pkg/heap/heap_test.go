package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
)

func TestAllocReturnsDistinctAddressesInitializedToNull(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)

	a := h.Alloc()
	b := h.Alloc()
	assert.NotEqual(t, a, b)
	assert.True(t, h.At(a).IsNull())
	assert.True(t, h.At(b).IsNull())
}

func TestAtPanicsOnUnallocatedAddress(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	assert.Panics(t, func() { h.At(0) })
}

func TestAtPanicsOutOfRange(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	assert.Panics(t, func() { h.At(-1) })
	assert.Panics(t, func() { h.At(h.Cap()) })
}

func TestFreeReclaimsAddressForReuse(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	a := h.Alloc()
	*h.At(a) = value.Number(7)

	h.Free(a)
	assert.Panics(t, func() { h.At(a) })

	b := h.Alloc()
	assert.True(t, h.At(b).IsNull())
}

func TestFreeToleratesDoubleFreeAndOutOfRange(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	a := h.Alloc()
	assert.NotPanics(t, func() {
		h.Free(a)
		h.Free(a)
		h.Free(-1)
		h.Free(h.Cap() + 1)
	})
}

func TestAllocGrowsCapacityPastInitialSize(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	start := h.Cap()

	addrs := make([]int, start+1)
	for i := range addrs {
		addrs[i] = h.Alloc()
	}
	assert.Greater(t, h.Cap(), start)

	seen := make(map[int]bool)
	for _, a := range addrs {
		require.False(t, seen[a], "address %d allocated twice", a)
		seen[a] = true
	}
}

func TestScanObjectsVisitsOnlyObjectHandleCells(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	a := h.Alloc()
	b := h.Alloc()
	c := h.Alloc()
	*h.At(a) = value.ObjectHandle(5)
	*h.At(b) = value.Number(1)
	*h.At(c) = value.ObjectHandle(9)

	var seen []uint32
	h.ScanObjects(func(handle uint32) { seen = append(seen, handle) })
	assert.ElementsMatch(t, []uint32{5, 9}, seen)
}

func TestResetFreesEveryCellWithoutShrinking(t *testing.T) {
	pool := strpool.NewPool()
	h := New(pool)
	a := h.Alloc()
	*h.At(a) = value.Number(3)
	cap := h.Cap()

	h.Reset()
	assert.Equal(t, cap, h.Cap())
	assert.Panics(t, func() { h.At(a) })

	fresh := h.Alloc()
	assert.True(t, h.At(fresh).IsNull())
}
