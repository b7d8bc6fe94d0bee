// Package heap implements the per-object value-cell allocator described in
// spec.md §4.2, grounded on original_source/runtime/heap.c.
//
// A Heap is the sole storage for one Object's member variables. It starts
// small and doubles on overflow, up to a hard ceiling meant to catch
// runaway growth (a script that allocates heap cells in an unbounded loop).
package heap

import (
	"fmt"

	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
	"github.com/emberlang/ember/pkg/vmerrors"
)

const (
	// initialCapacity is the number of cells a fresh Heap starts with.
	initialCapacity = 16

	// maxCapacity is the hard ceiling; Alloc panics past this to surface
	// an AllocationError at the VM boundary (spec.md §7 point 2).
	maxCapacity = 1 << 20
)

// ErrOutOfRange is returned by At for an invalid address.
var ErrOutOfRange = fmt.Errorf("heap: address out of range")

// cell holds either nothing or one Value.
type cell struct {
	occupied bool
	v        value.Value
}

// Heap is a growable array of value cells with bump/free allocation.
type Heap struct {
	cells []cell
	ptr   int // allocation pointer, advances past satisfied requests
	pool  *strpool.Pool
}

// New creates a Heap with the configured initial capacity.
func New(pool *strpool.Pool) *Heap {
	return &Heap{cells: make([]cell, initialCapacity), pool: pool}
}

// Alloc returns the lowest empty index, growing (doubling) the backing
// array if none is free. Panics if the ceiling would be exceeded — the
// caller (pkg/vm) recovers this into an AllocationError.
func (h *Heap) Alloc() int {
	n := len(h.cells)
	for i := 0; i < n; i++ {
		idx := (h.ptr + i) % n
		if !h.cells[idx].occupied {
			h.cells[idx].occupied = true
			h.cells[idx].v = value.Null()
			h.ptr = (idx + 1) % n
			return idx
		}
	}

	if n >= maxCapacity {
		panic(&vmerrors.AllocationError{Resource: "heap", Limit: maxCapacity, Detail: "heap cell ceiling exceeded"})
	}

	newCap := n * 2
	if newCap == 0 {
		newCap = initialCapacity
	}
	if newCap > maxCapacity {
		newCap = maxCapacity
	}
	grown := make([]cell, newCap)
	copy(grown, h.cells)
	h.cells = grown

	addr := n
	h.cells[addr].occupied = true
	h.cells[addr].v = value.Null()
	h.ptr = (addr + 1) % newCap
	return addr
}

// Free marks address empty and destroys its Value. Tolerates double-free
// and out-of-range addresses silently.
func (h *Heap) Free(addr int) {
	if addr < 0 || addr >= len(h.cells) {
		return
	}
	if !h.cells[addr].occupied {
		return
	}
	h.cells[addr].v.Destroy(h.pool)
	h.cells[addr].occupied = false
	if addr < h.ptr {
		h.ptr = addr
	}
}

// At returns a pointer to the cell's Value. Out-of-range or empty-cell
// access panics (spec.md §4.2: "null-pointer semantics", a fatal runtime
// error surfaced at the interpreter/VM boundary).
func (h *Heap) At(addr int) *value.Value {
	if addr < 0 || addr >= len(h.cells) || !h.cells[addr].occupied {
		panic(fmt.Sprintf("heap: fatal access to invalid address %d", addr))
	}
	return &h.cells[addr].v
}

// Cap returns the current backing array size.
func (h *Heap) Cap() int { return len(h.cells) }

// ScanObjects invokes cb for every cell currently holding an object-handle
// Value. Used by the GC marker (spec.md §4.2).
func (h *Heap) ScanObjects(cb func(handle uint32)) {
	for i := range h.cells {
		c := &h.cells[i]
		if c.occupied && c.v.Typecode() == value.TypeObjectHandle {
			cb(c.v.Handle())
		}
	}
}

// Reset frees every occupied cell, returning the Heap to an empty state
// without shrinking its backing array. Used when an object is destroyed.
func (h *Heap) Reset() {
	for i := range h.cells {
		if h.cells[i].occupied {
			h.cells[i].v.Destroy(h.pool)
			h.cells[i].occupied = false
		}
	}
	h.ptr = 0
}
