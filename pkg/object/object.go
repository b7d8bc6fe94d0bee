// Package object implements the Object entity described in spec.md §3/§4.5:
// identity, a private heap, a state machine, tree links, and exported
// variables.
package object

import (
	"time"

	"github.com/emberlang/ember/pkg/heap"
)

// Handle is a 32-bit index into the ObjectManager's handle table. Handle 0
// is null; handle 1 is the root (spec.md GLOSSARY).
type Handle uint32

// NullHandle is the reserved null handle.
const NullHandle Handle = 0

// RootHandle is the handle the root object always occupies.
const RootHandle Handle = 1

// DefaultState is the state every freshly spawned object starts in.
const DefaultState = "main"

// Transform2D is the optional 2-D transform an object may carry, mirroring
// original_source/runtime/sslib/transform2d.c's position/rotation/scale
// triple. A nil *Transform2D means the object has no transform.
type Transform2D struct {
	X, Y     float64
	Rotation float64 // radians
	ScaleX   float64
	ScaleY   float64
}

// NewTransform2D returns the identity transform.
func NewTransform2D() *Transform2D {
	return &Transform2D{ScaleX: 1, ScaleY: 1}
}

// ExportedVar is one of an object's exported variables: a name visible to
// other objects, resolved to a fixed heap address at declaration time.
type ExportedVar struct {
	Name    string
	Address int
}

// Object is one node of the VM's object tree.
type Object struct {
	Name   string
	Handle Handle

	Parent   Handle
	Children []Handle // ordered; spec.md §3 invariant (a)

	Heap *heap.Heap

	StateName       string
	LastStateChange time.Time

	Active bool
	Killed bool

	// Reachable is GC workspace (spec.md §4.6): reset at the start of
	// each cycle, set when the object is discovered to be reachable.
	Reachable bool

	Transform *Transform2D // nil if this object never requested one

	Exported []ExportedVar

	UserData any
}

// New constructs a fresh, active Object in the default state. The caller
// (ObjectManager.Spawn) is responsible for wiring Name/Handle/Parent/Children.
func New(h *heap.Heap, now time.Time) *Object {
	return &Object{
		StateName:       DefaultState,
		Active:          true,
		LastStateChange: now,
		Heap:            h,
	}
}

// ChangeState sets the object's current state and refreshes the timestamp
// the timeout() predicate reads (spec.md §4.7).
func (o *Object) ChangeState(name string, now time.Time) {
	o.StateName = name
	o.LastStateChange = now
}

// Timeout reports whether at least seconds have elapsed since the last
// state change, per spec.md §4.7's `timeout(seconds)` predicate.
func (o *Object) Timeout(now time.Time, seconds float64) bool {
	return now.Sub(o.LastStateChange).Seconds() >= seconds
}

// ExportedAddress looks up the heap address of an exported variable by
// name. Returns -1, false if not found.
func (o *Object) ExportedAddress(name string) (int, bool) {
	for _, ev := range o.Exported {
		if ev.Name == name {
			return ev.Address, true
		}
	}
	return -1, false
}

// AddChild appends h to the children list. Per invariant (c), callers must
// not add an object as its own child.
func (o *Object) AddChild(h Handle) {
	o.Children = append(o.Children, h)
}

// RemoveChild removes h from the children list, if present.
func (o *Object) RemoveChild(h Handle) {
	for i, c := range o.Children {
		if c == h {
			o.Children = append(o.Children[:i], o.Children[i+1:]...)
			return
		}
	}
}

// IsRoot reports whether this object is its own parent, i.e. the root or a
// detached object (spec.md §3 invariant (b)).
func (o *Object) IsRoot() bool { return o.Parent == o.Handle }
