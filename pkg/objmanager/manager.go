// Package objmanager implements the ObjectManager described in spec.md
// §4.5: a sparse handle table, spawning/destruction, and the fixed list of
// distinguished system objects, grounded on
// original_source/runtime/object_manager.c.
package objmanager

import (
	"fmt"
	"time"

	"github.com/emberlang/ember/pkg/heap"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/strpool"
)

// SystemObjectNames is the fixed, ordered list of standard-library objects
// spawned as children of the root at VM launch (spec.md §3/§6).
var SystemObjectNames = []string{
	"String", "Number", "Boolean", "Time", "Math", "Console",
	"Array", "Dictionary",
	"__Temp", "__GC", "__TagSystem", "Application",
}

// Manager is the VM-wide object table.
type Manager struct {
	pool    *strpool.Pool
	objects map[object.Handle]*object.Object
	free    []object.Handle // reusable slots, lowest first
	nextNew object.Handle   // next never-used handle if free is empty
	now     func() time.Time

	rootHandle        object.Handle
	systemHandles     map[string]object.Handle
	applicationHandle object.Handle
}

// New creates an empty Manager. now lets tests control the clock used for
// LastStateChange/timeout(); pass time.Now in production.
func New(pool *strpool.Pool, now func() time.Time) *Manager {
	return &Manager{
		pool:          pool,
		objects:       make(map[object.Handle]*object.Object),
		nextNew:       2, // handle 0 is null, handle 1 is the root
		systemHandles: make(map[string]object.Handle),
		now:           now,
	}
}

// Count returns the number of live objects.
func (m *Manager) Count() int { return len(m.objects) }

// Exists reports whether h refers to a live object.
func (m *Manager) Exists(h object.Handle) bool {
	if h == object.NullHandle {
		return false
	}
	_, ok := m.objects[h]
	return ok
}

// Get returns the object at h. Panics on an invalid handle (spec.md §4.5:
// "fatal on invalid").
func (m *Manager) Get(h object.Handle) *object.Object {
	o, ok := m.objects[h]
	if !ok {
		panic(fmt.Sprintf("objmanager: fatal access to invalid handle %d", h))
	}
	return o
}

// Null returns the reserved null handle. Callable even on a nil *Manager,
// which value.ObjectHandle-style coercions rely on (spec.md §4.5).
func (m *Manager) Null() object.Handle { return object.NullHandle }

// Root returns the root's handle.
func (m *Manager) Root() object.Handle { return m.rootHandle }

// Application returns the Application system object's handle.
func (m *Manager) Application() object.Handle { return m.applicationHandle }

// SystemObject returns the handle for a named system object, assigned at
// SpawnRoot in the fixed order of SystemObjectNames.
func (m *Manager) SystemObject(name string) (object.Handle, bool) {
	h, ok := m.systemHandles[name]
	return h, ok
}

// FindByName resolves a bare name referenced by script source without a
// prior variable declaration (e.g. `Console` in `Console.print(...)`):
// first a direct child of self (so a spawned object can be reached by name
// the same tick it was created), then a system object. Grounded on
// original_source/runtime/object.c's child-then-sslib lookup order for
// names that aren't local symbols.
func (m *Manager) FindByName(self object.Handle, name string) (object.Handle, bool) {
	if o, ok := m.objects[self]; ok {
		for _, c := range o.Children {
			if child, ok := m.objects[c]; ok && child.Name == name {
				return c, true
			}
		}
	}
	return m.SystemObject(name)
}

// allocHandle reuses the lowest free slot before extending the table.
func (m *Manager) allocHandle() object.Handle {
	if len(m.free) > 0 {
		h := m.free[0]
		m.free = m.free[1:]
		return h
	}
	h := m.nextNew
	m.nextNew++
	return h
}

// SpawnRoot creates the root object at handle 1, exactly once per VM, and
// spawns every entry of SystemObjectNames as its child in order.
func (m *Manager) SpawnRoot() (object.Handle, error) {
	if m.rootHandle != object.NullHandle {
		return 0, fmt.Errorf("objmanager: root already spawned")
	}

	root := object.New(heap.New(m.pool), m.now())
	root.Name = "Application.__root__"
	root.Handle = object.RootHandle
	root.Parent = object.RootHandle
	m.objects[object.RootHandle] = root
	m.rootHandle = object.RootHandle
	if m.nextNew <= object.RootHandle {
		m.nextNew = object.RootHandle + 1
	}

	for _, name := range SystemObjectNames {
		h, err := m.Spawn(m.rootHandle, name, nil)
		if err != nil {
			return 0, fmt.Errorf("objmanager: spawning system object %q: %w", name, err)
		}
		m.systemHandles[name] = h
		if name == "Application" {
			m.applicationHandle = h
		}
	}

	return m.rootHandle, nil
}

// Spawn allocates a handle, constructs an Object, appends it to parent's
// children, and marks it reachable for the current GC cycle. Running the
// object's constructor programs is the caller's responsibility (pkg/vm),
// since that requires the interpreter.
func (m *Manager) Spawn(parent object.Handle, name string, userData any) (object.Handle, error) {
	if parent != object.NullHandle && !m.Exists(parent) && parent != m.rootHandle {
		return 0, fmt.Errorf("objmanager: spawn: parent handle %d does not exist", parent)
	}

	h := m.allocHandle()
	o := object.New(heap.New(m.pool), m.now())
	o.Name = name
	o.Handle = h
	o.Parent = parent
	o.UserData = userData
	o.Reachable = true
	m.objects[h] = o

	if parent != object.NullHandle {
		if p, ok := m.objects[parent]; ok {
			p.AddChild(h)
		}
	}

	return h, nil
}

// Reparent detaches h from its current parent and attaches it to
// newParent. If newParent is the null handle, h becomes its own parent
// (detached), per spec.md §3 invariant (b).
func (m *Manager) Reparent(h, newParent object.Handle) {
	o := m.Get(h)
	if old, ok := m.objects[o.Parent]; ok {
		old.RemoveChild(h)
	}
	if newParent == object.NullHandle {
		o.Parent = h
	} else {
		o.Parent = newParent
		if np, ok := m.objects[newParent]; ok {
			np.AddChild(h)
		}
	}
}

// Kill sets h's killed flag. Deletion happens cooperatively, the next time
// the scheduler visits h (spec.md §4.5/§4.7).
func (m *Manager) Kill(h object.Handle) {
	if o, ok := m.objects[h]; ok {
		o.Killed = true
	}
}

// Delete destroys h: its __destructor program has already been run by the
// caller (pkg/vm, which owns the interpreter needed to call it); here we
// re-root every child and recursively delete it, then remove h from its
// parent's children and from the table.
func (m *Manager) Delete(h object.Handle) {
	o, ok := m.objects[h]
	if !ok {
		return
	}

	children := append([]object.Handle(nil), o.Children...)
	for _, c := range children {
		m.Reparent(c, object.NullHandle)
		m.Delete(c)
	}

	if parent, ok := m.objects[o.Parent]; ok && o.Parent != h {
		parent.RemoveChild(h)
	}

	o.Heap.Reset()
	delete(m.objects, h)
	m.free = insertSorted(m.free, h)
}

func insertSorted(free []object.Handle, h object.Handle) []object.Handle {
	i := 0
	for i < len(free) && free[i] < h {
		i++
	}
	free = append(free, object.NullHandle)
	copy(free[i+1:], free[i:])
	free[i] = h
	return free
}

// Walk depth-first, parent-before-children, starting at h, invoking visit
// on every descendant (h included). visit returning false stops descent
// into that subtree, matching the scheduler's traversal order (spec.md
// §4.7/§5).
func (m *Manager) Walk(h object.Handle, visit func(*object.Object) bool) {
	o, ok := m.objects[h]
	if !ok {
		return
	}
	if !visit(o) {
		return
	}
	for _, c := range append([]object.Handle(nil), o.Children...) {
		m.Walk(c, visit)
	}
}

// AllHandles returns every live handle, in no particular order. Used by
// the GC sweep and by diagnostics.
func (m *Manager) AllHandles() []object.Handle {
	out := make([]object.Handle, 0, len(m.objects))
	for h := range m.objects {
		out = append(out, h)
	}
	return out
}
