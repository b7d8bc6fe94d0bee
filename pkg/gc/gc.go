// Package gc implements the incremental mark-and-sweep collector described
// in spec.md §4.6, grounded on original_source/runtime/sslib/gc.c.
//
// The collector reclaims objects no longer reachable from the root or from
// any live stack frame, one bounded increment per tick, so no single tick
// pays the full tree-and-heap traversal cost. It never raises: killing is
// deferred through Object.Killed, and the scheduler is the only thing that
// ever actually deletes an object.
package gc

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/objmanager"
)

// MinForDisposal is the minimum unreachable count that triggers a sweep at
// the start of a new cycle (spec.md §4.6 suggests 1, "bias toward
// collecting").
const MinForDisposal = 1

// StackScanner is the subset of *stack.Stack the collector needs, kept as
// an interface so pkg/gc does not import pkg/stack directly (avoiding an
// import cycle with pkg/vm, which wires both together).
type StackScanner interface {
	ScanObjects(cb func(handle uint32))
}

// Collector runs one incremental mark-and-sweep cycle across multiple
// calls to Step.
type Collector struct {
	manager *objmanager.Manager
	stack   StackScanner

	worklist    []object.Handle
	enqueued    map[object.Handle]bool
	scanned     int // index into worklist separating scanned from pending
	reachable   int // running count of reachables marked this cycle
	hadCycle    bool
	lastDisposed int
}

// New creates a Collector bound to manager and stack. stack may be nil in
// tests that only exercise tree reachability.
func New(manager *objmanager.Manager, stack StackScanner) *Collector {
	return &Collector{
		manager:  manager,
		stack:    stack,
		enqueued: make(map[object.Handle]bool),
	}
}

// LastDisposed returns how many objects the most recent sweep killed.
func (c *Collector) LastDisposed() int { return c.lastDisposed }

// Step runs one increment of the collector: if the current cycle has
// finished (or none has started), it performs a sweep of the previous
// cycle's results (if warranted) and seeds a new cycle by marking the root
// and every handle reachable from a live stack cell; otherwise it scans
// the next batch of not-yet-scanned enqueued objects. Called once per tick,
// after the scheduler (spec.md §4.6/§4.7).
func (c *Collector) Step() {
	if c.scanned >= len(c.worklist) {
		c.startCycle()
		return
	}
	c.scanIncrement()
}

func (c *Collector) startCycle() {
	root := c.manager.Root()
	if root == object.NullHandle {
		return
	}

	if c.hadCycle {
		total := c.manager.Count()
		unreachable := total - c.reachable
		if unreachable >= MinForDisposal {
			c.sweep()
		}
		c.clearReachableFlags()
	}

	c.worklist = c.worklist[:0]
	c.enqueued = make(map[object.Handle]bool)
	c.scanned = 0
	c.reachable = 0

	c.enqueue(root)
	if c.stack != nil {
		c.stack.ScanObjects(func(h uint32) {
			c.enqueue(object.Handle(h))
		})
	}

	c.hadCycle = true
}

func (c *Collector) enqueue(h object.Handle) {
	if h == object.NullHandle || c.enqueued[h] {
		return
	}
	if !c.manager.Exists(h) {
		return
	}
	o := c.manager.Get(h)
	o.Reachable = true
	c.reachable++
	c.enqueued[h] = true
	c.worklist = append(c.worklist, h)
}

// scanIncrement advances the scanned index past every object enqueued so
// far, scanning each one's heap for further object references. This caps
// per-tick work proportional to the objects added since the last check:
// objects discovered mid-scan are appended to the worklist and will be
// scanned on a subsequent call, never in the same increment.
func (c *Collector) scanIncrement() {
	end := len(c.worklist)
	for ; c.scanned < end; c.scanned++ {
		h := c.worklist[c.scanned]
		if !c.manager.Exists(h) {
			continue
		}
		o := c.manager.Get(h)
		o.Heap.ScanObjects(func(ref uint32) {
			c.enqueue(object.Handle(ref))
		})
		for _, child := range o.Children {
			c.enqueue(child)
		}
	}
}

// clearReachableFlags resets every live object's GC workspace flag ahead
// of a fresh cycle.
func (c *Collector) clearReachableFlags() {
	for _, h := range c.manager.AllHandles() {
		c.manager.Get(h).Reachable = false
	}
}

// sweep walks the tree from the root, cooperatively killing every object
// whose Reachable flag is still clear (spec.md §4.6 step 1). Actual
// deletion is left to the scheduler on its next visit.
func (c *Collector) sweep() {
	disposed := 0
	c.manager.Walk(c.manager.Root(), func(o *object.Object) bool {
		if !o.Reachable && !o.Killed {
			o.Killed = true
			disposed++
		}
		return true
	})
	c.lastDisposed = disposed
}
