package objmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/strpool"
)

func fixedClock() func() time.Time {
	now := time.Now()
	return func() time.Time { return now }
}

func TestSpawnRootCreatesRootAndEverySystemObject(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, err := m.SpawnRoot()
	require.NoError(t, err)
	assert.Equal(t, object.RootHandle, root)

	for _, name := range SystemObjectNames {
		h, ok := m.SystemObject(name)
		assert.True(t, ok, "missing system object %q", name)
		assert.True(t, m.Exists(h))
	}
	app, ok := m.SystemObject("Application")
	require.True(t, ok)
	assert.Equal(t, app, m.Application())
}

func TestSpawnRootTwiceFails(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	_, err := m.SpawnRoot()
	require.NoError(t, err)
	_, err = m.SpawnRoot()
	assert.Error(t, err)
}

func TestSpawnAppendsChildAndAssignsFreshHandle(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()

	h, err := m.Spawn(root, "Enemy", nil)
	require.NoError(t, err)
	assert.True(t, m.Exists(h))
	assert.Contains(t, m.Get(root).Children, h)
	assert.Equal(t, "Enemy", m.Get(h).Name)
}

func TestSpawnWithUnknownParentFails(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	_, err := m.Spawn(object.Handle(999), "Orphan", nil)
	assert.Error(t, err)
}

func TestGetPanicsOnInvalidHandle(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	assert.Panics(t, func() { m.Get(object.Handle(42)) })
}

func TestFindByNamePrefersDirectChildOverSystemObject(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	child, _ := m.Spawn(root, "Math", nil) // shadows the system object's own name

	found, ok := m.FindByName(root, "Math")
	require.True(t, ok)
	assert.Equal(t, child, found)
}

func TestFindByNameFallsBackToSystemObject(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()

	found, ok := m.FindByName(root, "Console")
	require.True(t, ok)
	console, _ := m.SystemObject("Console")
	assert.Equal(t, console, found)
}

func TestReparentToNullHandleDetachesObject(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	h, _ := m.Spawn(root, "Enemy", nil)

	m.Reparent(h, object.NullHandle)
	assert.Equal(t, h, m.Get(h).Parent)
	assert.NotContains(t, m.Get(root).Children, h)
}

func TestReparentMovesBetweenParents(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	a, _ := m.Spawn(root, "A", nil)
	child, _ := m.Spawn(root, "Child", nil)

	m.Reparent(child, a)
	assert.Contains(t, m.Get(a).Children, child)
	assert.NotContains(t, m.Get(root).Children, child)
	assert.Equal(t, a, m.Get(child).Parent)
}

func TestKillMarksKilledWithoutDeleting(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	h, _ := m.Spawn(root, "Enemy", nil)

	m.Kill(h)
	assert.True(t, m.Get(h).Killed)
	assert.True(t, m.Exists(h))
}

func TestDeleteRemovesObjectAndEveryDescendant(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	parent, _ := m.Spawn(root, "Parent", nil)
	child, _ := m.Spawn(parent, "Child", nil)

	m.Delete(parent)
	assert.False(t, m.Exists(parent))
	assert.False(t, m.Exists(child)) // Delete recurses into every descendant
}

func TestDeleteThenSpawnReusesFreedHandle(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	h, _ := m.Spawn(root, "Throwaway", nil)
	m.Delete(h)

	next, _ := m.Spawn(root, "Reused", nil)
	assert.Equal(t, h, next)
}

func TestWalkVisitsParentBeforeChildren(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	parent, _ := m.Spawn(root, "Parent", nil)
	child, _ := m.Spawn(parent, "Child", nil)

	var order []object.Handle
	m.Walk(parent, func(o *object.Object) bool {
		order = append(order, o.Handle)
		return true
	})
	assert.Equal(t, []object.Handle{parent, child}, order)
}

func TestWalkStopsDescentWhenVisitReturnsFalse(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	parent, _ := m.Spawn(root, "Parent", nil)
	m.Spawn(parent, "Child", nil)

	var order []object.Handle
	m.Walk(parent, func(o *object.Object) bool {
		order = append(order, o.Handle)
		return false
	})
	assert.Equal(t, []object.Handle{parent}, order)
}

func TestAllHandlesIncludesEveryLiveObject(t *testing.T) {
	m := New(strpool.NewPool(), fixedClock())
	root, _ := m.SpawnRoot()
	h, _ := m.Spawn(root, "Enemy", nil)

	all := m.AllHandles()
	assert.Contains(t, all, root)
	assert.Contains(t, all, h)
}
