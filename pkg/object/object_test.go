package object

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emberlang/ember/pkg/heap"
	"github.com/emberlang/ember/pkg/strpool"
)

func TestNewObjectStartsActiveInDefaultState(t *testing.T) {
	now := time.Now()
	h := heap.New(strpool.NewPool())
	o := New(h, now)

	assert.True(t, o.Active)
	assert.False(t, o.Killed)
	assert.Equal(t, DefaultState, o.StateName)
	assert.Equal(t, now, o.LastStateChange)
}

func TestChangeStateRefreshesTimestamp(t *testing.T) {
	h := heap.New(strpool.NewPool())
	start := time.Now()
	o := New(h, start)

	later := start.Add(time.Second)
	o.ChangeState("attack", later)
	assert.Equal(t, "attack", o.StateName)
	assert.Equal(t, later, o.LastStateChange)
}

func TestTimeoutComparesElapsedSecondsSinceLastStateChange(t *testing.T) {
	h := heap.New(strpool.NewPool())
	start := time.Now()
	o := New(h, start)

	assert.False(t, o.Timeout(start.Add(500*time.Millisecond), 1))
	assert.True(t, o.Timeout(start.Add(1500*time.Millisecond), 1))
}

func TestExportedAddressLooksUpByName(t *testing.T) {
	h := heap.New(strpool.NewPool())
	o := New(h, time.Now())
	o.Exported = []ExportedVar{{Name: "health", Address: 0}, {Name: "speed", Address: 1}}

	addr, ok := o.ExportedAddress("speed")
	assert.True(t, ok)
	assert.Equal(t, 1, addr)

	_, ok = o.ExportedAddress("missing")
	assert.False(t, ok)
}

func TestAddAndRemoveChild(t *testing.T) {
	h := heap.New(strpool.NewPool())
	o := New(h, time.Now())
	o.AddChild(Handle(2))
	o.AddChild(Handle(3))
	assert.Equal(t, []Handle{2, 3}, o.Children)

	o.RemoveChild(Handle(2))
	assert.Equal(t, []Handle{3}, o.Children)

	o.RemoveChild(Handle(99)) // no-op, absent handle
	assert.Equal(t, []Handle{3}, o.Children)
}

func TestIsRootWhenParentIsSelf(t *testing.T) {
	h := heap.New(strpool.NewPool())
	o := New(h, time.Now())
	o.Handle = RootHandle
	o.Parent = RootHandle
	assert.True(t, o.IsRoot())

	o.Parent = Handle(99)
	assert.False(t, o.IsRoot())
}

func TestNewTransform2DIsIdentity(t *testing.T) {
	tr := NewTransform2D()
	assert.Equal(t, 0.0, tr.X)
	assert.Equal(t, 0.0, tr.Y)
	assert.Equal(t, 1.0, tr.ScaleX)
	assert.Equal(t, 1.0, tr.ScaleY)
}
