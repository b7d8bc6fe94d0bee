package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberlang/ember/pkg/strpool"
	"github.com/emberlang/ember/pkg/value"
)

func TestPushPopRoundTrips(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.Number(1))
	s.Push(value.Number(2))

	assert.Equal(t, float64(2), s.Pop().NumberValue())
	assert.Equal(t, float64(1), s.Pop().NumberValue())
	assert.Equal(t, 0, s.SP())
}

func TestPopOnEmptyStackPanics(t *testing.T) {
	s := New(strpool.NewPool())
	assert.Panics(t, func() { s.Pop() })
}

func TestTopDoesNotRemove(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.Number(9))
	assert.Equal(t, float64(9), s.Top().NumberValue())
	assert.Equal(t, 1, s.SP())
}

func TestPushOverflowPanics(t *testing.T) {
	s := New(strpool.NewPool())
	for i := 0; i < Capacity; i++ {
		s.Push(value.Null())
	}
	assert.Panics(t, func() { s.Push(value.Null()) })
}

func TestPeekAbsReadsByAbsoluteIndex(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.Number(10))
	s.Push(value.Number(20))
	assert.Equal(t, float64(10), s.PeekAbs(0).NumberValue())
	assert.Equal(t, float64(20), s.PeekAbs(1).NumberValue())
	assert.Panics(t, func() { s.PeekAbs(2) })
}

func TestPushFrameAndPopFrameRestoreBP(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.Number(1)) // caller-visible value below the frame

	s.PushFrame()
	assert.Equal(t, s.SP(), s.BP())

	s.Pushn(3)
	s.Poke(0, value.Number(42))
	assert.Equal(t, float64(42), s.Peek(0).NumberValue())

	s.PopFrame()
	assert.Equal(t, 0, s.BP())
	assert.Equal(t, 1, s.SP())
	assert.Equal(t, float64(1), s.Pop().NumberValue())
}

func TestNestedFramesRestorePreviousBP(t *testing.T) {
	s := New(strpool.NewPool())
	s.PushFrame()
	outerBP := s.BP()

	s.PushFrame()
	innerBP := s.BP()
	assert.NotEqual(t, outerBP, innerBP)

	s.PopFrame()
	assert.Equal(t, outerBP, s.BP())

	s.PopFrame()
	assert.Equal(t, 0, s.BP())
	assert.Equal(t, 0, s.SP())
}

func TestPushnAndPopnOperateInBulk(t *testing.T) {
	s := New(strpool.NewPool())
	s.Pushn(5)
	assert.Equal(t, 5, s.SP())
	s.Popn(5)
	assert.Equal(t, 0, s.SP())
}

func TestPokeDestroysPreviousOccupant(t *testing.T) {
	s := New(strpool.NewPool())
	pool := strpool.NewPool()
	s.PushFrame()
	s.Pushn(1)
	s.Poke(0, value.String(pool, "first"))
	s.Poke(0, value.String(pool, "second"))
	assert.Equal(t, "second", s.Peek(0).StringValue())
}

func TestScanObjectsFindsOnlyHandleCells(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.ObjectHandle(3))
	s.Push(value.Number(1))
	s.Push(value.ObjectHandle(7))

	var seen []uint32
	s.ScanObjects(func(h uint32) { seen = append(seen, h) })
	assert.ElementsMatch(t, []uint32{3, 7}, seen)
}

func TestPatchHandleNullsMatchingCells(t *testing.T) {
	s := New(strpool.NewPool())
	s.Push(value.ObjectHandle(3))
	s.Push(value.ObjectHandle(7))

	s.PatchHandle(3)
	assert.True(t, s.PeekAbs(0).IsNull())
	assert.Equal(t, uint32(7), s.PeekAbs(1).Handle())
}
