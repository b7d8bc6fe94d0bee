package strpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRoundTripsBytes(t *testing.T) {
	p := NewPool()
	s := p.Acquire("hello")
	assert.Equal(t, "hello", s.Bytes())
	assert.Equal(t, 5, s.Len())
}

func TestLenCountsRunesNotBytes(t *testing.T) {
	p := NewPool()
	s := p.Acquire("héllo")
	assert.Equal(t, 5, s.Len())
	assert.Greater(t, len(s.Bytes()), 5)
}

func TestShortStringsAreBucketedIntoPages(t *testing.T) {
	p := NewPool()
	s := p.Acquire("short")
	require.NotNil(t, s)

	pages, individual := p.Stats()
	assert.Equal(t, 1, pages)
	assert.Equal(t, 0, individual)
}

func TestLongStringsAreIndividuallyAllocated(t *testing.T) {
	p := NewPool()
	long := strings.Repeat("x", maxPooledLen+1)
	s := p.Acquire(long)
	assert.Equal(t, long, s.Bytes())

	pages, individual := p.Stats()
	assert.Equal(t, 0, pages)
	assert.Equal(t, 1, individual)
}

func TestReleaseReturnsSlotForReuseWithoutGrowingPageCount(t *testing.T) {
	p := NewPool()
	a := p.Acquire("one")
	p.Release(a)
	b := p.Acquire("two")

	pages, _ := p.Stats()
	assert.Equal(t, 1, pages)
	assert.Equal(t, "two", b.Bytes())
}

func TestReleaseOfIndividuallyAllocatedStringDecrementsCount(t *testing.T) {
	p := NewPool()
	long := strings.Repeat("y", maxPooledLen+1)
	s := p.Acquire(long)
	p.Release(s)

	_, individual := p.Stats()
	assert.Equal(t, 0, individual)
}

func TestReleaseToleratesNil(t *testing.T) {
	p := NewPool()
	assert.NotPanics(t, func() { p.Release(nil) })
}

func TestManyAcquiresOfSameBucketSpanMultiplePages(t *testing.T) {
	p := NewPool()
	for i := 0; i < pageSlots+1; i++ {
		p.Acquire("fixed")
	}
	pages, _ := p.Stats()
	assert.Equal(t, 2, pages)
}
