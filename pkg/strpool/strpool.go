// Package strpool implements ManagedString: immutable, UTF-8 strings
// acquired from a pool of fixed-capacity pages.
//
// Design (spec.md §3, grounded on
// original_source/src/surgescript/runtime/managed_string.c):
//
// Strings up to maxPooledLen bytes are bucketed into fixed-length slots in
// pages; each page holds pageSlots strings of that bucket's slot size.
// Longer strings fall back to an individually heap-allocated string. Every
// Value owns its *String independently (no reference counting): Clone
// acquires a brand-new copy, Release returns a slot (or drops the
// individual allocation) unconditionally.
package strpool

import "unicode/utf8"

const (
	// maxPooledLen is the largest string length (in bytes) that is
	// bucketed into a pool page rather than individually allocated.
	maxPooledLen = 63

	// pageSlots is the number of strings of a given bucket size held by
	// one page.
	pageSlots = 256

	// bucketStep is the bucket granularity; a string of length L is
	// rounded up to the next multiple of bucketStep before it picks a
	// bucket.
	bucketStep = 8
)

// String is an immutable, pooled (or individually allocated) UTF-8 string.
// The zero value is not meaningful; obtain one via Pool.Acquire.
type String struct {
	data   string
	bucket int // -1 if individually allocated
	slot   int // index within its page, valid only if bucket >= 0
	page   *page
}

// Bytes returns the string's contents. Safe to call after Release only if
// the caller no longer needs it to be valid — Release reuses the slot.
func (s *String) Bytes() string { return s.data }

// Len returns the code-point (not byte) count, per spec.md §8's UTF-8
// invariance requirement.
func (s *String) Len() int { return utf8.RuneCountInString(s.data) }

type page struct {
	bucket int
	slots  [pageSlots]string
	free   []int // indices currently unused
}

func newPage(bucket int) *page {
	p := &page{bucket: bucket, free: make([]int, 0, pageSlots)}
	for i := pageSlots - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

// Pool is the string pool; one Pool is shared by an entire VM.
type Pool struct {
	pages     map[int][]*page // bucket size -> pages
	allocated int             // total individually-allocated strings, for stats
}

// NewPool creates an empty string pool.
func NewPool() *Pool {
	return &Pool{pages: make(map[int][]*page)}
}

// Acquire returns a *String holding a copy of s, pooled if s is short
// enough, individually allocated otherwise.
func (p *Pool) Acquire(s string) *String {
	if len(s) > maxPooledLen {
		p.allocated++
		return &String{data: s, bucket: -1}
	}

	bucket := bucketFor(len(s))
	for _, pg := range p.pages[bucket] {
		if len(pg.free) > 0 {
			idx := pg.free[len(pg.free)-1]
			pg.free = pg.free[:len(pg.free)-1]
			pg.slots[idx] = s
			return &String{data: s, bucket: bucket, slot: idx, page: pg}
		}
	}

	pg := newPage(bucket)
	p.pages[bucket] = append(p.pages[bucket], pg)
	idx := pg.free[len(pg.free)-1]
	pg.free = pg.free[:len(pg.free)-1]
	pg.slots[idx] = s
	return &String{data: s, bucket: bucket, slot: idx, page: pg}
}

// Release returns str's slot to the pool (or simply forgets it, if it was
// individually allocated). Tolerates a nil str.
func (p *Pool) Release(str *String) {
	if str == nil {
		return
	}
	if str.bucket < 0 {
		if p.allocated > 0 {
			p.allocated--
		}
		return
	}
	str.page.slots[str.slot] = ""
	str.page.free = append(str.page.free, str.slot)
}

func bucketFor(n int) int {
	b := ((n + bucketStep - 1) / bucketStep) * bucketStep
	if b == 0 {
		b = bucketStep
	}
	return b
}

// Stats reports the total number of pages across all buckets and the
// number of individually allocated strings; used by diagnostics only.
func (p *Pool) Stats() (pages int, individuallyAllocated int) {
	for _, pgs := range p.pages {
		pages += len(pgs)
	}
	return pages, p.allocated
}
