package pagealloc

import "unsafe"

// BuddyAllocator is Variant B: a single large page of 2^l equal-sized
// minimal units per page, carved via a buddy tree, with pages ordered in
// a max-heap by available capacity.
type BuddyAllocator struct {
	l      int64
	src    PageSource
	heap   buddyHeap
	byBase map[uintptr]*buddyPage
}

// NewBuddyAllocator creates a Variant B allocator with 2^l minimal units
// per page. l must be within [8, 26].
func NewBuddyAllocator(l int64) (*BuddyAllocator, error) {
	return NewBuddyAllocatorWithSource(l, DefaultPageSource())
}

// NewBuddyAllocatorWithSource is NewBuddyAllocator with an explicit
// PageSource, primarily so tests can inject platform allocation failures.
func NewBuddyAllocatorWithSource(l int64, src PageSource) (*BuddyAllocator, error) {
	if l < 8 || l > 26 {
		return nil, ErrInvalidLevel
	}
	if src == nil {
		src = DefaultPageSource()
	}
	return &BuddyAllocator{l: l, src: src, byBase: make(map[uintptr]*buddyPage)}, nil
}

func (a *BuddyAllocator) pageBytes() int64 {
	return (int64(1) << uint(a.l)) * headerSize
}

func (a *BuddyAllocator) maxInPageBytes() int64 {
	return segmentPayload(a.l)
}

// Allocate implements Allocator.Allocate.
func (a *BuddyAllocator) Allocate(size int64) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if size > a.maxInPageBytes() {
		h := directAlloc(a.src, size)
		if h == nil {
			return nil
		}
		return h.dataPtr()
	}

	level := levelForSize(size)

	if len(a.heap.pages) > 0 {
		page := a.heap.pages[0]
		if idx := page.alloc(level); idx != nilNode {
			a.heap.siftDown(0)
			return a.stampSegment(page, idx, level)
		}
	}

	page, err := a.newPage()
	if err != nil {
		return nil
	}
	idx := page.alloc(level)
	if idx == nilNode {
		// A brand-new page must be able to service any valid level; this
		// branch only guards against that invariant somehow not holding,
		// so a failed allocation never leaves the page half-registered.
		a.src.Release(page.base, int(a.pageBytes()))
		return nil
	}
	a.heap.push(page)
	a.byBase[uintptr(page.base)] = page
	logger.Debug("page created", "variant", "buddy", "pages", len(a.heap.pages))
	return a.stampSegment(page, idx, level)
}

func (a *BuddyAllocator) newPage() (*buddyPage, error) {
	raw, err := a.src.Reserve(int(a.pageBytes()))
	if err != nil {
		return nil, err
	}
	return newBuddyPage(a.l, raw), nil
}

func (a *BuddyAllocator) stampSegment(page *buddyPage, index, level int64) unsafe.Pointer {
	h := (*header)(unsafe.Add(page.base, index*headerSize))
	h.stamp(index, level, true)
	return h.dataPtr()
}

// pageFor recovers the owning page from a header via the same
// base-address arithmetic the header's own index encodes
// (page.base + index*headerSize == the header's address), so the lookup
// key is derived from the header rather than from an independent range
// table.
func (a *BuddyAllocator) pageFor(h *header) *buddyPage {
	base := unsafe.Add(unsafe.Pointer(h), -h.index()*headerSize)
	return a.byBase[uintptr(base)]
}

// Free implements Allocator.Free.
func (a *BuddyAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	h := headerAt(ptr)
	if h.isDirect() {
		directFree(a.src, h)
		return
	}
	page := a.pageFor(h)
	debugAssert(page != nil, ErrCorruptHeader)
	page.free(h.index(), h.level())
	a.heap.siftUp(page.heapIndex)
}

// Reallocate implements Allocator.Reallocate.
func (a *BuddyAllocator) Reallocate(ptr unsafe.Pointer, newSize int64) unsafe.Pointer {
	if ptr == nil {
		return a.Allocate(newSize)
	}
	h := headerAt(ptr)
	if h.isDirect() {
		nh := directRealloc(a.src, h, newSize)
		if nh == nil {
			return nil
		}
		return nh.dataPtr()
	}

	curLevel := h.level()
	if newSize <= a.maxInPageBytes() && levelForSize(newSize) <= curLevel {
		return ptr
	}

	newPtr := a.Allocate(newSize)
	if newPtr == nil {
		return nil
	}
	oldCap := segmentPayload(curLevel)
	copyPayload(newPtr, ptr, minInt64(oldCap, newSize))
	a.Free(ptr)
	return newPtr
}

// GC implements Allocator.GC: repeatedly pop the best
// page while it is entirely empty.
func (a *BuddyAllocator) GC() {
	for len(a.heap.pages) > 0 && a.heap.pages[0].empty() {
		page := a.heap.popRoot()
		delete(a.byBase, uintptr(page.base))
		a.src.Release(page.base, int(a.pageBytes()))
	}
	logger.Debug("gc complete", "variant", "buddy", "pages", len(a.heap.pages))
}

// PageCount implements Allocator.PageCount.
func (a *BuddyAllocator) PageCount() int { return len(a.heap.pages) }

// PageSize implements Allocator.PageSize.
func (a *BuddyAllocator) PageSize() int64 { return a.pageBytes() }

var _ Allocator = (*BuddyAllocator)(nil)
