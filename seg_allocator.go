package pagealloc

import "unsafe"

// SegregatedAllocator is Variant S: pages are carved per size class
// ("layer"), and pages migrate between an in-use pool and a cached-free
// pool rather than being released to the platform on every last free.
type SegregatedAllocator struct {
	l      int64
	src    PageSource
	layers []segLayer
	using  pageList
	free   pageList
	byBase map[uintptr]*segPage
}

// NewSegregatedAllocator creates a Variant S allocator with l layers,
// layer sizes segBaseSize*2^0 .. segBaseSize*2^(l-1). l must be within
// [8, 26].
func NewSegregatedAllocator(l int64) (*SegregatedAllocator, error) {
	return NewSegregatedAllocatorWithSource(l, DefaultPageSource())
}

// NewSegregatedAllocatorWithSource is NewSegregatedAllocator with an
// explicit PageSource, primarily so tests can inject platform allocation
// failures.
func NewSegregatedAllocatorWithSource(l int64, src PageSource) (*SegregatedAllocator, error) {
	if l < 8 || l > 26 {
		return nil, ErrInvalidLevel
	}
	if src == nil {
		src = DefaultPageSource()
	}
	layers := make([]segLayer, l)
	for i := range layers {
		layers[i] = segLayer{layer: int64(i)}
	}
	return &SegregatedAllocator{l: l, src: src, layers: layers, byBase: make(map[uintptr]*segPage)}, nil
}

func (a *SegregatedAllocator) pageBytes() int64 {
	return segBaseSize << uint(a.l)
}

// maxInPageBytes is the payload capacity of the largest real layer
// (l-1); anything larger goes direct.
func (a *SegregatedAllocator) maxInPageBytes() int64 {
	return a.layers[a.l-1].segmentPayload()
}

// MinSegment and MaxSegment expose the smallest and largest in-page
// segment sizes this allocator carves, so a caller can reason about
// internal fragmentation for a given request size. Not part of the
// shared Allocator contract.
func (a *SegregatedAllocator) MinSegment() int64 { return a.layers[0].segmentSize() }
func (a *SegregatedAllocator) MaxSegment() int64 { return a.layers[a.l-1].segmentSize() }

// Allocate implements Allocator.Allocate.
func (a *SegregatedAllocator) Allocate(size int64) unsafe.Pointer {
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

	level := levelForUnit(segBaseSize, size)
	layer := &a.layers[level]
	if layer.empty() {
		page, err := a.acquirePage()
		if err != nil {
			return nil
		}
		layer.insertPage(page, a.pageBytes())
		a.using.pushBack(page)
		a.byBase[uintptr(page.data)] = page
		logger.Debug("page acquired", "variant", "segregated", "layer", level)
	}

	dataPtr, h := layer.allocSegment()
	if dataPtr == nil {
		return nil
	}
	page := a.pageFor(h)
	debugAssert(page != nil, ErrCorruptHeader)
	page.allocCount++
	return dataPtr
}

// acquirePage pops a page from the free-page cache if one is available,
// otherwise reserves a fresh one from the PageSource.
func (a *SegregatedAllocator) acquirePage() (*segPage, error) {
	if p := a.free.popFront(); p != nil {
		return p, nil
	}
	raw, err := a.src.Reserve(int(a.pageBytes()))
	if err != nil {
		return nil, err
	}
	return &segPage{data: raw}, nil
}

// pageFor recovers the owning page from a header, mirroring
// BuddyAllocator.pageFor: the header's own index and level give the
// page's base address, which is then looked up in byBase rather than an
// independent range table.
func (a *SegregatedAllocator) pageFor(h *header) *segPage {
	segSize := a.layers[h.level()].segmentSize()
	base := unsafe.Add(unsafe.Pointer(h), -h.index()*segSize)
	return a.byBase[uintptr(base)]
}

// Free implements Allocator.Free.
func (a *SegregatedAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	h := headerAt(ptr)
	if h.isDirect() {
		directFree(a.src, h)
		return
	}
	page := a.pageFor(h)
	debugAssert(page != nil && page.allocCount > 0, ErrDoubleFree)
	debugAssert(h.used(), ErrDoubleFree)
	a.layers[h.level()].freeSegment(ptr)
	page.allocCount--
}

// Reallocate implements Allocator.Reallocate.
func (a *SegregatedAllocator) Reallocate(ptr unsafe.Pointer, newSize int64) unsafe.Pointer {
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

	curLayer := h.level()
	if newSize <= a.maxInPageBytes() && levelForUnit(segBaseSize, newSize) <= curLayer {
		return ptr
	}

	newPtr := a.Allocate(newSize)
	if newPtr == nil {
		return nil
	}
	oldCap := a.layers[curLayer].segmentPayload()
	copyPayload(newPtr, ptr, minInt64(oldCap, newSize))
	a.Free(ptr)
	return newPtr
}

// gc walks the in-use page list once, migrating any page with zero live
// segments into the free-page cache. When complete is set, the cache is
// then drained back to the PageSource.
func (a *SegregatedAllocator) gc(complete bool) {
	for p := a.using.head; p != nil; {
		next := p.next
		if p.allocCount == 0 {
			a.using.remove(p)
			a.layers[p.layer].removePage(p, a.pageBytes())
			delete(a.byBase, uintptr(p.data))
			a.free.pushBack(p)
		}
		p = next
	}
	if complete {
		for p := a.free.popFront(); p != nil; p = a.free.popFront() {
			a.src.Release(p.data, int(a.pageBytes()))
		}
	}
	logger.Debug("gc complete", "variant", "segregated", "using", a.using.n, "cached", a.free.n)
}

// GC implements Allocator.GC: empty pages are cached for reuse but not
// released to the platform. Use GCComplete to also drain the cache.
func (a *SegregatedAllocator) GC() { a.gc(false) }

// GCComplete additionally releases every cached free page back to the
// PageSource.
func (a *SegregatedAllocator) GCComplete() { a.gc(true) }

// PageCount implements Allocator.PageCount: pages currently servicing
// live segments. Cached-but-unreleased free pages are not counted.
func (a *SegregatedAllocator) PageCount() int { return a.using.n }

// PageSize implements Allocator.PageSize.
func (a *SegregatedAllocator) PageSize() int64 { return a.pageBytes() }

var _ Allocator = (*SegregatedAllocator)(nil)
