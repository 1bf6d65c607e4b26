package pagealloc

import "unsafe"

// segLayer is one size class of Variant S: a fixed segment size and the
// free list of segments currently available at that size, across every
// page that has contributed segments to it.
type segLayer struct {
	layer int64
	free  freeList
}

func (sl *segLayer) segmentSize() int64    { return segBaseSize << uint(sl.layer) }
func (sl *segLayer) segmentPayload() int64 { return sl.segmentSize() - headerSize }
func (sl *segLayer) empty() bool           { return sl.free.empty() }

// insertPage carves a freshly acquired page into segments of this layer's
// size and pushes every one onto the free list. A page serves exactly one
// layer while it is in use; a page reused from the free-page cache is
// carved again for whichever layer acquires it.
func (sl *segLayer) insertPage(page *segPage, pageBytes int64) {
	page.layer = sl.layer
	page.allocCount = 0
	segSize := sl.segmentSize()
	count := pageBytes / segSize
	for i := int64(0); i < count; i++ {
		h := (*header)(unsafe.Add(page.data, i*segSize))
		h.stamp(i, sl.layer, false)
		sl.free.pushFront(h.dataPtr())
	}
}

// removePage unthreads every segment of a page being reclaimed from the
// free list, ahead of the page moving to the free-page cache. All of a
// reclaimed page's segments must be free already — the caller only calls
// this once allocCount has reached zero.
func (sl *segLayer) removePage(page *segPage, pageBytes int64) {
	segSize := sl.segmentSize()
	count := pageBytes / segSize
	for i := int64(0); i < count; i++ {
		h := (*header)(unsafe.Add(page.data, i*segSize))
		debugAssert(!h.used(), ErrCorruptHeader)
		sl.free.remove(h.dataPtr())
	}
}

// allocSegment pops the head of the free list and marks it used, or
// returns a nil header if the layer has nothing free.
func (sl *segLayer) allocSegment() (unsafe.Pointer, *header) {
	dataPtr := sl.free.popFront()
	if dataPtr == nil {
		return nil, nil
	}
	h := headerAt(dataPtr)
	h.setUsed(true)
	return dataPtr, h
}

// freeSegment marks a segment unused and returns it to the free list.
func (sl *segLayer) freeSegment(dataPtr unsafe.Pointer) *header {
	h := headerAt(dataPtr)
	h.setUsed(false)
	sl.free.pushFront(dataPtr)
	return h
}
