package pagealloc

import "unsafe"

// freeNodeSize is the size in bytes of the intrusive doubly-linked node
// this port overlays on a free segment's payload area (the payload
// either holds live user data or, while the segment sits on a free list,
// two raw pointer-sized fields: prev and next).
const freeNodeSize = 16

// segBaseSize is Variant S's minimal segment stride: header plus room for
// a free-list node. A bare headerSize stride would leave layer 0 with
// zero payload bytes once the header is subtracted, which cannot hold
// the 16-byte free-list node every free segment needs regardless of its
// layer, so the base stride is inflated up front instead of leaving the
// smallest layer unable to ever go on a free list.
const segBaseSize = headerSize + freeNodeSize

// freeNode is overlaid on a free segment's data pointer. It is only ever
// read or written while the segment is on a segLayer's free list, i.e.
// while its header's used bit is clear; live payload data safely reuses
// the same bytes once the segment is allocated again.
type freeNode struct {
	prev unsafe.Pointer
	next unsafe.Pointer
}

func nodeAt(dataPtr unsafe.Pointer) *freeNode {
	return (*freeNode)(dataPtr)
}

// freeList is a doubly-linked list of free segments threaded through
// their own payload bytes, addressed by data pointer rather than a
// Go-managed struct.
type freeList struct {
	head unsafe.Pointer
	n    int
}

func (fl *freeList) pushFront(dataPtr unsafe.Pointer) {
	n := nodeAt(dataPtr)
	n.prev = nil
	n.next = fl.head
	if fl.head != nil {
		nodeAt(fl.head).prev = dataPtr
	}
	fl.head = dataPtr
	fl.n++
}

func (fl *freeList) popFront() unsafe.Pointer {
	dataPtr := fl.head
	if dataPtr == nil {
		return nil
	}
	fl.remove(dataPtr)
	return dataPtr
}

func (fl *freeList) remove(dataPtr unsafe.Pointer) {
	n := nodeAt(dataPtr)
	if n.prev != nil {
		nodeAt(n.prev).next = n.next
	} else {
		fl.head = n.next
	}
	if n.next != nil {
		nodeAt(n.next).prev = n.prev
	}
	n.prev, n.next = nil, nil
	fl.n--
}

func (fl *freeList) empty() bool { return fl.head == nil }

// segPage is a Variant S page: a single mmap'd region carved into
// equal-sized segments belonging to one layer, tracked with a live
// segment count so garbage collection can tell an empty page from a busy
// one. Like buddyPage, segPage itself is only ever recovered through its
// allocator's byBase map, never from raw bytes, so its using/free
// page-list membership is plain Go pointers rather than anything
// intrusive.
type segPage struct {
	layer      int64
	allocCount int64
	data       unsafe.Pointer
	prev, next *segPage
}

// pageList is a doubly-linked list of pages, used for both the
// currently-in-use and cached-free page pools.
type pageList struct {
	head, tail *segPage
	n          int
}

func (l *pageList) pushBack(p *segPage) {
	p.prev, p.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = p
	} else {
		l.head = p
	}
	l.tail = p
	l.n++
}

func (l *pageList) remove(p *segPage) {
	if p.prev != nil {
		p.prev.next = p.next
	} else {
		l.head = p.next
	}
	if p.next != nil {
		p.next.prev = p.prev
	} else {
		l.tail = p.prev
	}
	p.prev, p.next = nil, nil
	l.n--
}

func (l *pageList) popFront() *segPage {
	p := l.head
	if p != nil {
		l.remove(p)
	}
	return p
}
