package pagealloc

import "unsafe"

// buddyPage is a Variant B page: 2^l minimal units of headerSize bytes,
// managed as a buddy system via two packed bitmaps and per-level free
// counters. The bitmaps and counters live in ordinary GC-managed Go
// slices rather than being embedded inside the mmap'd page bytes — Go has
// no offsetof/container_of primitive to recover a variably-sized embedded
// struct from a raw pointer, and the bitmap width depends on the
// runtime-chosen l. Only the segment header itself lives inside the raw
// payload, recoverable by pointer arithmetic alone (see
// BuddyAllocator.pageFor).
type buddyPage struct {
	l          int64
	levelCount []uint32
	bitmapAnd  bitset
	bitmapOr   bitset
	base       unsafe.Pointer // raw payload: 2^l * headerSize bytes
	heapIndex  int
}

const nilNode = -1

func newBuddyPage(l int64, base unsafe.Pointer) *buddyPage {
	n := int64(1) << uint(l)
	p := &buddyPage{
		l:          l,
		levelCount: make([]uint32, l+1),
		bitmapAnd:  newBitset(2 * n),
		bitmapOr:   newBitset(2 * n),
		base:       base,
	}
	for i := int64(0); i <= l; i++ {
		p.levelCount[i] = uint32(int64(1) << uint(l-i))
	}
	return p
}

// nodeToIndex/indexToNode convert between a node number in the implicit
// breadth-first binary tree and a leaf (unit) index.
func (p *buddyPage) nodeToIndex(node, level int64) int64 {
	n := int64(1) << uint(p.l)
	return (node << uint(level)) - n
}

func (p *buddyPage) indexToNode(index, level int64) int64 {
	n := int64(1) << uint(p.l)
	return (index + n) >> uint(level)
}

// alloc reserves one segment at level and returns its unit index, or -1
// if the page cannot service the request.
func (p *buddyPage) alloc(level int64) int64 {
	node := p.lock(1, p.l, level)
	if node == nilNode {
		return nilNode
	}
	return p.nodeToIndex(node, level)
}

// free releases the segment at index/level back to the page.
func (p *buddyPage) free(index, level int64) {
	node := p.indexToNode(index, level)
	p.unlock(node, level, level)
}

// empty reports whether the page holds zero live segments: the root
// spans the entire page, so level_count[l] == 1 iff nothing beneath it
// is allocated.
func (p *buddyPage) empty() bool {
	return p.levelCount[p.l] == 1
}

// lock descends from node p at curLevel toward level, recursively trying
// the left child before the right one and updating bitmaps/counters on
// the way back up. Recursion depth is bounded by l <= 26.
func (p *buddyPage) lock(node, curLevel, level int64) int64 {
	if p.bitmapAnd.get(node) {
		return nilNode
	}
	if curLevel == level {
		if p.bitmapOr.get(node) {
			return nilNode
		}
		for i := int64(0); i <= curLevel; i++ {
			p.levelCount[i] -= uint32(int64(1) << uint(curLevel-i))
		}
		p.bitmapOr.set(node)
		p.bitmapAnd.set(node)
		return node
	}
	if curLevel > level {
		l, r := node*2, node*2+1
		if got := p.lock(l, curLevel-1, level); got != nilNode {
			if !p.bitmapOr.get(node) {
				p.levelCount[curLevel]--
			}
			p.bitmapOr.set(node)
			if p.bitmapAnd.get(l) && p.bitmapAnd.get(r) {
				p.bitmapAnd.set(node)
			}
			return got
		}
		if got := p.lock(r, curLevel-1, level); got != nilNode {
			p.bitmapOr.set(node)
			if p.bitmapAnd.get(l) && p.bitmapAnd.get(r) {
				p.bitmapAnd.set(node)
			}
			return got
		}
		return nilNode
	}
	return nilNode
}

// unlock releases node p, restoring free counters and walking upward to
// clear ancestor bitmap bits. Termination: curLevel increases by one on
// every recursive step and the walk stops
// once curLevel exceeds p.l, regardless of how far node itself has
// degenerated (it can reach 0 near the top, which is harmless — index 0
// of each bitmap is otherwise unused).
func (p *buddyPage) unlock(node, curLevel, level int64) {
	if curLevel == level {
		for i := int64(0); i <= curLevel; i++ {
			p.levelCount[i] += uint32(int64(1) << uint(curLevel-i))
		}
		p.bitmapOr.clear(node)
		p.bitmapAnd.clear(node)
		p.unlock(node/2, curLevel+1, level)
		return
	}
	if curLevel <= p.l {
		l, r := node*2, node*2+1
		if !p.bitmapOr.get(l) && !p.bitmapOr.get(r) {
			if p.bitmapOr.get(node) {
				p.levelCount[curLevel]++
			}
			p.bitmapOr.clear(node)
		}
		p.bitmapAnd.clear(node)
		p.unlock(node/2, curLevel+1, level)
	}
}
