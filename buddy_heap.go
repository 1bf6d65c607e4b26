package pagealloc

// pageGreater orders pages by their vector of free counters
// (level_count[l], level_count[l-1], ..., [0]) compared lexicographically,
// highest level dominating.
func pageGreater(x, y *buddyPage) bool {
	for i := x.l; i >= 0; i-- {
		if x.levelCount[i] != y.levelCount[i] {
			return x.levelCount[i] > y.levelCount[i]
		}
	}
	return false
}

// buddyHeap is a 0-indexed max-heap of pages keyed by pageGreater. Each
// page's heapIndex is kept in sync on every swap.
type buddyHeap struct {
	pages []*buddyPage
}

func (h *buddyHeap) swap(i, j int) {
	h.pages[i], h.pages[j] = h.pages[j], h.pages[i]
	h.pages[i].heapIndex = i
	h.pages[j].heapIndex = j
}

func (h *buddyHeap) siftDown(i int) {
	n := len(h.pages)
	for {
		l, r, largest := 2*i+1, 2*i+2, i
		if l < n && pageGreater(h.pages[l], h.pages[largest]) {
			largest = l
		}
		if r < n && pageGreater(h.pages[r], h.pages[largest]) {
			largest = r
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}

func (h *buddyHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pageGreater(h.pages[i], h.pages[parent]) {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *buddyHeap) push(p *buddyPage) {
	p.heapIndex = len(h.pages)
	h.pages = append(h.pages, p)
	h.siftUp(p.heapIndex)
}

// popRoot removes and returns the current root, which the caller has
// already established is empty. It uses a plain swap-with-last-then-sift
// rather than a recursive walk, to avoid the off-by-one a naive recursive
// pop invites (passing the wrong child index on the way back up).
func (h *buddyHeap) popRoot() *buddyPage {
	n := len(h.pages)
	root := h.pages[0]
	last := n - 1
	h.swap(0, last)
	h.pages = h.pages[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return root
}
