package pagealloc

import "unsafe"

// headerSize is K: the segment-header size in bytes, and also the
// minimum segment size. Both variants pack layer/level,
// index, and a used/direct bit into a 32-bit word; a second 32-bit word
// carries a debug-build corruption guard, giving a pointer-aligned 8-byte
// header.
const headerSize = 8

// headerMagic marks a header as one this package wrote. It is checked
// only under -tags debug builds, since production builds skip the extra
// consistency checks entirely.
const headerMagic uint32 = 0x9a11_0c00

// directLevel is the sentinel level/layer value marking a segment
// obtained directly from the PageSource rather than carved from a page.
// 31 is the largest value a 5-bit field can hold.
const directLevel = 31

// header is the fixed-size prefix stamped at the start of every segment,
// at address (data pointer - headerSize). Bit layout of meta:
//
//	bits  0..25 (26 bits): index within the page (or 0 for direct)
//	bits 26..30 ( 5 bits): level/layer (directLevel for direct segments)
//	bit      31 ( 1 bit ): used (Segregated variant only; Buddy tracks
//	                       liveness in its bitmaps instead)
type header struct {
	meta  uint32
	magic uint32
}

func packMeta(index int64, level int64, used bool) uint32 {
	m := uint32(index&0x3ffffff) | uint32(level&0x1f)<<26
	if used {
		m |= 1 << 31
	}
	return m
}

func (h *header) index() int64 { return int64(h.meta & 0x3ffffff) }
func (h *header) level() int64 { return int64((h.meta >> 26) & 0x1f) }
func (h *header) used() bool   { return h.meta&(1<<31) != 0 }
func (h *header) isDirect() bool {
	return h.level() == directLevel
}

func (h *header) setIndex(index int64) {
	h.meta = (h.meta &^ 0x3ffffff) | uint32(index&0x3ffffff)
}
func (h *header) setLevel(level int64) {
	h.meta = (h.meta &^ (0x1f << 26)) | uint32(level&0x1f)<<26
}
func (h *header) setUsed(used bool) {
	if used {
		h.meta |= 1 << 31
	} else {
		h.meta &^= 1 << 31
	}
}

func (h *header) stamp(index, level int64, used bool) {
	h.meta = packMeta(index, level, used)
	h.magic = headerMagic
}

// dataPtr returns the address handed out to the caller for a segment
// whose header starts at h.
func (h *header) dataPtr() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), headerSize)
}

// headerAt recovers the header preceding a data pointer previously
// returned by an allocate/reallocate call. This is O(1) pointer
// arithmetic with no separate lookup table.
func headerAt(ptr unsafe.Pointer) *header {
	h := (*header)(unsafe.Add(ptr, -headerSize))
	debugAssert(h.magic == headerMagic, ErrCorruptHeader)
	return h
}

// segmentSize returns K * 2^level, the total bytes (header + payload)
// occupied by a segment at the given level.
func segmentSize(level int64) int64 {
	return headerSize << uint(level)
}

// segmentPayload returns the usable payload bytes of a segment at level.
func segmentPayload(level int64) int64 {
	return segmentSize(level) - headerSize
}

// levelForUnit computes the smallest level l such that
// unit*2^l >= size+headerSize: required
// segment bytes S = size + K, l = ceil(log2(ceil(S/unit))). unit is the
// per-variant minimal segment stride: headerSize for Variant B, or
// segBaseSize (headerSize plus room for an intrusive free-list node) for
// Variant S.
func levelForUnit(unit, size int64) int64 {
	units := (size + headerSize + unit - 1) / unit
	return ceilLog2(units)
}

// levelForSize is levelForUnit specialized to Variant B, whose minimal
// segment stride is exactly the header size.
func levelForSize(size int64) int64 {
	return levelForUnit(headerSize, size)
}
