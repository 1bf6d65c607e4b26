package pagealloc

import "unsafe"

// Allocator is the contract shared by both core designs. BuddyAllocator
// and SegregatedAllocator both satisfy it, so callers can pick a variant
// without touching the rest of their code.
type Allocator interface {
	// Allocate returns the address of at least size writable bytes, or
	// nil if size is 0 or the platform allocator refused the request.
	Allocate(size int64) unsafe.Pointer

	// Free releases a prior Allocate/Reallocate result. A nil address is
	// a no-op.
	Free(ptr unsafe.Pointer)

	// Reallocate resizes a prior allocation, preserving the first
	// min(old, new) bytes. A nil address behaves like Allocate(newSize).
	// Returns nil (leaving ptr valid and untouched) if the platform
	// allocator refuses to grow the allocation.
	Reallocate(ptr unsafe.Pointer, newSize int64) unsafe.Pointer

	// GC reclaims pages that currently hold zero live segments.
	// BuddyAllocator releases them back to the PageSource;
	// SegregatedAllocator moves them to its free-page cache instead.
	GC()

	// PageCount returns the number of pages currently held.
	PageCount() int

	// PageSize returns the per-page payload size in bytes (constant for
	// the lifetime of the allocator).
	PageSize() int64
}

// directPreludeSize is the room reserved immediately before a direct
// segment's header to record the total reservation size, since the
// platform PageSource (unlike libc free) requires the exact length back
// on Release. It sits one headerSize further back than the header
// itself, so headerAt(ptr) — which must land on a valid header for every
// segment, direct or not — still works uniformly regardless of variant.
const directPreludeSize = 8

func directPrelude(h *header) *int64 {
	return (*int64)(unsafe.Add(unsafe.Pointer(h), -directPreludeSize))
}

// directAlloc reserves size+K+directPreludeSize bytes from src, stamps
// the direct sentinel header, and returns it, or nil on platform OOM.
// Shared by both variants' direct path.
func directAlloc(src PageSource, size int64) *header {
	total := directPreludeSize + headerSize + size
	ptr, err := src.Reserve(int(total))
	if err != nil {
		return nil
	}
	*(*int64)(ptr) = total
	h := (*header)(unsafe.Add(ptr, directPreludeSize))
	h.stamp(0, directLevel, true)
	return h
}

func directFree(src PageSource, h *header) {
	total := *directPrelude(h)
	base := unsafe.Add(unsafe.Pointer(h), -directPreludeSize)
	src.Release(base, int(total))
}

// directRealloc reallocates a direct segment via a fresh reservation and
// copy, since PageSource has no native realloc primitive: the platform
// allocator is always allowed to relocate a growing allocation, and this
// always does.
func directRealloc(src PageSource, h *header, newSize int64) *header {
	oldTotal := *directPrelude(h)
	oldPayload := oldTotal - directPreludeSize - headerSize

	nh := directAlloc(src, newSize)
	if nh == nil {
		return nil
	}
	copyPayload(nh.dataPtr(), h.dataPtr(), minInt64(oldPayload, newSize))
	directFree(src, h)
	return nh
}

func copyPayload(dst, src unsafe.Pointer, n int64) {
	if n <= 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
