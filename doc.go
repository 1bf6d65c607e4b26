// Package pagealloc implements a general-purpose in-process memory
// allocator intended as a drop-in replacement for the platform heap for
// workloads dominated by many small-to-medium allocations.
//
// # Overview
//
// The package exposes a single facade, the Allocator interface, satisfied
// by two independent core designs that share the same external contract:
//
//   - BuddyAllocator: one large page of 2^L minimal units, managed as a
//     buddy system via two packed bitmaps and per-level free counters,
//     with pages kept in a max-heap ordered by available capacity.
//   - SegregatedAllocator: pages are carved up per size-class ("layer");
//     each layer owns a free list of equally-sized segments, and pages
//     migrate between an in-use list and a cached free-page pool.
//
// Both designs recover an allocation's metadata by pointer arithmetic
// alone (the segment header lives at address-K, K the header size),
// so Free never needs an external lookup table for the header itself.
//
// # Thread safety
//
// Neither BuddyAllocator nor SegregatedAllocator is safe for concurrent
// use. All effects of one call are visible before the next call begins,
// but there is no synchronization between callers on different
// goroutines. Wrap an Allocator in Synchronized to share it across
// goroutines.
//
// # Backing memory
//
// Pages and oversized "direct" allocations are backed by a PageSource,
// which by default reserves anonymous memory from the operating system
// (mmap on unix). Tests can substitute a PageSource that injects
// allocation failures to exercise out-of-memory handling.
//
// # Leak tracking
//
// LeakTracker wraps an Allocator and records the call site of every live
// allocation; Leaks returns whatever is still outstanding. It is strictly
// observational and imposes no behavior on the wrapped allocator.
package pagealloc
