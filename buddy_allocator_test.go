package pagealloc

import (
	"testing"
	"unsafe"
)

// The following scenarios use L = 10, K = 8, so segment-size(l) = 8*2^l,
// matching end-to-end scenarios S1-S6.
const scenarioL = 10

func TestBuddyScenarioS1_AllocFreeGC(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	p := a.Allocate(1)
	if p == nil {
		t.Fatal("Allocate(1) returned nil")
	}
	a.Free(p)
	a.GC()
	if a.PageCount() != 0 {
		t.Fatalf("PageCount() = %d; want 0", a.PageCount())
	}
}

func TestBuddyScenarioS2_Isolation(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	pa := a.Allocate(24)
	pb := a.Allocate(24)
	if pa == nil || pb == nil {
		t.Fatal("Allocate(24) returned nil")
	}
	if pa == pb {
		t.Fatal("two live allocations aliased")
	}

	bufA := unsafe.Slice((*byte)(pa), 24)
	bufB := unsafe.Slice((*byte)(pb), 24)
	for i := range bufA {
		bufA[i] = 0xAB
	}
	for i := range bufB {
		bufB[i] = 0xCD
	}
	for i, b := range bufA {
		if b != 0xAB {
			t.Fatalf("bufA[%d] = %#x; want 0xAB (buffer b overwrote it)", i, b)
		}
	}
	for i, b := range bufB {
		if b != 0xCD {
			t.Fatalf("bufB[%d] = %#x; want 0xCD (buffer a overwrote it)", i, b)
		}
	}

	a.Free(pa)
	a.Free(pb)
	a.GC()
	if a.PageCount() != 0 {
		t.Fatalf("PageCount() = %d; want 0", a.PageCount())
	}
}

func TestBuddyScenarioS3_ShrinkIsNoop(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	pa := a.Allocate(100)
	if pa == nil {
		t.Fatal("Allocate(100) returned nil")
	}
	pb := a.Reallocate(pa, 50)
	if pb != pa {
		t.Fatalf("Reallocate to a smaller size moved the address: got %p want %p", pb, pa)
	}
}

func TestBuddyScenarioS4_GrowPreservesPrefix(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	pa := a.Allocate(64)
	if pa == nil {
		t.Fatal("Allocate(64) returned nil")
	}
	buf := unsafe.Slice((*byte)(pa), 64)
	for i := range buf {
		buf[i] = 0x5A
	}

	pb := a.Reallocate(pa, 4096)
	if pb == nil {
		t.Fatal("Reallocate to 4096 returned nil")
	}
	grown := unsafe.Slice((*byte)(pb), 64)
	for i, b := range grown {
		if b != 0x5A {
			t.Fatalf("grown[%d] = %#x; want 0x5A (prefix not preserved)", i, b)
		}
	}
	a.Free(pb)
}

func TestBuddyScenarioS5_NewPageOnExhaustion(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	// Allocate(1) needs 1+K = 9 bytes, i.e. the level-1 class (16 bytes),
	// since a level-0 segment is all header; a page holds 2^(L-1) of them.
	n := a.pageBytes() / segmentSize(levelForSize(1))
	ptrs := make([]unsafe.Pointer, 0, n+1)
	for i := int64(0); i < n; i++ {
		p := a.Allocate(1)
		if p == nil {
			t.Fatalf("Allocate(1) #%d failed before the page should be exhausted", i)
		}
		ptrs = append(ptrs, p)
	}
	if a.PageCount() != 1 {
		t.Fatalf("PageCount() = %d after filling one page; want 1", a.PageCount())
	}

	extra := a.Allocate(1)
	if extra == nil {
		t.Fatal("Allocate(1) beyond one page's capacity returned nil; want it to trigger a new page")
	}
	ptrs = append(ptrs, extra)
	if a.PageCount() != 2 {
		t.Fatalf("PageCount() = %d after page overflow; want 2", a.PageCount())
	}

	for _, p := range ptrs {
		a.Free(p)
	}
	a.GC()
	if a.PageCount() != 0 {
		t.Fatalf("PageCount() = %d after freeing everything and GC; want 0", a.PageCount())
	}
}

func TestBuddyScenarioS6_DirectAllocation(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	pageMax := a.maxInPageBytes()
	before := a.PageCount()

	p := a.Allocate(pageMax + 1)
	if p == nil {
		t.Fatal("Allocate(pageMax+1) returned nil")
	}
	h := headerAt(p)
	if !h.isDirect() {
		t.Fatal("header for an oversize allocation does not have the direct flag set")
	}
	if a.PageCount() != before {
		t.Fatalf("PageCount() changed across a direct allocation: got %d want %d", a.PageCount(), before)
	}

	a.Free(p)
	if a.PageCount() != before {
		t.Fatalf("PageCount() changed across a direct free: got %d want %d", a.PageCount(), before)
	}
}

func TestBuddyAllocateZeroReturnsNil(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	if p := a.Allocate(0); p != nil {
		t.Fatal("Allocate(0) returned non-nil")
	}
}

func TestBuddyFreeNilIsNoop(t *testing.T) {
	t.Parallel()
	a, err := NewBuddyAllocator(scenarioL)
	if err != nil {
		t.Fatal(err)
	}
	a.Free(nil) // must not panic
}

func TestBuddyInvalidLevel(t *testing.T) {
	t.Parallel()
	if _, err := NewBuddyAllocator(7); err != ErrInvalidLevel {
		t.Errorf("NewBuddyAllocator(7) error = %v; want ErrInvalidLevel", err)
	}
	if _, err := NewBuddyAllocator(27); err != ErrInvalidLevel {
		t.Errorf("NewBuddyAllocator(27) error = %v; want ErrInvalidLevel", err)
	}
}
