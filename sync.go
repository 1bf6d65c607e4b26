package pagealloc

import (
	"sync"
	"unsafe"
)

// Synchronized wraps an Allocator with a mutex. Neither BuddyAllocator
// nor SegregatedAllocator is safe for concurrent use on its own; both
// leave thread safety to a wrapping layer like this one.
type Synchronized struct {
	mu    sync.Mutex
	inner Allocator
}

// NewSynchronized wraps inner so every operation holds a single mutex for
// its duration.
func NewSynchronized(inner Allocator) *Synchronized {
	return &Synchronized{inner: inner}
}

func (s *Synchronized) Allocate(size int64) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Allocate(size)
}

func (s *Synchronized) Free(ptr unsafe.Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Free(ptr)
}

func (s *Synchronized) Reallocate(ptr unsafe.Pointer, newSize int64) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Reallocate(ptr, newSize)
}

func (s *Synchronized) GC() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.GC()
}

func (s *Synchronized) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.PageCount()
}

func (s *Synchronized) PageSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.PageSize()
}

var _ Allocator = (*Synchronized)(nil)
