package pagealloc

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// LeakRecord describes one still-live allocation observed by a
// LeakTracker.
type LeakRecord struct {
	Size int64
	File string
	Line int
}

func (r LeakRecord) String() string {
	return fmt.Sprintf("%d bytes allocated at %s:%d", r.Size, r.File, r.Line)
}

// LeakTracker wraps an Allocator with an address -> LeakRecord sidecar,
// pinpointing the call site of any allocation that outlives its owner.
// It never changes what the wrapped allocator does, only observes it, so
// it composes with Synchronized in either order.
type LeakTracker struct {
	inner Allocator

	mu   sync.Mutex
	live map[unsafe.Pointer]LeakRecord
}

func NewLeakTracker(inner Allocator) *LeakTracker {
	return &LeakTracker{inner: inner, live: make(map[unsafe.Pointer]LeakRecord)}
}

func (t *LeakTracker) Allocate(size int64) unsafe.Pointer {
	ptr := t.inner.Allocate(size)
	if ptr == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	t.mu.Lock()
	t.live[ptr] = LeakRecord{Size: size, File: file, Line: line}
	t.mu.Unlock()
	return ptr
}

func (t *LeakTracker) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	t.mu.Lock()
	delete(t.live, ptr)
	t.mu.Unlock()
	t.inner.Free(ptr)
}

func (t *LeakTracker) Reallocate(ptr unsafe.Pointer, newSize int64) unsafe.Pointer {
	_, file, line, _ := runtime.Caller(1)
	newPtr := t.inner.Reallocate(ptr, newSize)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ptr != nil && newPtr != nil {
		delete(t.live, ptr)
	}
	if newPtr != nil {
		t.live[newPtr] = LeakRecord{Size: newSize, File: file, Line: line}
	}
	return newPtr
}

func (t *LeakTracker) GC() { t.inner.GC() }

func (t *LeakTracker) PageCount() int { return t.inner.PageCount() }

func (t *LeakTracker) PageSize() int64 { return t.inner.PageSize() }

// Leaks returns a snapshot of every allocation currently outstanding.
func (t *LeakTracker) Leaks() map[unsafe.Pointer]LeakRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[unsafe.Pointer]LeakRecord, len(t.live))
	for k, v := range t.live {
		out[k] = v
	}
	return out
}

var _ Allocator = (*LeakTracker)(nil)
