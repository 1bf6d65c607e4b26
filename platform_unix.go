//go:build unix

package pagealloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapPageSource backs pages and direct allocations with anonymous,
// private mappings, one per Reserve call.
type mmapPageSource struct{}

func newPlatformPageSource() PageSource {
	return mmapPageSource{}
}

func (mmapPageSource) Reserve(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, ErrPageSourceExhausted
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, ErrPageSourceExhausted
	}
	return unsafe.Pointer(&b[0]), nil
}

func (mmapPageSource) Release(ptr unsafe.Pointer, size int) {
	if ptr == nil || size <= 0 {
		return
	}
	b := unsafe.Slice((*byte)(ptr), size)
	_ = unix.Munmap(b)
}
