package segheap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrOutOfMemory is wrapped into every error returned when the OS refuses
// to extend the heap. It is never itself returned to a Malloc/Calloc/
// Realloc caller — those return nil on refusal, matching the reference —
// but NewHeap and the internal chunk provider surface it so tests and
// callers constructing their own Heap can distinguish refusal from a
// programming error.
var ErrOutOfMemory = fmt.Errorf("segheap: out of memory")

// osChunk records one region obtained from allocateChunk, for the
// validator and for test teardown.
type osChunk struct {
	base header // left fencepost
	size int
}

func pageSize() int {
	return unix.Getpagesize()
}

// allocateChunk obtains `size` contiguous bytes from the OS via an
// anonymous mmap (the Go-process equivalent of the reference's
// data-segment extension) and lays it out as one chunk.
//
// It does not insert the new chunk's interior into any free-list or
// append it to the recorded chunk list; callers do that after deciding
// whether the new chunk should instead be folded into the previous one.
func allocateChunk(size int) (header, error) {
	region, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, size, err)
	}

	base := header(unsafe.Pointer(&region[0]))
	layoutChunk(base, size)
	return base, nil
}

// layoutChunk installs a left fencepost at offset 0 and a right fencepost
// at offset size-allocHeaderSize within an already-obtained region of
// `size` bytes starting at base, and configures the interior as a single
// UNALLOCATED block. Factored out of allocateChunk so tests can exercise
// the boundary-tag bookkeeping on ordinary memory, without depending on
// what addresses the OS happens to hand back from mmap.
func layoutChunk(base header, size int) {
	left := base
	setObjectSize(left, allocHeaderSize)
	setObjectState(left, fencepost)
	setObjectLeftSize(left, 0)

	right := unsafe.Add(base, size-allocHeaderSize)
	setObjectSize(right, allocHeaderSize)
	setObjectState(right, fencepost)
	setObjectLeftSize(right, uint32(size-2*allocHeaderSize))

	interior := unsafe.Add(base, allocHeaderSize)
	setObjectSize(interior, uint32(size-2*allocHeaderSize))
	setObjectState(interior, unallocated)
	setObjectLeftSize(interior, allocHeaderSize)
}

// munmapChunk releases a chunk back to the OS. Only used by tests that
// build throwaway Heaps; the allocator itself never frees chunks once
// obtained — chunks are created as needed and kept for the Heap's
// lifetime.
func munmapChunk(c osChunk) error {
	region := unsafe.Slice((*byte)(c.base), c.size)
	return unix.Munmap(region)
}
