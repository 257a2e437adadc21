// Package segheap implements a boundary-tag heap allocator organized into
// multiple segregated free-lists, with in-place coalescing across
// neighboring blocks and across chunks obtained from the OS. It is safe
// for concurrent use by multiple goroutines sharing one Heap.
//
// The public surface is the classical malloc/calloc/realloc/free plus a
// structural Verify, both as methods on an explicit *Heap and as
// package-level wrappers over one process-wide default Heap (construct-
// on-first-use, matching the reference's constructor-before-main init).
package segheap

import (
	"fmt"
	"sync"
	"unsafe"
)

// Options configures a Heap's compile-time-in-spirit parameters. The zero
// value is the reference's defaults (arenaSize, maxOSChunks in const.go); tests
// that want small, fast-to-exhaust heaps can override ArenaSize.
type Options struct {
	// ArenaSize overrides arenaSize. Must be a multiple of the system
	// page size and at least 4*allocHeaderSize. Zero means arenaSize.
	ArenaSize int

	// MaxOSChunks overrides maxOSChunks. Zero means maxOSChunks.
	MaxOSChunks int
}

// Heap is one process-wide (or, via NewHeap, independently constructed)
// allocator instance. All exported methods acquire mu for their entire
// duration; there are no suspension points inside the critical
// section other than the OS mmap call made when growing the heap.
type Heap struct {
	mu sync.Mutex

	sentinels [nLists]freeListHead

	osChunks    []osChunk
	maxOSChunks int

	// lastFencePost is the right fencepost of the most recently obtained
	// chunk, used to detect whether the next chunk mmap returns is
	// contiguous with it.
	lastFencePost header

	// base is the left fencepost of the very first chunk.
	base header

	arenaSize int

	// diag is a preallocated scratch buffer used to format the
	// double-free diagnostic without allocating while mu is held.
	diag []byte
}

// NewHeap constructs an independent Heap, obtaining its first OS chunk
// immediately.
func NewHeap(opts Options) (*Heap, error) {
	arena := opts.ArenaSize
	if arena == 0 {
		arena = arenaSize
	}
	if arena%pageSize() != 0 {
		return nil, fmt.Errorf("segheap: ArenaSize %d is not a multiple of the page size %d", arena, pageSize())
	}
	if arena < 4*allocHeaderSize {
		return nil, fmt.Errorf("segheap: ArenaSize %d is smaller than 4*allocHeaderSize", arena)
	}

	maxChunks := opts.MaxOSChunks
	if maxChunks == 0 {
		maxChunks = maxOSChunks
	}

	h := &Heap{
		arenaSize:   arena,
		maxOSChunks: maxChunks,
		diag:        make([]byte, 0, 256),
	}
	h.initSentinels()

	block, err := allocateChunk(arena)
	if err != nil {
		return nil, err
	}
	h.base = block
	h.lastFencePost = getRightHeader(getRightHeader(block)) // right fencepost: base -> interior -> right fencepost
	h.recordChunk(block, arena)
	h.insertFree(getRightHeader(block))

	return h, nil
}

func (h *Heap) recordChunk(base header, size int) {
	h.osChunks = append(h.osChunks, osChunk{base: base, size: size})
}

var (
	defaultHeap     *Heap
	defaultHeapOnce sync.Once
)

func defaultH() *Heap {
	defaultHeapOnce.Do(func() {
		h, err := NewHeap(Options{})
		if err != nil {
			panic(err)
		}
		defaultHeap = h
	})
	return defaultHeap
}

// Malloc returns an 8-byte-aligned slice of at least size writable bytes,
// or nil if size == 0, size >= ArenaSize, or the OS refuses more memory.
func Malloc(size int) []byte { return defaultH().Malloc(size) }

// Free releases a slice previously returned by Malloc/Calloc/Realloc.
// Freeing nil is a no-op; freeing anything else not obtained from this
// Heap is undefined; freeing an already-freed slice is fatal.
func Free(b []byte) { defaultH().Free(b) }

// Calloc is malloc(n*size) followed by zeroing. Overflow of n*size is not
// guarded, matching the reference.
func Calloc(n, size int) []byte { return defaultH().Calloc(n, size) }

// Realloc allocates size bytes, copies size bytes from ptr into it (not
// bounded by ptr's old length — a preserved, flagged quirk), frees
// ptr, and returns the new slice.
func Realloc(ptr []byte, size int) []byte { return defaultH().Realloc(ptr, size) }

// Verify runs the structural validator over the default Heap.
func Verify() bool { return defaultH().Verify() }

// Malloc is the Heap method backing the package-level Malloc.
func (h *Heap) Malloc(size int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocateObject(size)
}

// Free is the Heap method backing the package-level Free.
func (h *Heap) Free(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deallocateObject(b)
}

// Calloc is the Heap method backing the package-level Calloc.
func (h *Heap) Calloc(n, size int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.allocateObject(n * size)
	if b == nil {
		return nil
	}
	for i := range b {
		b[i] = 0
	}
	return b
}

// Realloc is the Heap method backing the package-level Realloc.
func (h *Heap) Realloc(ptr []byte, size int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ptr == nil {
		return h.allocateObject(size)
	}
	b := h.allocateObject(size)
	if b == nil {
		return nil
	}
	// Preserved quirk: copies `size` bytes from ptr regardless of ptr's
	// own length, which can read past ptr's user region when growing.
	// Faithful to the reference; flagged, not fixed (see DESIGN.md).
	src := unsafe.Slice((*byte)(sliceData(ptr)), size)
	copy(b, src)
	h.deallocateObject(ptr)
	return b
}

// Verify is the Heap method backing the package-level Verify.
func (h *Heap) Verify() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verify()
}

func sliceData(b []byte) unsafe.Pointer {
	if len(b) == 0 && cap(b) == 0 {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&b))
}
