package segheap

import "unsafe"

// objectState is the tag stored in every block's header.
type objectState uint8

const (
	unallocated objectState = 0
	allocated   objectState = 1
	fencepost   objectState = 2
)

func (s objectState) String() string {
	switch s {
	case unallocated:
		return "UNALLOCATED"
	case allocated:
		return "ALLOCATED"
	case fencepost:
		return "FENCEPOST"
	default:
		return "UNKNOWN"
	}
}

// A header address (type header) is an unsafe.Pointer to the first byte of
// a block's fixed fields. The layout, exactly allocHeaderSize (16) bytes:
//
//	offset 0:  uint32 object_size       (total bytes of the block, header included)
//	offset 4:  uint8  object_state
//	offset 8:  uint32 object_left_size  (object_size of the preceding block)
//	offset 12: (reserved, never read or written)
//
// The user-visible data region begins at header+allocHeaderSize. When the
// block is UNALLOCATED, the first 16 bytes of that region are overlaid by
// the free-list link fields (next, prev), which is why every block must be
// at least 2*allocHeaderSize bytes: 16 for the header, 16 for the
// links a free block needs to remain a list member.
type header = unsafe.Pointer

func getObjectSize(h header) uint32 {
	return *(*uint32)(h)
}

func setObjectSize(h header, size uint32) {
	*(*uint32)(h) = size
}

func getObjectState(h header) objectState {
	return objectState(*(*uint8)(unsafe.Add(h, 4)))
}

func setObjectState(h header, s objectState) {
	*(*uint8)(unsafe.Add(h, 4)) = uint8(s)
}

func getObjectLeftSize(h header) uint32 {
	return *(*uint32)(unsafe.Add(h, 8))
}

func setObjectLeftSize(h header, size uint32) {
	*(*uint32)(unsafe.Add(h, 8)) = size
}

// getRightHeader returns the header immediately to the right of h, i.e.
// h + get_object_size(h). Only valid for traversal within a single chunk;
// callers must stop at a FENCEPOST.
func getRightHeader(h header) header {
	return unsafe.Add(h, getObjectSize(h))
}

// getLeftHeader returns the header immediately to the left of h, via the
// boundary tag h->object_left_size. Only valid within a single chunk.
func getLeftHeader(h header) header {
	return unsafe.Add(h, -int(getObjectLeftSize(h)))
}

// dataPtr returns the address of the user-visible region (and, when h is
// UNALLOCATED, the free-list link storage) following the header.
func dataPtr(h header) unsafe.Pointer {
	return unsafe.Add(h, allocHeaderSize)
}

// headerFromData is the inverse of dataPtr: recovers the header given a
// pointer previously returned as user data.
func headerFromData(p unsafe.Pointer) header {
	return unsafe.Add(p, -allocHeaderSize)
}

// headerFromSlice recovers the header of the block backing a []byte
// previously handed out by Malloc/Calloc/Realloc. It reads the slice's
// data pointer directly rather than indexing into the slice, so it works
// even for a zero-length result.
func headerFromSlice(b []byte) header {
	if len(b) == 0 && cap(b) == 0 {
		return nil
	}
	data := *(*unsafe.Pointer)(unsafe.Pointer(&b))
	return headerFromData(data)
}

// blockBytes wraps the user-visible region of block h as a []byte of
// length `want`, capacity = usable bytes.
func blockBytes(h header, want int) []byte {
	usable := int(getObjectSize(h)) - allocHeaderSize
	return unsafe.Slice((*byte)(dataPtr(h)), usable)[:want]
}

// Free-list link storage, overlaid on the first 16 bytes of a free block's
// data region (or, for a sentinel, on the sentinel's own storage). Both
// representations share the same ABI: an 8-byte next field followed by an
// 8-byte prev field, each a raw address stored as uintptr rather than a
// typed Go pointer, because the memory it lives in (mmap'd chunks) is not
// scanned by the Go garbage collector and must not contain values the GC
// would misinterpret.
func getNext(node unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(*(*uintptr)(node))
}

func setNext(node, v unsafe.Pointer) {
	*(*uintptr)(node) = uintptr(v)
}

func getPrev(node unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(*(*uintptr)(unsafe.Add(node, 8)))
}

func setPrev(node, v unsafe.Pointer) {
	*(*uintptr)(unsafe.Add(node, 8)) = uintptr(v)
}

// linkNode returns the address at which a block's free-list links live.
// For a real block this is its data region; sentinels are addressed
// directly since they have no header.
func linkNode(h header) unsafe.Pointer {
	return dataPtr(h)
}
