package segheap

import "unsafe"

// freeListHead is a sentinel anchor for one circular doubly-linked
// free-list bucket. Its memory layout matches the 16-byte link overlay
// used by real blocks (next at offset 0, prev at offset 8) so the insert/
// remove primitives below can treat a sentinel and a free block's data
// region identically.
type freeListHead struct {
	next unsafe.Pointer
	prev unsafe.Pointer
}

func sentinelNode(s *freeListHead) unsafe.Pointer {
	return unsafe.Pointer(s)
}

// findFree maps an object_size to its free-list bucket index.
// The function is total and monotonic; it is reversible (size -> unique
// bucket -> unique size) only within the first nLists-1 buckets, since the
// last bucket holds every size >= sizeClassCeiling.
func findFree(size uint32) int {
	if size < sizeClassCeiling {
		return int(size/8) - 3
	}
	return nLists - 1
}

// insert adds node as the new head of bucket class's list, just after the
// sentinel. Constant time; does not inspect or mutate node's block header.
func (h *Heap) insert(node unsafe.Pointer, class int) {
	sentinel := sentinelNode(&h.sentinels[class])
	oldHead := getNext(sentinel)

	setNext(node, oldHead)
	setPrev(node, sentinel)
	setPrev(oldHead, node)
	setNext(sentinel, node)
}

// remove unlinks node from whatever list it currently belongs to, using
// only its own next/prev links. Constant time.
func remove(node unsafe.Pointer) {
	p := getPrev(node)
	n := getNext(node)
	setNext(p, n)
	setPrev(n, p)
}

// insertFree marks block h UNALLOCATED and inserts it into the free-list
// bucket matching its current object_size.
func (h *Heap) insertFree(b header) {
	setObjectState(b, unallocated)
	h.insert(linkNode(b), findFree(getObjectSize(b)))
}

// relistIfNeeded moves b to the bucket matching its (possibly just
// changed) object_size, but only if that bucket differs from oldClass.
// Used after growing/shrinking a free block in place so its list
// membership stays consistent with its object_size.
func (h *Heap) relistIfNeeded(b header, oldClass int) {
	newClass := findFree(getObjectSize(b))
	if newClass == oldClass {
		return
	}
	remove(linkNode(b))
	h.insert(linkNode(b), newClass)
}

func (h *Heap) initSentinels() {
	for i := range h.sentinels {
		s := sentinelNode(&h.sentinels[i])
		setNext(s, s)
		setPrev(s, s)
	}
}
