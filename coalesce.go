package segheap

// coalesceChunk is only called from growHeap when a
// freshly-mmap'd chunk of `size` bytes turns out to begin exactly where
// the previous chunk's right fencepost (h.lastFencePost, aka F1) ends.
// The two fenceposts bracketing that boundary become interior bytes of a
// single free block, which is then merged with the previous chunk's
// trailing free block if there is one.
func (h *Heap) coalesceChunk(size int) {
	f1 := h.lastFencePost
	left := getLeftHeader(f1)

	// The fold extends the previously recorded chunk rather than adding a
	// new one: the region the validator must sweep now spans the old
	// chunk's bytes plus the newly-mmap'd ones.
	last := len(h.osChunks) - 1
	h.osChunks[last].size += size

	newInteriorSize := size - 2*allocHeaderSize
	setObjectState(f1, unallocated)
	setObjectSize(f1, uint32(newInteriorSize+2*allocHeaderSize))

	right := getRightHeader(f1)
	setObjectLeftSize(right, getObjectSize(f1))

	if getObjectState(left) == unallocated {
		// Deallocator case B: f1 is absorbed into its free left neighbor.
		oldClass := findFree(getObjectSize(left))
		setObjectSize(left, getObjectSize(left)+getObjectSize(f1))
		right = getRightHeader(left)
		setObjectLeftSize(right, getObjectSize(left))
		h.relistIfNeeded(left, oldClass)
		return
	}

	h.insertFree(f1)
}
