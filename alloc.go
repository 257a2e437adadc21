package segheap

import "unsafe"

// roundUp8 rounds n up to the next multiple of 8.
func roundUp8(n int) int {
	return (n + 7) &^ 7
}

// needFor computes the total block size (header included) required to
// satisfy a raw_size request.
func needFor(rawSize int) int {
	n := allocHeaderSize + roundUp8(rawSize)
	if n < 2*allocHeaderSize {
		n = 2 * allocHeaderSize
	}
	return n
}

// allocateObject serves one Malloc call. Caller holds h.mu.
func (h *Heap) allocateObject(rawSize int) []byte {
	if rawSize <= 0 {
		return nil
	}
	if rawSize >= h.arenaSize {
		return nil
	}

	need := needFor(rawSize)

	donor, class := h.findDonor(need)
	if donor == nil {
		if err := h.growHeap(); err != nil {
			return nil
		}
		donor, class = h.findDonor(need)
		if donor == nil {
			// A fresh, non-contiguous chunk's interior is only
			// arenaSize-2*allocHeaderSize bytes, so for requests within a
			// few headers of arenaSize `need` can exceed it and the retry
			// finds nothing. Return nil.
			return nil
		}
	}

	return h.splitAndAllocate(donor, class, need, rawSize)
}

// findDonor scans buckets from the smallest class whose minimum size is
// >= need upward to nLists-1, returning the first block of size >= need
// and the bucket it was found in. Every bucket, including the unsorted
// terminal one, is scanned linearly; each bucket below the terminal one
// holds blocks of a single exact size, so within it the first member
// found at or above startClass already fits.
func (h *Heap) findDonor(need int) (header, int) {
	startClass := findFree(uint32(need))
	for class := startClass; class < nLists; class++ {
		sentinel := sentinelNode(&h.sentinels[class])
		for node := getNext(sentinel); node != sentinel; node = getNext(node) {
			b := headerFromData(node)
			if int(getObjectSize(b)) >= need {
				return b, class
			}
		}
	}
	return nil, -1
}

// splitAndAllocate carves `need` bytes out of donor (found in bucket
// class) and returns the allocated block's data region as a []byte.
func (h *Heap) splitAndAllocate(donor header, class, need, rawSize int) []byte {
	d := int(getObjectSize(donor))

	if d-need < minChunkSize {
		// Exact-fit branch: either d == need, or the remainder would be
		// too small to host a free block's own header+links, so the
		// whole donor is consumed instead of splitting it.
		remove(linkNode(donor))
		setObjectState(donor, allocated)
		return blockBytes(donor, rawSize)
	}

	// Split: carve the high-address `need` bytes as the allocated tail.
	// The donor keeps the low addresses and shrinks to d-need.
	newDonorSize := d - need
	setObjectSize(donor, uint32(newDonorSize))

	tail := unsafe.Add(donor, newDonorSize)
	setObjectSize(tail, uint32(need))
	setObjectState(tail, allocated)
	setObjectLeftSize(tail, uint32(newDonorSize))

	right := getRightHeader(tail)
	setObjectLeftSize(right, uint32(need))

	h.relistIfNeeded(donor, class)

	return blockBytes(tail, rawSize)
}

// growHeap obtains a new OS chunk, folding it into the previous chunk via
// the coalescer if they turned out to be address-contiguous, otherwise
// recording it as a new chunk and inserting its interior block when there
// is no donor to grow, delegating the structural work of folding it into
// the previous chunk to coalesceChunk.
func (h *Heap) growHeap() error {
	if len(h.osChunks) >= h.maxOSChunks {
		return ErrOutOfMemory
	}

	block, err := allocateChunk(h.arenaSize)
	if err != nil {
		return err
	}

	if block == unsafe.Add(h.lastFencePost, allocHeaderSize) {
		h.coalesceChunk(h.arenaSize)
	} else {
		h.recordChunk(block, h.arenaSize)
		h.insertFree(getRightHeader(block))
	}

	h.lastFencePost = unsafe.Add(block, h.arenaSize-allocHeaderSize)
	return nil
}
