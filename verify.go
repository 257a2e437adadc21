package segheap

import "unsafe"

// detectCycles runs a Floyd tortoise-and-hare traversal over every
// free-list bucket. A well-formed bucket is one big cycle through its
// sentinel and members; the loop below relies on that and simply walks
// until slow catches back up to the sentinel. If a corruption introduces
// a shorter sub-cycle that never reaches the sentinel, slow and fast will
// collide before slow == sentinel, and that collision point is returned.
func (h *Heap) detectCycles() header {
	for i := 0; i < nLists; i++ {
		sentinel := sentinelNode(&h.sentinels[i])
		slow := getNext(sentinel)
		fast := getNext(getNext(sentinel))
		for slow != sentinel {
			if slow == fast {
				return header(slow)
			}
			slow = getNext(slow)
			fast = getNext(getNext(fast))
		}
	}
	return nil
}

// verifyPointers checks bidirectional link agreement for every node
// (sentinel included) in every bucket: cur->next->prev == cur and
// cur->prev->next == cur. Returns the first offending node, or nil.
func (h *Heap) verifyPointers() header {
	for i := 0; i < nLists; i++ {
		sentinel := sentinelNode(&h.sentinels[i])
		cur := sentinel
		for {
			if getPrev(getNext(cur)) != cur || getNext(getPrev(cur)) != cur {
				return header(cur)
			}
			cur = getNext(cur)
			if cur == sentinel {
				break
			}
		}
	}
	return nil
}

// verifyChunk linearly sweeps one OS chunk from its left fencepost to its
// right fencepost, checking boundary-tag agreement at every step and
// confirming both ends are the FENCEPOST that should bracket it.
func verifyChunk(c osChunk) bool {
	left := c.base
	if getObjectState(left) != fencepost || getObjectSize(left) != allocHeaderSize {
		return false
	}

	expectedRight := unsafe.Add(c.base, c.size-allocHeaderSize)
	cur := left
	for {
		right := getRightHeader(cur)
		if getObjectLeftSize(right) != getObjectSize(cur) {
			return false
		}
		if getObjectState(right) == fencepost {
			return right == expectedRight && getObjectSize(right) == allocHeaderSize
		}
		cur = right
	}
}

// verifyTags runs verifyChunk over every recorded OS chunk.
func (h *Heap) verifyTags() bool {
	for _, c := range h.osChunks {
		if !verifyChunk(c) {
			return false
		}
	}
	return true
}

// verify composes the checks above. It is side-effect-free and safe to
// call while holding h.mu.
func (h *Heap) verify() bool {
	if h.detectCycles() != nil {
		return false
	}
	if h.verifyPointers() != nil {
		return false
	}
	return h.verifyTags()
}
