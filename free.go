package segheap

// deallocateObject frees a block, merging with free neighbors where
// possible. Caller holds h.mu.
func (h *Heap) deallocateObject(b []byte) {
	if b == nil {
		return
	}
	hdr := headerFromSlice(b)
	if hdr == nil {
		return
	}
	if getObjectState(hdr) == unallocated {
		h.fatalDoubleFree(hdr)
		return // unreachable: fatalDoubleFree panics
	}

	left := getLeftHeader(hdr)
	right := getRightHeader(hdr)
	leftFree := getObjectState(left) == unallocated
	rightFree := getObjectState(right) == unallocated

	switch {
	case !leftFree && !rightFree:
		// Case A: neither neighbor is free.
		h.insertFree(hdr)

	case leftFree && !rightFree:
		// Case B: only the left neighbor is free. hdr is absorbed into it.
		setObjectState(hdr, unallocated)
		oldClass := findFree(getObjectSize(left))
		setObjectSize(left, getObjectSize(left)+getObjectSize(hdr))
		newRight := getRightHeader(left)
		setObjectLeftSize(newRight, getObjectSize(left))
		h.relistIfNeeded(left, oldClass)

	case !leftFree && rightFree:
		// Case C: only the right neighbor is free. hdr absorbs it.
		remove(linkNode(right))
		setObjectSize(hdr, getObjectSize(hdr)+getObjectSize(right))
		newRight := getRightHeader(hdr)
		setObjectLeftSize(newRight, getObjectSize(hdr))
		h.insertFree(hdr)

	default:
		// Case D: both neighbors are free. hdr and right are both
		// absorbed into left.
		setObjectState(hdr, unallocated)
		remove(linkNode(right))
		oldClass := findFree(getObjectSize(left))
		setObjectSize(left, getObjectSize(left)+getObjectSize(hdr)+getObjectSize(right))
		newRight := getRightHeader(left)
		setObjectLeftSize(newRight, getObjectSize(left))
		h.relistIfNeeded(left, oldClass)
	}
}
