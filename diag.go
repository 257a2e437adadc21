package segheap

import (
	"os"
	"strconv"
)

// fatalDoubleFree emits a single-
// line diagnostic to stderr and terminate. The diagnostic is built into
// h.diag, a buffer obtained once at Heap construction (the allocator's own
// diagnostic path must not re-enter the allocator
// while mu is held), instead of through fmt.Sprintf.
func (h *Heap) fatalDoubleFree(hdr header) {
	buf := h.diag[:0]
	buf = append(buf, "segheap: double free detected: header at 0x"...)
	buf = strconv.AppendUint(buf, uint64(uintptr(hdr)), 16)
	buf = append(buf, " is already UNALLOCATED\n"...)
	os.Stderr.Write(buf)
	panic("segheap: double free")
}
