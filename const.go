package segheap

// Compile-time parameters. These mirror the #defines of the reference
// implementation and are not runtime-tunable; NewHeap's Options exists
// only so tests can exercise small arenas without waiting on page-sized
// growth.
const (
	// allocHeaderSize is the size, in bytes, of the fixed fields that
	// precede every block (allocated, unallocated, or fencepost). It must
	// be a multiple of 8.
	allocHeaderSize = 16

	// nLists is the number of segregated free-list buckets, indexed by
	// (size/8)-3. Buckets 1..57 hold exact 8-byte size classes from 32 to
	// 480 bytes (bucket 0 would be size 24, below the minimum block size);
	// bucket 58 is the unsorted catch-all for 488 bytes and everything
	// >= 496 bytes.
	nLists = 59

	// arenaSize is the size of a single OS chunk. Must be a multiple of
	// the system page size and at least 4*allocHeaderSize.
	arenaSize = 64 * 1024

	// maxOSChunks bounds how many OS chunks the validator can track.
	maxOSChunks = 16384

	// minChunkSize is the smallest block size (a header plus the two
	// free-list links). needFor never returns less, and splitAndAllocate
	// never leaves a free remainder smaller than this.
	minChunkSize = 2 * allocHeaderSize // 32

	// sizeClassCeiling is the size below which the bucket formula
	// (s/8)-3 applies; sizes at or above it all land in the last bucket.
	sizeClassCeiling = 496
)

func init() {
	if allocHeaderSize%8 != 0 {
		panic("segheap: allocHeaderSize must be a multiple of 8")
	}
	if arenaSize%pageSize() != 0 {
		panic("segheap: arenaSize must be a multiple of the page size")
	}
	if arenaSize < 4*allocHeaderSize {
		panic("segheap: arenaSize must be at least 4*allocHeaderSize")
	}
}
