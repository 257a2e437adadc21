package segheap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderAccessors(t *testing.T) {
	buf := make([]byte, 64)
	h := header(unsafe.Pointer(&buf[0]))

	setObjectSize(h, 48)
	setObjectState(h, allocated)
	setObjectLeftSize(h, 16)

	assert.Equal(t, uint32(48), getObjectSize(h))
	assert.Equal(t, allocated, getObjectState(h))
	assert.Equal(t, uint32(16), getObjectLeftSize(h))
}

func TestObjectStateString(t *testing.T) {
	assert.Equal(t, "UNALLOCATED", unallocated.String())
	assert.Equal(t, "ALLOCATED", allocated.String())
	assert.Equal(t, "FENCEPOST", fencepost.String())
	assert.Equal(t, "UNKNOWN", objectState(99).String())
}

func TestGetRightLeftHeader(t *testing.T) {
	buf := make([]byte, 96)
	base := header(unsafe.Pointer(&buf[0]))
	layoutChunk(base, 96)

	left := base
	interior := unsafe.Add(base, allocHeaderSize)
	right := unsafe.Add(base, 96-allocHeaderSize)

	require.Equal(t, interior, getRightHeader(left))
	require.Equal(t, right, getRightHeader(interior))
	require.Equal(t, interior, getLeftHeader(right))
	require.Equal(t, left, getLeftHeader(interior))
}

func TestDataPtrRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	h := header(unsafe.Pointer(&buf[0]))
	d := dataPtr(h)
	assert.Equal(t, h, headerFromData(d))
}

func TestHeaderFromSliceAndBlockBytes(t *testing.T) {
	buf := make([]byte, 64)
	h := header(unsafe.Pointer(&buf[0]))
	setObjectSize(h, 64)
	setObjectState(h, allocated)

	b := blockBytes(h, 10)
	require.Len(t, b, 10)
	require.Equal(t, 64-allocHeaderSize, cap(b))
	require.Equal(t, h, headerFromSlice(b))

	assert.Nil(t, headerFromSlice(nil))
	assert.Nil(t, headerFromSlice([]byte{}))
}

func TestFreeListLinkAccessors(t *testing.T) {
	var a, b freeListHead
	na := sentinelNode(&a)
	nb := sentinelNode(&b)

	setNext(na, nb)
	setPrev(nb, na)

	assert.Equal(t, nb, getNext(na))
	assert.Equal(t, na, getPrev(nb))
}
