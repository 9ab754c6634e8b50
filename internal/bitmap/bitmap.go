// Package bitmap implements the free-block bitmap of the file store. One bit
// is kept per data block, with a set bit marking the block as allocated to
// some inode.
package bitmap

import (
	"fmt"
)

const bitsPerByte = 8

// Bitmap tracks the allocation state of a fixed number of data blocks. Bit i
// lives in byte i/8 at mask 1<<(i%8) of the serialized layout.
//
// Out-of-range block indices are programming errors and fail fast with a
// panic; they are not recoverable conditions. A [Bitmap] is meant to be
// passed by reference (pointer) and is not thread-safe.
type Bitmap struct {
	bits       []byte
	blockCount int
}

// New returns a pointer to a new all-free [Bitmap] covering blockCount data
// blocks.
func New(blockCount int) *Bitmap {
	return &Bitmap{
		bits:       make([]byte, (blockCount+bitsPerByte-1)/bitsPerByte),
		blockCount: blockCount,
	}
}

// Deserialize returns a pointer to a [Bitmap] reconstructed from its
// serialized byte layout, covering blockCount data blocks.
func Deserialize(raw []byte, blockCount int) (*Bitmap, error) {
	wantLen := (blockCount + bitsPerByte - 1) / bitsPerByte
	if len(raw) != wantLen {
		return nil, fmt.Errorf("(bitmap) %w: got %d bytes, want %d", ErrLengthMismatch, len(raw), wantLen)
	}

	bits := make([]byte, wantLen)
	copy(bits, raw)

	return &Bitmap{
		bits:       bits,
		blockCount: blockCount,
	}, nil
}

// Serialize returns a copy of the fixed byte layout of the [Bitmap], for
// whole-bitmap persistence on a storage medium.
func (b *Bitmap) Serialize() []byte {
	raw := make([]byte, len(b.bits))
	copy(raw, b.bits)

	return raw
}

// Len returns the number of data blocks the [Bitmap] covers.
func (b *Bitmap) Len() int {
	return b.blockCount
}

// IsAllocated returns whether block i is allocated.
func (b *Bitmap) IsAllocated(i int) bool {
	b.mustBeInRange(i)

	return b.bits[i/bitsPerByte]&(1<<(i%bitsPerByte)) != 0
}

// Allocate sets the bit of block i. The caller guarantees the block was
// free.
func (b *Bitmap) Allocate(i int) {
	b.mustBeInRange(i)

	b.bits[i/bitsPerByte] |= 1 << (i % bitsPerByte)
}

// Deallocate clears the bit of block i.
func (b *Bitmap) Deallocate(i int) {
	b.mustBeInRange(i)

	b.bits[i/bitsPerByte] &^= 1 << (i % bitsPerByte)
}

// FirstFree returns the lowest free block index at or after from, or -1 when
// no free block remains.
func (b *Bitmap) FirstFree(from int) int {
	if from < 0 {
		from = 0
	}

	for i := from; i < b.blockCount; i++ {
		if !b.IsAllocated(i) {
			return i
		}
	}

	return -1
}

// AllocatedCount returns the number of allocated blocks.
func (b *Bitmap) AllocatedCount() int {
	count := 0
	for i := 0; i < b.blockCount; i++ {
		if b.IsAllocated(i) {
			count++
		}
	}

	return count
}

// FreeCount returns the number of free blocks.
func (b *Bitmap) FreeCount() int {
	return b.blockCount - b.AllocatedCount()
}

func (b *Bitmap) mustBeInRange(i int) {
	if i < 0 || i >= b.blockCount {
		panic(fmt.Sprintf("bitmap: block index %d out of range [0, %d)", i, b.blockCount))
	}
}
