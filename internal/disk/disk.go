// Package disk provides storage medium implementations for the file store.
// The principal implementation is a RAM-backed virtual disk of fixed
// geometry, with optional persistence of the whole medium as a checksummed
// image file on the host filesystem.
package disk

import (
	"fmt"

	"github.com/desertwitch/blockfs/internal/schema"
)

// Disk is a RAM-backed [schema.Medium] with a fixed [schema.Geometry]. All
// reads return defensive copies, all writes store defensive copies; no caller
// ever aliases internal state.
//
// A [Disk] is meant to be passed by reference (pointer) and is not
// thread-safe.
type Disk struct {
	geo    schema.Geometry
	inodes []*schema.Inode
	blocks [][]byte
	bits   []byte
}

// New returns a pointer to a new formatted [Disk] with the given geometry.
func New(geo schema.Geometry) (*Disk, error) {
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("(disk) %w", err)
	}

	d := &Disk{geo: geo}
	if err := d.Format(); err != nil {
		return nil, err
	}

	return d, nil
}

// Geometry returns the fixed dimensions of the [Disk].
func (d *Disk) Geometry() schema.Geometry {
	return d.geo
}

// Format initializes all inodes to unused, all blocks to zero and the
// free-block bitmap to all-clear.
func (d *Disk) Format() error {
	d.inodes = make([]*schema.Inode, d.geo.InodeCount)
	for i := range d.inodes {
		d.inodes[i] = schema.NewInode(d.geo)
	}

	d.blocks = make([][]byte, d.geo.BlockCount)
	for i := range d.blocks {
		d.blocks[i] = make([]byte, d.geo.BlockSize)
	}

	d.bits = make([]byte, d.geo.BitmapLength())

	return nil
}

// ReadInode returns a copy of the inode record at the given table index.
func (d *Disk) ReadInode(index int) (*schema.Inode, error) {
	if index < 0 || index >= d.geo.InodeCount {
		return nil, fmt.Errorf("(disk) %w: inode index %d", ErrInodeIndexRange, index)
	}

	return d.inodes[index].Clone(), nil
}

// WriteInode persists an inode record to the given table index.
func (d *Disk) WriteInode(inode *schema.Inode, index int) error {
	if inode == nil {
		return fmt.Errorf("(disk) %w", ErrNilInode)
	}

	if index < 0 || index >= d.geo.InodeCount {
		return fmt.Errorf("(disk) %w: inode index %d", ErrInodeIndexRange, index)
	}

	if len(inode.Pointers) != d.geo.PointersPerInode {
		return fmt.Errorf("(disk) %w: got %d pointer slots, want %d",
			ErrInodeShape, len(inode.Pointers), d.geo.PointersPerInode)
	}

	d.inodes[index] = inode.Clone()

	return nil
}

// ReadBlock returns a copy of the raw data block at the given index. The
// returned slice always has full block length.
func (d *Disk) ReadBlock(index int) ([]byte, error) {
	if index < 0 || index >= d.geo.BlockCount {
		return nil, fmt.Errorf("(disk) %w: block index %d", ErrBlockIndexRange, index)
	}

	data := make([]byte, d.geo.BlockSize)
	copy(data, d.blocks[index])

	return data, nil
}

// WriteBlock persists raw data to the block at the given index. Data shorter
// than the block size is zero-padded to full block length; data longer than
// the block size is rejected.
func (d *Disk) WriteBlock(data []byte, index int) error {
	if index < 0 || index >= d.geo.BlockCount {
		return fmt.Errorf("(disk) %w: block index %d", ErrBlockIndexRange, index)
	}

	if len(data) > d.geo.BlockSize {
		return fmt.Errorf("(disk) %w: got %d bytes, block size is %d",
			ErrBlockTooLarge, len(data), d.geo.BlockSize)
	}

	block := make([]byte, d.geo.BlockSize)
	copy(block, data)
	d.blocks[index] = block

	return nil
}

// ReadBitmap returns a copy of the serialized free-block bitmap.
func (d *Disk) ReadBitmap() ([]byte, error) {
	bits := make([]byte, len(d.bits))
	copy(bits, d.bits)

	return bits, nil
}

// WriteBitmap persists the serialized free-block bitmap as a whole.
func (d *Disk) WriteBitmap(bits []byte) error {
	if len(bits) != d.geo.BitmapLength() {
		return fmt.Errorf("(disk) %w: got %d bytes, want %d",
			ErrBitmapLength, len(bits), d.geo.BitmapLength())
	}

	stored := make([]byte, len(bits))
	copy(stored, bits)
	d.bits = stored

	return nil
}
