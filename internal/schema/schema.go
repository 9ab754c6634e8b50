// Package schema provides the principal schematics for all other packages. It
// defines the storage medium interface, the persistent record structures and
// provides implementations for handling (Unix-based) operating system
// syscalls. The package serves as a foundational layer for the file store
// throughout the codebase.
package schema

// Medium describes the raw storage collaborator the file store operates on.
// It is a fixed-capacity store of inode records and data blocks, with the
// free-block bitmap persisted as a whole.
//
// All indexed reads return defensive copies; mutating a returned value never
// mutates the medium. A [Medium] is not expected to be thread-safe.
type Medium interface {
	// Geometry returns the fixed dimensions of the medium.
	Geometry() Geometry

	// Format initializes all inodes to unused and all blocks to free.
	Format() error

	// ReadInode returns a copy of the inode record at the given table index.
	ReadInode(index int) (*Inode, error)

	// WriteInode persists an inode record to the given table index.
	WriteInode(inode *Inode, index int) error

	// ReadBlock returns a copy of the raw data block at the given index.
	ReadBlock(index int) ([]byte, error)

	// WriteBlock persists raw data to the block at the given index. Data
	// shorter than the block size is zero-padded to full block length.
	WriteBlock(data []byte, index int) error

	// ReadBitmap returns a copy of the serialized free-block bitmap.
	ReadBitmap() ([]byte, error)

	// WriteBitmap persists the serialized free-block bitmap as a whole.
	WriteBitmap(bits []byte) error
}
