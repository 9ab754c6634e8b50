// Package store implements the file store orchestration on top of a storage
// medium: the inode table scans for file lifecycle (create, open, close,
// delete) and the block traversal for content access (read, write). Open
// files are tracked as descriptors, with one inode snapshot held per open
// descriptor. Block allocation itself is delegated to an allocation engine.
package store

import (
	"fmt"

	"github.com/desertwitch/blockfs/internal/schema"
)

// DescriptorNotFound is the sentinel descriptor returned by [Store.Open]
// when no file with the requested name exists. It is a signal value, not an
// error condition.
const DescriptorNotFound = -1

// maxNameLength is the longest accepted file name in bytes.
const maxNameLength = 255

type mediumProvider interface {
	Geometry() schema.Geometry
	Format() error
	ReadInode(index int) (*schema.Inode, error)
	WriteInode(inode *schema.Inode, index int) error
	ReadBlock(index int) ([]byte, error)
	WriteBlock(data []byte, index int) error
	ReadBitmap() ([]byte, error)
	WriteBitmap(bits []byte) error
}

type allocationProvider interface {
	AllocateBlocksForFile(inodeIndex int, byteCount int64) ([]int32, error)
	DeallocateBlocksForFile(inodeIndex int) error
}

// Store is the principal implementation of the file store. It coordinates
// the inode table and the free-block bitmap over a single storage medium and
// tracks all files currently held open.
//
// A descriptor equals the table index of the file's inode. Any number of
// files can be open at the same time, but each file maps to at most one
// descriptor.
//
// A [Store] is meant to be passed by reference (pointer) and is not
// thread-safe; it assumes a single exclusive owner of the whole medium.
type Store struct {
	medium  mediumProvider
	alloc   allocationProvider
	handles map[int]*schema.Inode
}

// NewStore returns a pointer to a new [Store] operating on the given medium,
// formatting it first. Any data previously held by the medium is lost.
func NewStore(medium mediumProvider, alloc allocationProvider) (*Store, error) {
	if err := medium.Format(); err != nil {
		return nil, fmt.Errorf("(store) failed to format medium: %w", err)
	}

	return AttachStore(medium, alloc), nil
}

// AttachStore returns a pointer to a new [Store] operating on the given
// medium as-is, preserving any files it already holds. This is the
// constructor for media restored from a disk image.
func AttachStore(medium mediumProvider, alloc allocationProvider) *Store {
	return &Store{
		medium:  medium,
		alloc:   alloc,
		handles: make(map[int]*schema.Inode),
	}
}

// Geometry returns the fixed dimensions of the underlying medium.
func (s *Store) Geometry() schema.Geometry {
	return s.medium.Geometry()
}

// IsOpen returns whether the given descriptor maps to an open file.
func (s *Store) IsOpen(descriptor int) bool {
	_, ok := s.handles[descriptor]

	return ok
}

// validateName rejects file names the inode table cannot hold.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("(store) %w: name is empty", ErrInvalidName)
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("(store) %w: name exceeds %d bytes", ErrInvalidName, maxNameLength)
	}

	return nil
}

// findByName scans the inode table in index order and returns the table
// index of the first live inode carrying the given name, or
// [DescriptorNotFound] if no such inode exists.
func (s *Store) findByName(name string) (int, *schema.Inode, error) {
	geo := s.medium.Geometry()

	for i := 0; i < geo.InodeCount; i++ {
		ino, err := s.medium.ReadInode(i)
		if err != nil {
			return DescriptorNotFound, nil, fmt.Errorf("(store) failed to read inode %d: %w", i, err)
		}

		if ino.InUse() && ino.Name == name {
			return i, ino, nil
		}
	}

	return DescriptorNotFound, nil, nil
}
