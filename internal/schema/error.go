package schema

import "errors"

var (
	// ErrInodeCountInvalid occurs when a [Geometry] specifies a non-positive
	// number of inode table slots.
	ErrInodeCountInvalid = errors.New("geometry has invalid inode count")

	// ErrBlockCountInvalid occurs when a [Geometry] specifies a non-positive
	// number of data blocks.
	ErrBlockCountInvalid = errors.New("geometry has invalid block count")

	// ErrBlockSizeInvalid occurs when a [Geometry] specifies a non-positive
	// data block size.
	ErrBlockSizeInvalid = errors.New("geometry has invalid block size")

	// ErrPointerCountInvalid occurs when a [Geometry] specifies a
	// non-positive maximum of block pointers per inode.
	ErrPointerCountInvalid = errors.New("geometry has invalid pointers per inode")
)
