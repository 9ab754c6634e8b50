package store

import "errors"

var (
	// ErrDuplicateName occurs when a file with the requested name already
	// exists in the inode table.
	ErrDuplicateName = errors.New("a file with this name already exists")

	// ErrTableFull occurs when no unused inode slot is left after a full
	// scan of the inode table.
	ErrTableFull = errors.New("no unused inode slot is available")

	// ErrDescriptorMismatch occurs when an operation receives a descriptor
	// that does not map to a currently open file.
	ErrDescriptorMismatch = errors.New("descriptor does not match an open file")

	// ErrFileNotFound occurs when no live inode carries the requested name
	// or table index.
	ErrFileNotFound = errors.New("no such file exists")

	// ErrInvalidName occurs when a file name is empty or too long for the
	// inode table.
	ErrInvalidName = errors.New("file name is not usable")

	// ErrChecksumMismatch occurs when read file content does not match the
	// checksum recorded at write time.
	ErrChecksumMismatch = errors.New("file content does not match its recorded checksum")
)
