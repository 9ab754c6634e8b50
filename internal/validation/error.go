package validation

import "errors"

var (
	// ErrBlockLeaked occurs when a bitmap bit is set but no inode references
	// the block, leaking it from all future allocations.
	ErrBlockLeaked = errors.New("block is marked allocated but owned by no inode")

	// ErrBlockMultiplyOwned occurs when more than one inode references the
	// same data block.
	ErrBlockMultiplyOwned = errors.New("block is owned by more than one inode")

	// ErrBlockNotMarked occurs when an inode references a block whose bitmap
	// bit is clear, exposing it to double allocation.
	ErrBlockNotMarked = errors.New("block is owned by an inode but marked free")

	// ErrContentChecksum occurs when read file content does not match the
	// checksum recorded at write time.
	ErrContentChecksum = errors.New("file content does not match its recorded checksum")

	// ErrContentUnreadable occurs when file content cannot be assembled for
	// verification.
	ErrContentUnreadable = errors.New("file content cannot be read back")

	// ErrDuplicateInodeName occurs when two live inodes carry the same file
	// name.
	ErrDuplicateInodeName = errors.New("file name is carried by more than one inode")

	// ErrFreeSlotNotEmpty occurs when an unused inode slot still carries a
	// name, a size or block pointers.
	ErrFreeSlotNotEmpty = errors.New("unused inode slot carries leftover metadata")

	// ErrInodeUnnamed occurs when a live inode carries no file name.
	ErrInodeUnnamed = errors.New("live inode carries no file name")

	// ErrPointerOutOfRange occurs when a block pointer references a block
	// outside the medium.
	ErrPointerOutOfRange = errors.New("block pointer leaves the medium")

	// ErrPointersNotContiguous occurs when an occupied pointer slot follows
	// an unused one, breaking the contiguity invariant.
	ErrPointersNotContiguous = errors.New("block pointers are not contiguous from slot zero")

	// ErrSizeAllocationMismatch occurs when a recorded file size does not
	// agree with the inode's allocated block count.
	ErrSizeAllocationMismatch = errors.New("file size does not match the allocated block count")
)
