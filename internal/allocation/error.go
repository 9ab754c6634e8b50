package allocation

import "errors"

var (
	// ErrFileTooLarge occurs when a requested byte count needs more blocks
	// than a single inode can reference.
	ErrFileTooLarge = errors.New("file needs more blocks than an inode can reference")

	// ErrInsufficientSpace occurs when fewer free blocks exist than an
	// allocation request needs. No partial allocation is committed.
	ErrInsufficientSpace = errors.New("not enough free blocks on the medium")
)
