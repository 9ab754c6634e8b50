// Package allocation implements the block allocation engine of the file
// store. Blocks are handed out first-fit: the lowest-indexed free blocks are
// selected first, in ascending order. The bitmap and the owning inode are
// always mutated together within a single call, so no partial allocation
// ever becomes visible on the medium.
package allocation

import (
	"github.com/desertwitch/blockfs/internal/schema"
)

type mediumProvider interface {
	Geometry() schema.Geometry
	ReadInode(index int) (*schema.Inode, error)
	WriteInode(inode *schema.Inode, index int) error
	ReadBitmap() ([]byte, error)
	WriteBitmap(bits []byte) error
}

// Handler is the principal implementation of the block allocation engine.
//
// A [Handler] is meant to be passed by reference (pointer) and is not
// thread-safe.
type Handler struct {
	medium mediumProvider
}

// NewHandler returns a pointer to a new allocation [Handler] operating on
// the given medium.
func NewHandler(medium mediumProvider) *Handler {
	return &Handler{
		medium: medium,
	}
}
