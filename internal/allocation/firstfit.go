package allocation

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/blockfs/internal/bitmap"
	"github.com/desertwitch/blockfs/internal/schema"
)

// AllocateBlocksForFile selects and marks data blocks for the inode at
// inodeIndex, sized to hold byteCount bytes. Blocks the inode already owns
// are released and reselected within the same bitmap transaction, so a
// rewrite can grow or shrink a file without a window of double ownership.
//
// The selection is all-or-nothing: on [ErrFileTooLarge] or
// [ErrInsufficientSpace] neither the bitmap nor the inode is persisted and
// the medium keeps its previous state. On success the bitmap, the pointer
// array (ascending block order), the file size and the persisted inode all
// reflect the new allocation, and the selected block indices are returned.
func (a *Handler) AllocateBlocksForFile(inodeIndex int, byteCount int64) ([]int32, error) {
	geo := a.medium.Geometry()

	needed := geo.BlocksForBytes(byteCount)
	if needed > geo.PointersPerInode {
		return nil, fmt.Errorf("(alloc) %w: %d bytes need %d blocks, inode holds %d pointers",
			ErrFileTooLarge, byteCount, needed, geo.PointersPerInode)
	}

	ino, err := a.medium.ReadInode(inodeIndex)
	if err != nil {
		return nil, fmt.Errorf("(alloc) failed to read inode %d: %w", inodeIndex, err)
	}

	bm, err := a.loadBitmap()
	if err != nil {
		return nil, err
	}

	// Release the current allocation in memory only; should the scan below
	// fail, the medium never observes the release.
	for _, ptr := range ino.BlockPointers() {
		bm.Deallocate(int(ptr))
	}

	selected := make([]int32, 0, needed)

	next := 0
	for len(selected) < needed {
		i := bm.FirstFree(next)
		if i < 0 {
			return nil, fmt.Errorf("(alloc) %w: %d blocks needed, %d more found",
				ErrInsufficientSpace, needed, len(selected))
		}

		bm.Allocate(i)
		selected = append(selected, int32(i))
		next = i + 1
	}

	if err := a.medium.WriteBitmap(bm.Serialize()); err != nil {
		return nil, fmt.Errorf("(alloc) failed to persist bitmap: %w", err)
	}

	ino.ClearContent()
	for n, blockIndex := range selected {
		ino.SetBlockPointer(n, blockIndex)
	}
	ino.Size = byteCount

	if err := a.medium.WriteInode(ino, inodeIndex); err != nil {
		return nil, fmt.Errorf("(alloc) failed to persist inode %d: %w", inodeIndex, err)
	}

	slog.Debug("Allocated blocks for file",
		"inode", inodeIndex,
		"bytes", byteCount,
		"blocks", len(selected),
	)

	return selected, nil
}

// DeallocateBlocksForFile releases every data block the inode at inodeIndex
// owns. The pointer array is walked from slot 0 up to the first unused
// sentinel, each owned block's bitmap bit is cleared and the pointer slot is
// reset. The size returns to unset and the updated bitmap and inode are
// persisted.
func (a *Handler) DeallocateBlocksForFile(inodeIndex int) error {
	ino, err := a.medium.ReadInode(inodeIndex)
	if err != nil {
		return fmt.Errorf("(alloc) failed to read inode %d: %w", inodeIndex, err)
	}

	bm, err := a.loadBitmap()
	if err != nil {
		return err
	}

	released := 0
	for _, ptr := range ino.Pointers {
		if ptr == schema.UnusedPointer {
			break
		}

		bm.Deallocate(int(ptr))
		released++
	}

	if err := a.medium.WriteBitmap(bm.Serialize()); err != nil {
		return fmt.Errorf("(alloc) failed to persist bitmap: %w", err)
	}

	ino.ClearContent()

	if err := a.medium.WriteInode(ino, inodeIndex); err != nil {
		return fmt.Errorf("(alloc) failed to persist inode %d: %w", inodeIndex, err)
	}

	slog.Debug("Deallocated blocks for file",
		"inode", inodeIndex,
		"blocks", released,
	)

	return nil
}

// loadBitmap reads and deserializes the free-block bitmap from the medium.
func (a *Handler) loadBitmap() (*bitmap.Bitmap, error) {
	bits, err := a.medium.ReadBitmap()
	if err != nil {
		return nil, fmt.Errorf("(alloc) failed to read bitmap: %w", err)
	}

	bm, err := bitmap.Deserialize(bits, a.medium.Geometry().BlockCount)
	if err != nil {
		return nil, fmt.Errorf("(alloc) failed to deserialize bitmap: %w", err)
	}

	return bm, nil
}
