package store

import (
	"fmt"

	"github.com/desertwitch/blockfs/internal/bitmap"
)

// Usage is a point-in-time occupancy snapshot of the medium: how many inode
// slots and data blocks are claimed, and how many content bytes they hold.
type Usage struct {
	InodeCount int
	InodesUsed int
	BlockCount int
	BlocksUsed int
	BlockSize  int
	BytesUsed  int64
	BytesTotal int64
}

// BlocksUsedPercent returns the allocated share of all data blocks.
func (u *Usage) BlocksUsedPercent() float64 {
	if u.BlockCount == 0 {
		return 0
	}

	return float64(u.BlocksUsed) / float64(u.BlockCount) * 100
}

// InodesUsedPercent returns the claimed share of all inode slots.
func (u *Usage) InodesUsedPercent() float64 {
	if u.InodeCount == 0 {
		return 0
	}

	return float64(u.InodesUsed) / float64(u.InodeCount) * 100
}

// FileInfo describes one live file of the inode table.
type FileInfo struct {
	Index  int
	Name   string
	Size   int64
	Blocks int
	Open   bool
}

// Usage scans the inode table and the free-block bitmap and returns an
// occupancy snapshot of the medium.
func (s *Store) Usage() (*Usage, error) {
	geo := s.medium.Geometry()

	usage := &Usage{
		InodeCount: geo.InodeCount,
		BlockCount: geo.BlockCount,
		BlockSize:  geo.BlockSize,
		BytesTotal: geo.TotalBytes(),
	}

	bits, err := s.medium.ReadBitmap()
	if err != nil {
		return nil, fmt.Errorf("(store) failed to read bitmap: %w", err)
	}

	bm, err := bitmap.Deserialize(bits, geo.BlockCount)
	if err != nil {
		return nil, fmt.Errorf("(store) failed to deserialize bitmap: %w", err)
	}

	usage.BlocksUsed = bm.AllocatedCount()

	for i := 0; i < geo.InodeCount; i++ {
		ino, err := s.medium.ReadInode(i)
		if err != nil {
			return nil, fmt.Errorf("(store) failed to read inode %d: %w", i, err)
		}

		if !ino.InUse() {
			continue
		}

		usage.InodesUsed++

		if ino.Size > 0 {
			usage.BytesUsed += ino.Size
		}
	}

	return usage, nil
}

// Files scans the inode table and returns a description of every live file,
// in table index order.
func (s *Store) Files() ([]FileInfo, error) {
	geo := s.medium.Geometry()

	files := make([]FileInfo, 0, geo.InodeCount)

	for i := 0; i < geo.InodeCount; i++ {
		ino, err := s.medium.ReadInode(i)
		if err != nil {
			return nil, fmt.Errorf("(store) failed to read inode %d: %w", i, err)
		}

		if !ino.InUse() {
			continue
		}

		files = append(files, FileInfo{
			Index:  i,
			Name:   ino.Name,
			Size:   ino.Size,
			Blocks: ino.PointerCount(),
			Open:   s.IsOpen(i),
		})
	}

	return files, nil
}
