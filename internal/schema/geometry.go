package schema

const (
	// DefaultInodeCount is the default number of inode table slots.
	DefaultInodeCount = 16

	// DefaultBlockCount is the default number of data blocks.
	DefaultBlockCount = 1024

	// DefaultBlockSize is the default size of a single data block in bytes.
	DefaultBlockSize = 512

	// DefaultPointersPerInode is the default maximum of block pointers a
	// single inode can hold.
	DefaultPointersPerInode = 32

	bitsPerByte = 8
)

// Geometry describes the fixed dimensions of a [Medium]. The dimensions are
// set at initialization time and are immutable thereafter.
//
// A [Geometry] is meant to be passed by value.
type Geometry struct {
	// InodeCount is the number of inode table slots.
	InodeCount int

	// BlockCount is the number of data blocks.
	BlockCount int

	// BlockSize is the size of a single data block in bytes.
	BlockSize int

	// PointersPerInode is the maximum of block pointers per inode.
	PointersPerInode int
}

// DefaultGeometry returns a [Geometry] populated with the default dimensions.
func DefaultGeometry() Geometry {
	return Geometry{
		InodeCount:       DefaultInodeCount,
		BlockCount:       DefaultBlockCount,
		BlockSize:        DefaultBlockSize,
		PointersPerInode: DefaultPointersPerInode,
	}
}

// Validate checks all dimensions of a [Geometry] for usability.
func (g Geometry) Validate() error {
	if g.InodeCount <= 0 {
		return ErrInodeCountInvalid
	}

	if g.BlockCount <= 0 {
		return ErrBlockCountInvalid
	}

	if g.BlockSize <= 0 {
		return ErrBlockSizeInvalid
	}

	if g.PointersPerInode <= 0 {
		return ErrPointerCountInvalid
	}

	return nil
}

// BitmapLength returns the byte length of the serialized free-block bitmap,
// one bit per data block.
func (g Geometry) BitmapLength() int {
	return (g.BlockCount + bitsPerByte - 1) / bitsPerByte
}

// MaxFileSize returns the largest byte count a single inode can reference.
func (g Geometry) MaxFileSize() int64 {
	return int64(g.PointersPerInode) * int64(g.BlockSize)
}

// TotalBytes returns the combined byte capacity of all data blocks.
func (g Geometry) TotalBytes() int64 {
	return int64(g.BlockCount) * int64(g.BlockSize)
}

// BlocksForBytes returns the number of data blocks needed to hold byteCount
// bytes. The division rounds up, so any trailing partial block counts as a
// whole one.
func (g Geometry) BlocksForBytes(byteCount int64) int {
	if byteCount <= 0 {
		return 0
	}

	return int((byteCount + int64(g.BlockSize) - 1) / int64(g.BlockSize))
}
