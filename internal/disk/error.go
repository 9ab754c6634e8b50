package disk

import "errors"

var (
	// ErrNilInode occurs when a nil inode record is given for persisting.
	ErrNilInode = errors.New("inode is nil")

	// ErrInodeIndexRange occurs when an inode table index falls outside the
	// geometry of the medium.
	ErrInodeIndexRange = errors.New("inode index out of range")

	// ErrBlockIndexRange occurs when a data block index falls outside the
	// geometry of the medium.
	ErrBlockIndexRange = errors.New("block index out of range")

	// ErrBlockTooLarge occurs when given data exceeds the block size of the
	// medium.
	ErrBlockTooLarge = errors.New("data exceeds block size")

	// ErrBitmapLength occurs when a serialized bitmap does not match the
	// byte length required by the geometry of the medium.
	ErrBitmapLength = errors.New("bitmap has wrong length")

	// ErrInodeShape occurs when an inode record does not carry the exact
	// number of pointer slots required by the geometry of the medium.
	ErrInodeShape = errors.New("inode has wrong pointer slot count")

	// ErrImageCorrupt occurs when an image file is structurally damaged and
	// cannot be decoded.
	ErrImageCorrupt = errors.New("image file is corrupt")

	// ErrImageMagic occurs when a file is not a disk image at all.
	ErrImageMagic = errors.New("image file has wrong magic")

	// ErrImageVersion occurs when an image file was written by an
	// incompatible format version.
	ErrImageVersion = errors.New("image file has unsupported version")

	// ErrImageChecksum occurs when the content of an image file does not
	// match its checksum trailer.
	ErrImageChecksum = errors.New("image checksum mismatch")

	// ErrNameLength occurs when a file name exceeds what the image encoding
	// can represent.
	ErrNameLength = errors.New("file name too long for image encoding")

	// ErrNotEnoughSpace occurs when the host filesystem cannot hold the
	// image file about to be written.
	ErrNotEnoughSpace = errors.New("not enough free space on host filesystem")
)
