package disk

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

const (
	// imageMagic identifies a file as a disk image.
	imageMagic = "BLOCKFS\x00"

	// imageVersion is the image format version written and accepted.
	imageVersion = uint16(1)

	imageFilePerms = os.FileMode(0o644)
)

// imageHeader is the fixed-size image file header following the magic bytes.
type imageHeader struct {
	Version          uint16
	InodeCount       uint32
	BlockCount       uint32
	BlockSize        uint32
	PointersPerInode uint32
}

type osProvider interface {
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

type unixProvider interface {
	Statfs(path string, buf *unix.Statfs_t) error
}

// Imager persists a whole [Disk] as a single checksummed image file on the
// host filesystem and reconstructs a [Disk] from such a file. The image is
// the magic bytes, an [imageHeader], the bitmap, the inode table and all raw
// blocks, followed by a BLAKE3 checksum trailer over everything before it.
type Imager struct {
	osHandler   osProvider
	unixHandler unixProvider
}

// NewImager returns a pointer to a new [Imager].
func NewImager(osHandler osProvider, unixHandler unixProvider) *Imager {
	return &Imager{
		osHandler:   osHandler,
		unixHandler: unixHandler,
	}
}

// Save writes the whole medium to path as an image file. The image is
// assembled and checksummed in memory, written to a temporary file and then
// renamed into place, so a failed save never clobbers an existing image. The
// host filesystem is checked for enough free space before any write.
func (im *Imager) Save(d *Disk, path string) error {
	var buf bytes.Buffer
	hasher := blake3.New()

	if err := encodeImage(io.MultiWriter(&buf, hasher), d); err != nil {
		return err
	}

	data := append(buf.Bytes(), hasher.Sum(nil)...)

	if err := im.hasSpaceFor(filepath.Dir(path), uint64(len(data))); err != nil {
		return err
	}

	tmpPath := path + ".tmp"

	var renameComplete bool
	defer func() {
		if !renameComplete {
			im.osHandler.Remove(tmpPath) //nolint:errcheck
		}
	}()

	f, err := im.osHandler.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, imageFilePerms)
	if err != nil {
		return fmt.Errorf("(disk-image) failed to open temporary file %s: %w", tmpPath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("(disk-image) failed to write image: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("(disk-image) failed to sync image: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("(disk-image) failed to close image: %w", err)
	}

	if err := im.osHandler.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("(disk-image) failed to rename temporary file to image file: %w", err)
	}

	renameComplete = true

	return nil
}

// Load reads an image file from path, verifies its checksum trailer and
// returns the reconstructed [Disk].
func (im *Imager) Load(path string) (*Disk, error) {
	f, err := im.osHandler.Open(path)
	if err != nil {
		return nil, fmt.Errorf("(disk-image) failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("(disk-image) failed to read image: %w", err)
	}

	if len(data) <= schema.ChecksumLength+len(imageMagic) {
		return nil, fmt.Errorf("(disk-image) %w: file too short", ErrImageCorrupt)
	}

	if string(data[:len(imageMagic)]) != imageMagic {
		return nil, fmt.Errorf("(disk-image) %w", ErrImageMagic)
	}

	payload := data[:len(data)-schema.ChecksumLength]
	trailer := data[len(data)-schema.ChecksumLength:]

	hasher := blake3.New()
	_, _ = hasher.Write(payload)

	contentSum := hex.EncodeToString(hasher.Sum(nil))
	trailerSum := hex.EncodeToString(trailer)

	if contentSum != trailerSum {
		return nil, fmt.Errorf("(disk-image) %w: %s (trailer) != %s (content)",
			ErrImageChecksum, trailerSum, contentSum)
	}

	return decodeImage(bytes.NewReader(payload))
}

// hasSpaceFor checks the host filesystem holding dir for enough free space.
func (im *Imager) hasSpaceFor(dir string, byteCount uint64) error {
	var stat unix.Statfs_t
	if err := im.unixHandler.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("(disk-image) failed to statfs %s: %w", dir, err)
	}

	var bsize uint64
	if stat.Bsize > 0 {
		bsize = uint64(stat.Bsize)
	}

	free := stat.Bavail * bsize
	if free < byteCount {
		return fmt.Errorf("(disk-image) %w: %d bytes needed, %d bytes free",
			ErrNotEnoughSpace, byteCount, free)
	}

	return nil
}

func encodeImage(w io.Writer, d *Disk) error {
	if _, err := w.Write([]byte(imageMagic)); err != nil {
		return fmt.Errorf("(disk-image) failed to write magic: %w", err)
	}

	hdr := imageHeader{
		Version:          imageVersion,
		InodeCount:       uint32(d.geo.InodeCount),
		BlockCount:       uint32(d.geo.BlockCount),
		BlockSize:        uint32(d.geo.BlockSize),
		PointersPerInode: uint32(d.geo.PointersPerInode),
	}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return fmt.Errorf("(disk-image) failed to write header: %w", err)
	}

	if _, err := w.Write(d.bits); err != nil {
		return fmt.Errorf("(disk-image) failed to write bitmap: %w", err)
	}

	for index, ino := range d.inodes {
		if err := encodeInode(w, ino); err != nil {
			return fmt.Errorf("(disk-image) failed to write inode %d: %w", index, err)
		}
	}

	for index, block := range d.blocks {
		if _, err := w.Write(block); err != nil {
			return fmt.Errorf("(disk-image) failed to write block %d: %w", index, err)
		}
	}

	return nil
}

func encodeInode(w io.Writer, ino *schema.Inode) error {
	name := []byte(ino.Name)
	if len(name) > math.MaxUint16 {
		return fmt.Errorf("%w: %d bytes", ErrNameLength, len(name))
	}

	if err := binary.Write(w, binary.BigEndian, uint8(ino.State)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(name))); err != nil {
		return err
	}

	if _, err := w.Write(name); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, ino.Size); err != nil {
		return err
	}

	if _, err := w.Write(ino.Checksum[:]); err != nil {
		return err
	}

	return binary.Write(w, binary.BigEndian, ino.Pointers)
}

func decodeImage(r *bytes.Reader) (*Disk, error) {
	magic := make([]byte, len(imageMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("(disk-image) %w: missing magic", ErrImageCorrupt)
	}

	if string(magic) != imageMagic {
		return nil, fmt.Errorf("(disk-image) %w", ErrImageMagic)
	}

	var hdr imageHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("(disk-image) %w: short header", ErrImageCorrupt)
	}

	if hdr.Version != imageVersion {
		return nil, fmt.Errorf("(disk-image) %w: version %d", ErrImageVersion, hdr.Version)
	}

	geo := schema.Geometry{
		InodeCount:       int(hdr.InodeCount),
		BlockCount:       int(hdr.BlockCount),
		BlockSize:        int(hdr.BlockSize),
		PointersPerInode: int(hdr.PointersPerInode),
	}
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("(disk-image) %w", err)
	}

	// Reject absurd headers before any sizable allocation happens.
	if geo.TotalBytes() > int64(r.Len()) {
		return nil, fmt.Errorf("(disk-image) %w: header exceeds payload", ErrImageCorrupt)
	}

	d := &Disk{geo: geo}
	if err := d.Format(); err != nil {
		return nil, err
	}

	bits := make([]byte, geo.BitmapLength())
	if _, err := io.ReadFull(r, bits); err != nil {
		return nil, fmt.Errorf("(disk-image) %w: short bitmap", ErrImageCorrupt)
	}
	d.bits = bits

	for index := range d.inodes {
		ino, err := decodeInode(r, geo)
		if err != nil {
			return nil, fmt.Errorf("(disk-image) %w: inode %d", err, index)
		}
		d.inodes[index] = ino
	}

	for index := range d.blocks {
		if _, err := io.ReadFull(r, d.blocks[index]); err != nil {
			return nil, fmt.Errorf("(disk-image) %w: short block %d", ErrImageCorrupt, index)
		}
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("(disk-image) %w: trailing data", ErrImageCorrupt)
	}

	return d, nil
}

func decodeInode(r *bytes.Reader, geo schema.Geometry) (*schema.Inode, error) {
	var state uint8
	if err := binary.Read(r, binary.BigEndian, &state); err != nil {
		return nil, ErrImageCorrupt
	}

	if state > uint8(schema.InodeInUse) {
		return nil, ErrImageCorrupt
	}

	var nameLen uint16
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, ErrImageCorrupt
	}

	if int(nameLen) > r.Len() {
		return nil, ErrImageCorrupt
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrImageCorrupt
	}

	ino := schema.NewInode(geo)
	ino.State = schema.InodeState(state)
	ino.Name = string(name)

	if err := binary.Read(r, binary.BigEndian, &ino.Size); err != nil {
		return nil, ErrImageCorrupt
	}

	if _, err := io.ReadFull(r, ino.Checksum[:]); err != nil {
		return nil, ErrImageCorrupt
	}

	if err := binary.Read(r, binary.BigEndian, ino.Pointers); err != nil {
		return nil, ErrImageCorrupt
	}

	return ino, nil
}
