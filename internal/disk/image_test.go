package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeUnix implements unixProvider with a fixed free-space answer.
type fakeUnix struct {
	bavail uint64
	bsize  int64
}

func (f *fakeUnix) Statfs(path string, buf *unix.Statfs_t) error {
	buf.Bavail = f.bavail
	buf.Bsize = f.bsize

	return nil
}

func populatedDisk(t *testing.T) *Disk {
	t.Helper()

	d, err := New(testGeometry())
	require.NoError(t, err)

	ino := schema.NewInode(testGeometry())
	ino.State = schema.InodeInUse
	ino.Name = "a.txt"
	ino.Size = 5
	ino.SetBlockPointer(0, 3)

	require.NoError(t, d.WriteInode(ino, 1))
	require.NoError(t, d.WriteBlock([]byte("hello"), 3))
	require.NoError(t, d.WriteBitmap([]byte{0b00001000, 0x00}))

	return d
}

// TestImageRoundTrip_Success tests saving and loading a whole medium.
func TestImageRoundTrip_Success(t *testing.T) {
	t.Parallel()

	d := populatedDisk(t)
	path := filepath.Join(t.TempDir(), "test.img")

	im := NewImager(&schema.OS{}, &schema.Unix{})
	require.NoError(t, im.Save(d, path))

	loaded, err := im.Load(path)
	require.NoError(t, err)

	assert.Equal(t, d.Geometry(), loaded.Geometry())

	ino, err := loaded.ReadInode(1)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", ino.Name)
	assert.Equal(t, int64(5), ino.Size)
	assert.Equal(t, int32(3), ino.BlockPointer(0))

	block, err := loaded.ReadBlock(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), block[:5])

	bits, err := loaded.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, []byte{0b00001000, 0x00}, bits)
}

// TestImageSave_Success_Overwrite tests that saving replaces an existing
// image without leaving temporary files behind.
func TestImageSave_Success_Overwrite(t *testing.T) {
	t.Parallel()

	d := populatedDisk(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.img")

	im := NewImager(&schema.OS{}, &schema.Unix{})
	require.NoError(t, im.Save(d, path))
	require.NoError(t, im.Save(d, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.img", entries[0].Name())
}

// TestImageLoad_Fail_Checksum tests that a flipped content byte is caught.
func TestImageLoad_Fail_Checksum(t *testing.T) {
	t.Parallel()

	d := populatedDisk(t)
	path := filepath.Join(t.TempDir(), "test.img")

	im := NewImager(&schema.OS{}, &schema.Unix{})
	require.NoError(t, im.Save(d, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	data[len(data)/2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = im.Load(path)
	require.ErrorIs(t, err, ErrImageChecksum)
}

// TestImageLoad_Fail_Magic tests that a non-image file is rejected.
func TestImageLoad_Fail_Magic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))

	im := NewImager(&schema.OS{}, &schema.Unix{})

	_, err := im.Load(path)
	require.ErrorIs(t, err, ErrImageMagic)
}

// TestImageLoad_Fail_Truncated tests that a truncated file is rejected.
func TestImageLoad_Fail_Truncated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.img")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	im := NewImager(&schema.OS{}, &schema.Unix{})

	_, err := im.Load(path)
	require.ErrorIs(t, err, ErrImageCorrupt)
}

// TestImageSave_Fail_NoSpace tests the host free-space precheck.
func TestImageSave_Fail_NoSpace(t *testing.T) {
	t.Parallel()

	d := populatedDisk(t)
	path := filepath.Join(t.TempDir(), "test.img")

	im := NewImager(&schema.OS{}, &fakeUnix{bavail: 1, bsize: 512})

	err := im.Save(d, path)
	require.ErrorIs(t, err, ErrNotEnoughSpace)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no image should be written without enough space")
}
