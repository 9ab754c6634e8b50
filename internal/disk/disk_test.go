package disk

import (
	"bytes"
	"testing"

	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() schema.Geometry {
	return schema.Geometry{
		InodeCount:       4,
		BlockCount:       16,
		BlockSize:        32,
		PointersPerInode: 4,
	}
}

// TestNew_Success tests the disk factory function.
func TestNew_Success(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, testGeometry(), d.Geometry())

	bits, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 2), bits, "a fresh disk should have an all-clear bitmap")
}

// TestNew_Fail_Geometry tests rejection of unusable dimensions.
func TestNew_Fail_Geometry(t *testing.T) {
	t.Parallel()

	geo := testGeometry()
	geo.BlockSize = 0

	_, err := New(geo)
	require.ErrorIs(t, err, schema.ErrBlockSizeInvalid)
}

// TestInodeRoundTrip_Success tests persisting and reading back an inode.
func TestInodeRoundTrip_Success(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	ino := schema.NewInode(testGeometry())
	ino.State = schema.InodeInUse
	ino.Name = "a.txt"
	ino.Size = 5
	ino.SetBlockPointer(0, 3)

	require.NoError(t, d.WriteInode(ino, 2))

	got, err := d.ReadInode(2)
	require.NoError(t, err)
	assert.Equal(t, ino, got)

	// Mutations after the write must not reach the medium.
	ino.Name = "changed"
	got, err = d.ReadInode(2)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Name)

	// Mutations of the read copy must not reach the medium either.
	got.Name = "changed"
	again, err := d.ReadInode(2)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", again.Name)
}

// TestInodeAccess_Fail tests the inode persistence failure paths.
func TestInodeAccess_Fail(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	t.Run("Fail_ReadOutOfRange", func(t *testing.T) {
		_, err := d.ReadInode(4)
		require.ErrorIs(t, err, ErrInodeIndexRange)

		_, err = d.ReadInode(-1)
		require.ErrorIs(t, err, ErrInodeIndexRange)
	})

	t.Run("Fail_WriteOutOfRange", func(t *testing.T) {
		err := d.WriteInode(schema.NewInode(testGeometry()), 4)
		require.ErrorIs(t, err, ErrInodeIndexRange)
	})

	t.Run("Fail_WriteNil", func(t *testing.T) {
		err := d.WriteInode(nil, 0)
		require.ErrorIs(t, err, ErrNilInode)
	})

	t.Run("Fail_WriteWrongShape", func(t *testing.T) {
		ino := schema.NewInode(testGeometry())
		ino.Pointers = append(ino.Pointers, schema.UnusedPointer)

		err := d.WriteInode(ino, 0)
		require.ErrorIs(t, err, ErrInodeShape)
	})
}

// TestBlockRoundTrip_Success tests persisting and reading back raw blocks.
func TestBlockRoundTrip_Success(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	data := []byte("hello")
	require.NoError(t, d.WriteBlock(data, 7))

	got, err := d.ReadBlock(7)
	require.NoError(t, err)
	require.Len(t, got, 32, "a read block should always have full block length")

	assert.Equal(t, []byte("hello"), got[:5])
	assert.Equal(t, make([]byte, 27), got[5:], "short writes should be zero-padded")

	// Overwrites replace the whole block, including old padding bytes.
	require.NoError(t, d.WriteBlock([]byte("hi"), 7))

	got, err = d.ReadBlock(7)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got[:2])
	assert.Equal(t, make([]byte, 30), got[2:])
}

// TestBlockAccess_Fail tests the block persistence failure paths.
func TestBlockAccess_Fail(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	t.Run("Fail_ReadOutOfRange", func(t *testing.T) {
		_, err := d.ReadBlock(16)
		require.ErrorIs(t, err, ErrBlockIndexRange)
	})

	t.Run("Fail_WriteOutOfRange", func(t *testing.T) {
		err := d.WriteBlock([]byte("x"), -1)
		require.ErrorIs(t, err, ErrBlockIndexRange)
	})

	t.Run("Fail_WriteTooLarge", func(t *testing.T) {
		err := d.WriteBlock(bytes.Repeat([]byte("x"), 33), 0)
		require.ErrorIs(t, err, ErrBlockTooLarge)
	})
}

// TestBitmapRoundTrip_Success tests whole-bitmap persistence.
func TestBitmapRoundTrip_Success(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	bits := []byte{0b00000101, 0b00000000}
	require.NoError(t, d.WriteBitmap(bits))

	got, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, bits, got)

	// Mutations of the read copy must not reach the medium.
	got[0] = 0xFF
	again, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, bits, again)
}

// TestWriteBitmap_Fail_Length tests rejection of a wrongly sized bitmap.
func TestWriteBitmap_Fail_Length(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	err = d.WriteBitmap([]byte{0x00})
	require.ErrorIs(t, err, ErrBitmapLength)
}

// TestFormat_Success tests that formatting resets all state of the medium.
func TestFormat_Success(t *testing.T) {
	t.Parallel()

	d, err := New(testGeometry())
	require.NoError(t, err)

	ino := schema.NewInode(testGeometry())
	ino.State = schema.InodeInUse
	ino.Name = "a.txt"

	require.NoError(t, d.WriteInode(ino, 0))
	require.NoError(t, d.WriteBlock([]byte("data"), 0))
	require.NoError(t, d.WriteBitmap([]byte{0x01, 0x00}))

	require.NoError(t, d.Format())

	got, err := d.ReadInode(0)
	require.NoError(t, err)
	assert.False(t, got.InUse())

	block, err := d.ReadBlock(0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 32), block)

	bits, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 2), bits)
}
