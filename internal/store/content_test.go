package store

import (
	"bytes"
	"testing"

	"github.com/desertwitch/blockfs/internal/allocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContent_Success_RoundTrip tests writing a file, reopening it and
// reading the identical content back.
func TestContent_Success_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data []byte
	}{
		{"PartialFinalBlock", []byte("hello")},
		{"BlockSizeMultiple", []byte("12345678")},
		{"SingleByte", []byte{0x00}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, d := testStore(t)

			fd, err := s.Create("a.txt")
			require.NoError(t, err)

			written, err := s.Write(fd, tc.data)
			require.NoError(t, err)
			assert.Equal(t, fd, written, "a write should echo the descriptor")

			require.NoError(t, s.Close(fd))

			fd, err = s.Open("a.txt")
			require.NoError(t, err)
			require.NotEqual(t, DescriptorNotFound, fd)

			content, err := s.Read(fd)
			require.NoError(t, err)
			assert.Equal(t, tc.data, content, "content should round trip without padding")

			assertConsistent(t, d)
		})
	}
}

// TestWrite_Success_SameSizeRewrite tests that a rewrite within the same
// block count reuses the allocation in place.
func TestWrite_Success_SameSizeRewrite(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("123456789"))
	require.NoError(t, err)

	before, err := d.ReadInode(fd)
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("abcdefghijkl"))
	require.NoError(t, err)

	after, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.Equal(t, before.BlockPointers(), after.BlockPointers(), "a same-sized rewrite should keep its blocks")
	assert.Equal(t, int64(12), after.Size)

	content, err := s.Read(fd)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefghijkl"), content)
}

// TestWrite_Success_Reallocation tests growing and shrinking a file across
// block count boundaries.
func TestWrite_Success_Reallocation(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("grow"))
	require.NoError(t, err)

	grown := bytes.Repeat([]byte("x"), 12)

	_, err = s.Write(fd, grown)
	require.NoError(t, err)

	content, err := s.Read(fd)
	require.NoError(t, err)
	assert.Equal(t, grown, content)

	_, err = s.Write(fd, []byte("tiny"))
	require.NoError(t, err)

	content, err = s.Read(fd)
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), content)

	assertConsistent(t, d)
}

// TestWrite_Success_EmptyData tests truncating a file to zero bytes.
func TestWrite_Success_EmptyData(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("hello"))
	require.NoError(t, err)

	_, err = s.Write(fd, []byte{})
	require.NoError(t, err)

	content, err := s.Read(fd)
	require.NoError(t, err)
	assert.Empty(t, content)

	bits, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), bits[0], "truncating to zero should release all blocks")

	assertConsistent(t, d)
}

// TestWrite_Fail_DescriptorMismatch tests writing through a descriptor that
// is not open.
func TestWrite_Fail_DescriptorMismatch(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	_, err = s.Write(fd, []byte("hello"))
	require.ErrorIs(t, err, ErrDescriptorMismatch, "a closed descriptor should not write")

	_, err = s.Write(99, []byte("hello"))
	require.ErrorIs(t, err, ErrDescriptorMismatch)
}

// TestWrite_Fail_FileTooLarge tests that an oversized write leaves the
// medium untouched.
func TestWrite_Fail_FileTooLarge(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	// 13 bytes need 4 blocks, one more than an inode can hold.
	_, err = s.Write(fd, bytes.Repeat([]byte("x"), 13))
	require.ErrorIs(t, err, allocation.ErrFileTooLarge)

	bits, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), bits[0], "a failed write should leave the bitmap unchanged")

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.Empty(t, ino.BlockPointers(), "a failed write should leave the inode without pointers")
}

// TestWrite_Fail_InsufficientSpace tests that a write onto a full medium
// fails without the inode acquiring pointers.
func TestWrite_Fail_InsufficientSpace(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	require.NoError(t, d.WriteBitmap([]byte{0xFF}))

	_, err = s.Write(fd, []byte("hello"))
	require.ErrorIs(t, err, allocation.ErrInsufficientSpace)

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.Empty(t, ino.BlockPointers())
}

// TestWrite_Success_BlockReuse tests that deleted files hand their exact
// block indices to the next allocation, lowest first.
func TestWrite_Success_BlockReuse(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)
	_, err = s.Write(fd, []byte("12345678"))
	require.NoError(t, err)

	fd, err = s.Create("b.txt")
	require.NoError(t, err)
	_, err = s.Write(fd, []byte("1234"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("a.txt"))

	fd, err = s.Create("c.txt")
	require.NoError(t, err)
	_, err = s.Write(fd, []byte("hello"))
	require.NoError(t, err)

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1}, ino.BlockPointers(), "the freed lowest indices should be reassigned first")

	content, err := s.Read(fd)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)

	assertConsistent(t, d)
}

// TestRead_Success_EmptyFile tests reading a file that was never written.
func TestRead_Success_EmptyFile(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	content, err := s.Read(fd)
	require.NoError(t, err)
	assert.Empty(t, content)
}

// TestRead_Fail_DescriptorMismatch tests reading through a descriptor that
// is not open.
func TestRead_Fail_DescriptorMismatch(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	_, err := s.Read(0)
	require.ErrorIs(t, err, ErrDescriptorMismatch)
}

// TestRead_Fail_ChecksumMismatch tests detecting content tampered with
// behind the store's back.
func TestRead_Fail_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("hello world"))
	require.NoError(t, err)

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	require.NotEmpty(t, ino.BlockPointers())

	require.NoError(t, d.WriteBlock([]byte("XXXX"), int(ino.BlockPointers()[0])))

	_, err = s.Read(fd)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

// TestReadIndex_Success tests the raw maintenance read by inode table
// index, bypassing descriptors.
func TestReadIndex_Success(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	content, err := s.ReadIndex(fd)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content, "a raw read should not require an open descriptor")
}

// TestReadIndex_Fail tests raw reads of unused and out-of-range slots.
func TestReadIndex_Fail(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	_, err := s.ReadIndex(0)
	require.ErrorIs(t, err, ErrFileNotFound, "an unused slot holds no file")

	_, err = s.ReadIndex(99)
	require.Error(t, err, "an out-of-range index should surface the medium error")
}
