package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreate_Success tests claiming the first unused inode slot for a new
// file.
func TestCreate_Success(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, fd, "the first unused slot should be claimed")
	assert.True(t, s.IsOpen(fd), "a created file should be open")

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.True(t, ino.InUse())
	assert.Equal(t, "a.txt", ino.Name)
	assert.Equal(t, schema.SizeUnset, ino.Size, "a created file should have no content yet")
	assert.Empty(t, ino.BlockPointers(), "no blocks should be allocated before the first write")
}

// TestCreate_Fail_DuplicateName tests that a name can exist only once, even
// with an unused slot ahead of the match.
func TestCreate_Fail_DuplicateName(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	_, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Create("a.txt")
	require.ErrorIs(t, err, ErrDuplicateName)

	// Free slot 0, leaving the duplicate at a later index.
	_, err = s.Create("b.txt")
	require.NoError(t, err)
	require.NoError(t, s.Delete("a.txt"))

	_, err = s.Create("b.txt")
	require.ErrorIs(t, err, ErrDuplicateName, "the scan must cover the full table before claiming")
}

// TestCreate_Fail_TableFull tests exhausting the inode table.
func TestCreate_Fail_TableFull(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	for i := 0; i < testGeometry().InodeCount; i++ {
		_, err := s.Create(fmt.Sprintf("file-%d.txt", i))
		require.NoError(t, err)
	}

	_, err := s.Create("one-too-many.txt")
	require.ErrorIs(t, err, ErrTableFull)
}

// TestCreate_Fail_InvalidName tests the file name bounds.
func TestCreate_Fail_InvalidName(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	_, err := s.Create("")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Create(strings.Repeat("x", maxNameLength+1))
	require.ErrorIs(t, err, ErrInvalidName)
}

// TestOpen_Success tests opening an existing file by name.
func TestOpen_Success(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	created, err := s.Create("a.txt")
	require.NoError(t, err)
	require.NoError(t, s.Close(created))

	fd, err := s.Open("a.txt")
	require.NoError(t, err)
	assert.Equal(t, created, fd, "the descriptor should equal the inode table index")
	assert.True(t, s.IsOpen(fd))
}

// TestOpen_NotFound tests the sentinel descriptor for a missing name.
func TestOpen_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	fd, err := s.Open("missing")
	require.NoError(t, err, "a missing name is a sentinel, not an error")
	assert.Equal(t, DescriptorNotFound, fd)
}

// TestClose_Success tests persisting and releasing an open descriptor.
func TestClose_Success(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	require.NoError(t, s.Close(fd))
	assert.False(t, s.IsOpen(fd))

	err = s.Close(fd)
	require.ErrorIs(t, err, ErrDescriptorMismatch, "a released descriptor should not close twice")
}

// TestClose_Fail_DescriptorMismatch tests closing a descriptor that was
// never opened.
func TestClose_Fail_DescriptorMismatch(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	err := s.Close(2)
	require.ErrorIs(t, err, ErrDescriptorMismatch)
}

// TestDelete_Success tests releasing a file's slot and blocks.
func TestDelete_Success(t *testing.T) {
	t.Parallel()

	s, d := testStore(t)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)

	_, err = s.Write(fd, []byte("hello world"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("a.txt"))
	assert.False(t, s.IsOpen(fd), "deleting an open file should drop its descriptor")

	ino, err := d.ReadInode(fd)
	require.NoError(t, err)
	assert.False(t, ino.InUse(), "the slot should be reusable")
	assert.Empty(t, ino.Name)
	assert.Equal(t, schema.SizeUnset, ino.Size)
	assert.Empty(t, ino.BlockPointers())

	bits, err := d.ReadBitmap()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), bits[0], "all blocks should have been released")

	assertConsistent(t, d)
}

// TestDelete_Fail_FileNotFound tests deleting a name that does not exist.
func TestDelete_Fail_FileNotFound(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	err := s.Delete("missing")
	require.ErrorIs(t, err, ErrFileNotFound)
}

// TestLifecycle_NameUniqueness tests that create and delete sequences never
// produce two live files with the same name.
func TestLifecycle_NameUniqueness(t *testing.T) {
	t.Parallel()

	s, _ := testStore(t)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		fd, err := s.Create(name)
		require.NoError(t, err)
		require.NoError(t, s.Close(fd))
	}

	require.NoError(t, s.Delete("b.txt"))

	fd, err := s.Create("b.txt")
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	_, err = s.Create("b.txt")
	require.ErrorIs(t, err, ErrDuplicateName)

	files, err := s.Files()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, f := range files {
		assert.False(t, seen[f.Name], "name %q must be unique across the table", f.Name)
		seen[f.Name] = true
	}
}
