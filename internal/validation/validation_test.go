package validation

import (
	"testing"

	"github.com/desertwitch/blockfs/internal/allocation"
	"github.com/desertwitch/blockfs/internal/disk"
	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/desertwitch/blockfs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() schema.Geometry {
	return schema.Geometry{
		InodeCount:       4,
		BlockCount:       8,
		BlockSize:        4,
		PointersPerInode: 3,
	}
}

func testMedium(t *testing.T) *disk.Disk {
	t.Helper()

	d, err := disk.New(testGeometry())
	require.NoError(t, err)

	return d
}

// populatedMedium returns a medium holding two healthy written files.
func populatedMedium(t *testing.T) *disk.Disk {
	t.Helper()

	d := testMedium(t)

	s, err := store.NewStore(d, allocation.NewHandler(d))
	require.NoError(t, err)

	fd, err := s.Create("a.txt")
	require.NoError(t, err)
	_, err = s.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	fd, err = s.Create("b.txt")
	require.NoError(t, err)
	_, err = s.Write(fd, []byte("world!"))
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	return d
}

func corruptInode(t *testing.T, d *disk.Disk, index int, mutate func(*schema.Inode)) {
	t.Helper()

	ino, err := d.ReadInode(index)
	require.NoError(t, err)

	mutate(ino)

	require.NoError(t, d.WriteInode(ino, index))
}

func findingErrors(report *Report) []error {
	errs := make([]error, 0, len(report.Findings))
	for _, f := range report.Findings {
		errs = append(errs, f.Err)
	}

	return errs
}

// TestVerifyMedium_Success tests a healthy medium passing without findings.
func TestVerifyMedium_Success(t *testing.T) {
	t.Parallel()

	d := populatedMedium(t)

	report, err := NewHandler(d).VerifyMedium()
	require.NoError(t, err)
	assert.True(t, report.Clean(), "a healthy medium should yield no findings: %v", report.Findings)
	assert.Equal(t, testGeometry().InodeCount, report.InodesChecked)
	assert.Equal(t, testGeometry().BlockCount, report.BlocksChecked)
}

// TestVerifyMedium_Success_FreshMedium tests a formatted, empty medium.
func TestVerifyMedium_Success_FreshMedium(t *testing.T) {
	t.Parallel()

	d := testMedium(t)

	report, err := NewHandler(d).VerifyMedium()
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

// TestVerifyMedium_Findings tests the detection of every structural
// invariant violation.
func TestVerifyMedium_Findings(t *testing.T) {
	t.Parallel()

	t.Run("DuplicateInodeName", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 1, func(ino *schema.Inode) {
			ino.Name = "a.txt"
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrDuplicateInodeName)
	})

	t.Run("InodeUnnamed", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			ino.Name = ""
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrInodeUnnamed)
	})

	t.Run("FreeSlotNotEmpty", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			ino.State = schema.InodeFree
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrFreeSlotNotEmpty)
	})

	t.Run("BlockLeaked", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)

		bits, err := d.ReadBitmap()
		require.NoError(t, err)

		bits[0] |= 1 << 7 // block 7 is owned by no inode
		require.NoError(t, d.WriteBitmap(bits))

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrBlockLeaked)
	})

	t.Run("BlockNotMarked", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)

		bits, err := d.ReadBitmap()
		require.NoError(t, err)

		bits[0] &^= 1 << 0 // block 0 is owned but marked free
		require.NoError(t, d.WriteBitmap(bits))

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrBlockNotMarked)
	})

	t.Run("BlockMultiplyOwned", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 1, func(ino *schema.Inode) {
			ino.SetBlockPointer(0, 0) // block 0 belongs to inode 0
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrBlockMultiplyOwned)
	})

	t.Run("PointersNotContiguous", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			// The inode holds blocks 0 and 1; punching out the first
			// pointer slot leaves the second one dangling.
			ino.SetBlockPointer(0, schema.UnusedPointer)
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrPointersNotContiguous)
	})

	t.Run("PointerOutOfRange", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			ino.SetBlockPointer(0, 99)
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrPointerOutOfRange)
	})

	t.Run("SizeAllocationMismatch", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			ino.Size = 12 // needs 3 blocks, has 2
		})

		report, err := NewHandler(d).VerifyMedium()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrSizeAllocationMismatch)
	})
}

// TestVerifyContent_Success tests healthy content passing its checksums.
func TestVerifyContent_Success(t *testing.T) {
	t.Parallel()

	d := populatedMedium(t)

	report, err := NewHandler(d).VerifyContent()
	require.NoError(t, err)
	assert.True(t, report.Clean(), "healthy content should yield no findings: %v", report.Findings)
	assert.Equal(t, 4, report.BlocksChecked, "both files' blocks should have been read")
}

// TestVerifyContent_Findings tests the detection of content corruption.
func TestVerifyContent_Findings(t *testing.T) {
	t.Parallel()

	t.Run("ContentChecksum", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)

		ino, err := d.ReadInode(0)
		require.NoError(t, err)
		require.NotEmpty(t, ino.BlockPointers())

		require.NoError(t, d.WriteBlock([]byte("XXXX"), int(ino.BlockPointers()[0])))

		report, err := NewHandler(d).VerifyContent()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrContentChecksum)
	})

	t.Run("ContentUnreadable", func(t *testing.T) {
		t.Parallel()

		d := populatedMedium(t)
		corruptInode(t, d, 0, func(ino *schema.Inode) {
			ino.SetBlockPointer(0, 99)
		})

		report, err := NewHandler(d).VerifyContent()
		require.NoError(t, err)
		assert.Contains(t, findingErrors(report), ErrContentUnreadable)
	})
}

// TestFinding_String tests the human-readable finding formats.
func TestFinding_String(t *testing.T) {
	t.Parallel()

	f := Finding{Inode: 2, Block: -1, Err: ErrInodeUnnamed, Detail: "live inode carries no name"}
	assert.Contains(t, f.String(), "inode 2")

	f = Finding{Inode: -1, Block: 5, Err: ErrBlockLeaked, Detail: "marked allocated"}
	assert.Contains(t, f.String(), "block 5")
}
