// Package validation implements the integrity verification of a storage
// medium. It walks the inode table, the block pointers and the free-block
// bitmap and reports every violation of the structural invariants the file
// store maintains: unique names, unique block ownership, bitmap/inode
// agreement and contiguous pointer arrays. A deeper content pass verifies
// the recorded checksums of all file content.
package validation

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/blockfs/internal/bitmap"
	"github.com/desertwitch/blockfs/internal/schema"
)

type mediumProvider interface {
	Geometry() schema.Geometry
	ReadInode(index int) (*schema.Inode, error)
	ReadBlock(index int) ([]byte, error)
	ReadBitmap() ([]byte, error)
}

// Handler is the principal implementation of the medium verification.
//
// A [Handler] is meant to be passed by reference (pointer) and is not
// thread-safe.
type Handler struct {
	medium mediumProvider
}

// NewHandler returns a pointer to a new validation [Handler] operating on
// the given medium.
func NewHandler(medium mediumProvider) *Handler {
	return &Handler{
		medium: medium,
	}
}

// Finding is a single invariant violation discovered on the medium.
type Finding struct {
	// Inode is the affected inode table index, or -1 when the violation is
	// not bound to an inode.
	Inode int

	// Block is the affected block index, or -1 when the violation is not
	// bound to a block.
	Block int

	// Err is the sentinel classifying the violation.
	Err error

	// Detail carries the human-readable specifics of the violation.
	Detail string
}

// String implements the [fmt.Stringer] interface for a [Finding].
func (f Finding) String() string {
	switch {
	case f.Inode >= 0 && f.Block >= 0:
		return fmt.Sprintf("inode %d, block %d: %v (%s)", f.Inode, f.Block, f.Err, f.Detail)
	case f.Inode >= 0:
		return fmt.Sprintf("inode %d: %v (%s)", f.Inode, f.Err, f.Detail)
	case f.Block >= 0:
		return fmt.Sprintf("block %d: %v (%s)", f.Block, f.Err, f.Detail)
	default:
		return fmt.Sprintf("%v (%s)", f.Err, f.Detail)
	}
}

// Report is the outcome of a verification pass over a medium.
type Report struct {
	// Findings holds all discovered invariant violations, in discovery
	// order.
	Findings []Finding

	// InodesChecked is the number of inode table slots examined.
	InodesChecked int

	// BlocksChecked is the number of bitmap bits examined.
	BlocksChecked int
}

// Clean returns whether the verification pass discovered no violations.
func (r *Report) Clean() bool {
	return len(r.Findings) == 0
}

// record appends a finding to the report.
func (r *Report) record(inode int, block int, err error, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Inode:  inode,
		Block:  block,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	})
}

// VerifyMedium runs the structural verification pass: every inode table
// slot, every block pointer and every bitmap bit is checked against the
// invariants of the file store. The returned [Report] lists all violations;
// a non-nil error means the medium itself could not be examined.
func (h *Handler) VerifyMedium() (*Report, error) {
	geo := h.medium.Geometry()
	report := &Report{}

	owners := make(map[int32][]int)
	names := make(map[string]int)

	for i := 0; i < geo.InodeCount; i++ {
		ino, err := h.medium.ReadInode(i)
		if err != nil {
			return nil, fmt.Errorf("(validation) failed to read inode %d: %w", i, err)
		}

		report.InodesChecked++

		if !ino.InUse() {
			h.checkFreeSlot(report, ino, i)

			continue
		}

		h.checkName(report, ino, i, names)
		h.checkPointers(report, ino, i, owners)
		h.checkSize(report, ino, i)
	}

	for block, holders := range owners {
		if len(holders) > 1 {
			report.record(-1, int(block), ErrBlockMultiplyOwned, "referenced by inodes %v", holders)
		}
	}

	if err := h.checkBitmap(report, owners); err != nil {
		return nil, err
	}

	slog.Debug("Verified medium structure",
		"inodes", report.InodesChecked,
		"blocks", report.BlocksChecked,
		"findings", len(report.Findings),
	)

	return report, nil
}

// checkFreeSlot verifies that an unused inode slot carries no leftovers.
func (h *Handler) checkFreeSlot(report *Report, ino *schema.Inode, index int) {
	if ino.Name != "" {
		report.record(index, -1, ErrFreeSlotNotEmpty, "unused slot carries name %q", ino.Name)
	}

	if ino.Size != schema.SizeUnset {
		report.record(index, -1, ErrFreeSlotNotEmpty, "unused slot carries size %d", ino.Size)
	}

	if ino.PointerCount() > 0 {
		report.record(index, -1, ErrFreeSlotNotEmpty, "unused slot carries %d block pointers", ino.PointerCount())
	}
}

// checkName verifies the presence and table-wide uniqueness of a live
// inode's name.
func (h *Handler) checkName(report *Report, ino *schema.Inode, index int, names map[string]int) {
	if ino.Name == "" {
		report.record(index, -1, ErrInodeUnnamed, "live inode carries no name")

		return
	}

	if first, ok := names[ino.Name]; ok {
		report.record(index, -1, ErrDuplicateInodeName, "name %q already carried by inode %d", ino.Name, first)

		return
	}

	names[ino.Name] = index
}

// checkPointers verifies the contiguity and block range of a live inode's
// pointer array and collects the block ownership map.
func (h *Handler) checkPointers(report *Report, ino *schema.Inode, index int, owners map[int32][]int) {
	geo := h.medium.Geometry()

	sentinelSeen := false
	for _, ptr := range ino.Pointers {
		if ptr == schema.UnusedPointer {
			sentinelSeen = true

			continue
		}

		if sentinelSeen {
			report.record(index, int(ptr), ErrPointersNotContiguous, "pointer to block %d follows an unused slot", ptr)
		}

		if ptr < 0 || int(ptr) >= geo.BlockCount {
			report.record(index, -1, ErrPointerOutOfRange, "pointer references block %d of %d", ptr, geo.BlockCount)

			continue
		}

		owners[ptr] = append(owners[ptr], index)
	}
}

// checkSize verifies that a live inode's recorded size agrees with its
// allocated block count.
func (h *Handler) checkSize(report *Report, ino *schema.Inode, index int) {
	geo := h.medium.Geometry()

	if ino.Size < 0 && ino.Size != schema.SizeUnset {
		report.record(index, -1, ErrSizeAllocationMismatch, "size %d is negative", ino.Size)

		return
	}

	expected := 0
	if ino.Size > 0 {
		expected = geo.BlocksForBytes(ino.Size)
	}

	if got := ino.PointerCount(); got != expected && ino.Size != schema.SizeUnset {
		report.record(index, -1, ErrSizeAllocationMismatch, "size %d needs %d blocks, %d allocated", ino.Size, expected, got)
	}

	if ino.Size == schema.SizeUnset && ino.PointerCount() > 0 {
		report.record(index, -1, ErrSizeAllocationMismatch, "unset size with %d blocks allocated", ino.PointerCount())
	}
}

// checkBitmap verifies that the free-block bitmap mirrors the collected
// inode ownership in both directions.
func (h *Handler) checkBitmap(report *Report, owners map[int32][]int) error {
	geo := h.medium.Geometry()

	bits, err := h.medium.ReadBitmap()
	if err != nil {
		return fmt.Errorf("(validation) failed to read bitmap: %w", err)
	}

	bm, err := loadBitmap(bits, geo.BlockCount)
	if err != nil {
		return err
	}

	for i := 0; i < geo.BlockCount; i++ {
		report.BlocksChecked++

		_, owned := owners[int32(i)]

		if bm.IsAllocated(i) && !owned {
			report.record(-1, i, ErrBlockLeaked, "marked allocated but referenced by no inode")
		}

		if !bm.IsAllocated(i) && owned {
			report.record(owners[int32(i)][0], i, ErrBlockNotMarked, "referenced by an inode but marked free")
		}
	}

	return nil
}

// loadBitmap deserializes raw bitmap bytes for verification.
func loadBitmap(bits []byte, blockCount int) (*bitmap.Bitmap, error) {
	bm, err := bitmap.Deserialize(bits, blockCount)
	if err != nil {
		return nil, fmt.Errorf("(validation) failed to deserialize bitmap: %w", err)
	}

	return bm, nil
}
