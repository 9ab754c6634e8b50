package schema

// InodeState tags the lifecycle state of an inode table slot.
type InodeState uint8

const (
	// InodeFree marks an inode table slot as unused and claimable.
	InodeFree InodeState = iota

	// InodeInUse marks an inode table slot as holding a live file.
	InodeInUse
)

const (
	// UnusedPointer is the sentinel value marking an unoccupied block
	// pointer slot within an [Inode].
	UnusedPointer int32 = -1

	// SizeUnset is the size of a file that has never been written to.
	SizeUnset int64 = -1

	// ChecksumLength is the byte length of a content checksum (BLAKE3-256).
	ChecksumLength = 32
)

// Inode is the principal metadata record for a single file: its name, its
// byte size, a checksum over its content and the ordered list of data blocks
// holding that content. Block pointers are contiguous from slot 0; the first
// [UnusedPointer] implies all later slots are unused as well.
//
// Identity of an [Inode] is its table index on the [Medium], not its value.
// Inodes are meant to be passed by reference (pointer) and are not
// thread-safe.
type Inode struct {
	// State tags the inode table slot as free or in use.
	State InodeState

	// Name is the file name, empty while the slot is free.
	Name string

	// Size is the byte length of the file, [SizeUnset] before first write.
	Size int64

	// Checksum is the BLAKE3-256 sum of the file content, all zero while
	// Size is [SizeUnset].
	Checksum [ChecksumLength]byte

	// Pointers holds the data block indices in content order, with
	// [UnusedPointer] filling all unoccupied slots.
	Pointers []int32
}

// NewInode returns a pointer to a new free [Inode] shaped for the given
// [Geometry].
func NewInode(geo Geometry) *Inode {
	ino := &Inode{
		Pointers: make([]int32, geo.PointersPerInode),
	}
	ino.Reset()

	return ino
}

// InUse returns whether the inode table slot holds a live file.
func (ino *Inode) InUse() bool {
	return ino.State == InodeInUse
}

// BlockPointer returns the block pointer at slot n.
func (ino *Inode) BlockPointer(n int) int32 {
	return ino.Pointers[n]
}

// SetBlockPointer sets the block pointer at slot n.
func (ino *Inode) SetBlockPointer(n int, ptr int32) {
	ino.Pointers[n] = ptr
}

// PointerCount returns the number of occupied block pointer slots. Pointers
// are contiguous from slot 0, so counting stops at the first
// [UnusedPointer].
func (ino *Inode) PointerCount() int {
	for n, ptr := range ino.Pointers {
		if ptr == UnusedPointer {
			return n
		}
	}

	return len(ino.Pointers)
}

// BlockPointers returns a copy of the occupied block pointer slots, in
// content order.
func (ino *Inode) BlockPointers() []int32 {
	count := ino.PointerCount()

	ptrs := make([]int32, count)
	copy(ptrs, ino.Pointers[:count])

	return ptrs
}

// HasChecksum returns whether a content checksum was recorded for the file.
func (ino *Inode) HasChecksum() bool {
	return ino.Checksum != [ChecksumLength]byte{}
}

// ClearContent releases all content metadata of the [Inode]: every pointer
// slot returns to [UnusedPointer], the size to [SizeUnset] and the checksum
// to zero. Name and state are left untouched.
func (ino *Inode) ClearContent() {
	for n := range ino.Pointers {
		ino.Pointers[n] = UnusedPointer
	}

	ino.Size = SizeUnset
	ino.Checksum = [ChecksumLength]byte{}
}

// Reset returns the [Inode] to its free state, clearing the name, the state
// tag and all content metadata.
func (ino *Inode) Reset() {
	ino.State = InodeFree
	ino.Name = ""
	ino.ClearContent()
}

// Clone returns a pointer to a deep copy of the [Inode].
func (ino *Inode) Clone() *Inode {
	clone := &Inode{
		State:    ino.State,
		Name:     ino.Name,
		Size:     ino.Size,
		Checksum: ino.Checksum,
		Pointers: make([]int32, len(ino.Pointers)),
	}
	copy(clone.Pointers, ino.Pointers)

	return clone
}
