package store

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/blockfs/internal/schema"
)

// Create claims an inode slot for a new file and returns its table index as
// an open descriptor. The inode table is scanned in full: a live inode
// already carrying the name fails with [ErrDuplicateName], otherwise the
// first unused slot encountered is claimed and persisted. No data blocks are
// allocated until the first [Store.Write].
//
// When every slot is in use, Create fails with [ErrTableFull].
func (s *Store) Create(name string) (int, error) {
	if err := validateName(name); err != nil {
		return DescriptorNotFound, err
	}

	geo := s.medium.Geometry()

	claimed := DescriptorNotFound
	for i := 0; i < geo.InodeCount; i++ {
		ino, err := s.medium.ReadInode(i)
		if err != nil {
			return DescriptorNotFound, fmt.Errorf("(store) failed to read inode %d: %w", i, err)
		}

		if ino.InUse() {
			if ino.Name == name {
				return DescriptorNotFound, fmt.Errorf("(store) %q: %w", name, ErrDuplicateName)
			}

			continue
		}

		if claimed == DescriptorNotFound {
			claimed = i
		}
	}

	if claimed == DescriptorNotFound {
		return DescriptorNotFound, fmt.Errorf("(store) %q: %w", name, ErrTableFull)
	}

	ino := schema.NewInode(geo)
	ino.State = schema.InodeInUse
	ino.Name = name

	if err := s.medium.WriteInode(ino, claimed); err != nil {
		return DescriptorNotFound, fmt.Errorf("(store) failed to persist inode %d: %w", claimed, err)
	}

	s.handles[claimed] = ino

	slog.Debug("Created file",
		"name", name,
		"inode", claimed,
	)

	return claimed, nil
}

// Open makes an existing file available for reading and writing and returns
// its table index as an open descriptor. The inode is re-read from the
// medium, so a stale snapshot from an earlier descriptor is never revived.
//
// When no file carries the name, Open returns [DescriptorNotFound] and no
// error; the caller must check for the sentinel.
func (s *Store) Open(name string) (int, error) {
	index, ino, err := s.findByName(name)
	if err != nil {
		return DescriptorNotFound, err
	}

	if index == DescriptorNotFound {
		return DescriptorNotFound, nil
	}

	s.handles[index] = ino

	slog.Debug("Opened file",
		"name", name,
		"inode", index,
	)

	return index, nil
}

// Close persists the open file's inode snapshot back to the medium and
// releases the descriptor. A descriptor that does not map to an open file
// fails with [ErrDescriptorMismatch].
func (s *Store) Close(descriptor int) error {
	ino, ok := s.handles[descriptor]
	if !ok {
		return fmt.Errorf("(store) descriptor %d: %w", descriptor, ErrDescriptorMismatch)
	}

	if err := s.medium.WriteInode(ino, descriptor); err != nil {
		return fmt.Errorf("(store) failed to persist inode %d: %w", descriptor, err)
	}

	delete(s.handles, descriptor)

	slog.Debug("Closed file",
		"name", ino.Name,
		"inode", descriptor,
	)

	return nil
}

// Delete removes the file carrying the given name: all its data blocks are
// released back to the bitmap, the inode slot returns to unused and a
// descriptor open on the file is dropped. Deleting a name that does not
// exist fails with [ErrFileNotFound].
func (s *Store) Delete(name string) error {
	index, _, err := s.findByName(name)
	if err != nil {
		return err
	}

	if index == DescriptorNotFound {
		return fmt.Errorf("(store) %q: %w", name, ErrFileNotFound)
	}

	if err := s.alloc.DeallocateBlocksForFile(index); err != nil {
		return fmt.Errorf("(store) failed to release blocks of inode %d: %w", index, err)
	}

	ino, err := s.medium.ReadInode(index)
	if err != nil {
		return fmt.Errorf("(store) failed to read inode %d: %w", index, err)
	}

	ino.Reset()

	if err := s.medium.WriteInode(ino, index); err != nil {
		return fmt.Errorf("(store) failed to persist inode %d: %w", index, err)
	}

	delete(s.handles, index)

	slog.Debug("Deleted file",
		"name", name,
		"inode", index,
	)

	return nil
}
