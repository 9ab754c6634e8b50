package store

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/zeebo/blake3"
)

// Write replaces the open file's content with data and returns the
// descriptor. A descriptor that does not map to an open file fails with
// [ErrDescriptorMismatch].
//
// Data is split into block-size chunks (the last chunk may be shorter) and
// written to the file's blocks in pointer order. A write sized to the same
// block count reuses the existing allocation in place; any other size
// reallocates first, within a single bitmap transaction. A failed
// reallocation leaves the previous content and allocation untouched.
//
// The recorded size and content checksum always reflect the new data.
func (s *Store) Write(descriptor int, data []byte) (int, error) {
	ino, ok := s.handles[descriptor]
	if !ok {
		return DescriptorNotFound, fmt.Errorf("(store) descriptor %d: %w", descriptor, ErrDescriptorMismatch)
	}

	geo := s.medium.Geometry()

	if geo.BlocksForBytes(int64(len(data))) != ino.PointerCount() {
		if _, err := s.alloc.AllocateBlocksForFile(descriptor, int64(len(data))); err != nil {
			return DescriptorNotFound, fmt.Errorf("(store) failed to allocate for inode %d: %w", descriptor, err)
		}
	}

	fresh, err := s.medium.ReadInode(descriptor)
	if err != nil {
		return DescriptorNotFound, fmt.Errorf("(store) failed to read inode %d: %w", descriptor, err)
	}

	for n, ptr := range fresh.BlockPointers() {
		start := n * geo.BlockSize

		end := start + geo.BlockSize
		if end > len(data) {
			end = len(data)
		}

		if err := s.medium.WriteBlock(data[start:end], int(ptr)); err != nil {
			return DescriptorNotFound, fmt.Errorf("(store) failed to write block %d: %w", ptr, err)
		}
	}

	fresh.Size = int64(len(data))
	fresh.Checksum = blake3.Sum256(data)

	if err := s.medium.WriteInode(fresh, descriptor); err != nil {
		return DescriptorNotFound, fmt.Errorf("(store) failed to persist inode %d: %w", descriptor, err)
	}

	s.handles[descriptor] = fresh

	slog.Debug("Wrote file",
		"name", fresh.Name,
		"inode", descriptor,
		"bytes", len(data),
		"blocks", fresh.PointerCount(),
	)

	return descriptor, nil
}

// Read returns the open file's content. A descriptor that does not map to
// an open file fails with [ErrDescriptorMismatch].
//
// Blocks are concatenated in pointer order and the result is trimmed to the
// recorded file size, so padding within the final block never leaks into the
// returned content. Content failing its checksum fails with
// [ErrChecksumMismatch].
func (s *Store) Read(descriptor int) ([]byte, error) {
	ino, ok := s.handles[descriptor]
	if !ok {
		return nil, fmt.Errorf("(store) descriptor %d: %w", descriptor, ErrDescriptorMismatch)
	}

	return s.readContent(ino)
}

// ReadIndex returns the content of the file at the given inode table index,
// bypassing the open descriptors. This is the raw maintenance read used by
// inspection tooling; regular consumers should pair [Store.Open] with
// [Store.Read] instead. An unused slot fails with [ErrFileNotFound].
func (s *Store) ReadIndex(index int) ([]byte, error) {
	ino, err := s.medium.ReadInode(index)
	if err != nil {
		return nil, fmt.Errorf("(store) failed to read inode %d: %w", index, err)
	}

	if !ino.InUse() {
		return nil, fmt.Errorf("(store) inode %d: %w", index, ErrFileNotFound)
	}

	return s.readContent(ino)
}

// readContent concatenates all blocks the inode references and trims the
// result to the recorded file size.
func (s *Store) readContent(ino *schema.Inode) ([]byte, error) {
	geo := s.medium.Geometry()

	if ino.Size <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, 0, ino.PointerCount()*geo.BlockSize)

	for _, ptr := range ino.BlockPointers() {
		block, err := s.medium.ReadBlock(int(ptr))
		if err != nil {
			return nil, fmt.Errorf("(store) failed to read block %d: %w", ptr, err)
		}

		buf = append(buf, block...)
	}

	if int64(len(buf)) > ino.Size {
		buf = buf[:ino.Size]
	}

	if ino.HasChecksum() {
		if sum := blake3.Sum256(buf); sum != ino.Checksum {
			return nil, fmt.Errorf("(store) %q: %w", ino.Name, ErrChecksumMismatch)
		}
	}

	return buf, nil
}
