package compute

import (
	"fmt"
	"strings"
)

// MemFlags is the access mode of a device buffer, seen from the kernel.
type MemFlags uint32

const (
	MemReadWrite MemFlags = 1 << iota
	MemWriteOnly
	MemReadOnly
	MemCopyHostPtr
)

const (
	// DefaultInputFlags are used by CreateBuffer when flags is zero.
	DefaultInputFlags = MemWriteOnly | MemCopyHostPtr
	// DefaultResultFlags are used by CreateResultBuffer when flags is zero.
	DefaultResultFlags = MemReadOnly
)

func (f MemFlags) String() string {
	var parts []string
	if f&MemReadWrite != 0 {
		parts = append(parts, "read-write")
	}
	if f&MemWriteOnly != 0 {
		parts = append(parts, "write-only")
	}
	if f&MemReadOnly != 0 {
		parts = append(parts, "read-only")
	}
	if f&MemCopyHostPtr != 0 {
		parts = append(parts, "copy-host-ptr")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Buffer is an owned device allocation. Close releases it exactly once.
type Buffer struct {
	raw   DriverBuffer
	flags MemFlags
	size  int
}

// Size returns the allocation size in bytes.
func (b *Buffer) Size() int { return b.size }

// Flags returns the access mode the buffer was created with.
func (b *Buffer) Flags() MemFlags { return b.flags }

// Released reports whether Close has been called.
func (b *Buffer) Released() bool { return b.raw == nil }

// Close releases the device allocation. A second call returns ErrReleased.
func (b *Buffer) Close() error {
	if b.raw == nil {
		return fmt.Errorf("buffer: %w", ErrReleased)
	}
	raw := b.raw
	b.raw = nil
	if err := raw.Release(); err != nil {
		return fmt.Errorf("release buffer: %w", err)
	}
	return nil
}
