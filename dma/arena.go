// Package dma provides memory that is shared with a DMA engine: one pinned,
// contiguous region, carved into aligned allocations that are addressed by
// 32-bit bus addresses.
package dma

import (
	"errors"
	"fmt"
)

var (
	// ErrArenaExhausted is returned when an allocation does not fit in the
	// remaining space of the arena.
	ErrArenaExhausted = errors.New("dma arena exhausted")

	// ErrBadAddress is returned when a bus address range does not lie within
	// the arena.
	ErrBadAddress = errors.New("bus address out of range")
)

// DefaultBase is the bus address of the first byte of an arena unless
// another base is requested.
const DefaultBase uint32 = 0x40000000

// Region is one allocation made from an [Arena].
type Region struct {
	// Bus is the address the DMA engine uses for the first byte of Bytes.
	Bus   uint32
	Bytes []byte
}

// Arena is a bump allocator over one contiguous, page aligned block of memory.
// Allocations are never freed individually; the whole arena is released by
// [Arena.Close]. Memory handed out by an arena never moves.
type Arena struct {
	mem     []byte
	base    uint32
	next    int
	release func() error
}

// NewArena reserves size bytes of DMA memory. The first byte is addressed by
// the DMA engine as base.
func NewArena(size int, base uint32) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid arena size %d", size)
	}
	if uint64(base)+uint64(size) > 1<<32 {
		return nil, fmt.Errorf("arena of %d bytes at %#x exceeds the 32-bit bus", size, base)
	}

	mem, release, err := allocate(size)
	if err != nil {
		return nil, fmt.Errorf("allocate dma memory: %w", err)
	}

	return &Arena{mem: mem, base: base, release: release}, nil
}

// Alloc carves size bytes aligned to align, which must be a power of 2.
func (a *Arena) Alloc(size, align int) (Region, error) {
	if size <= 0 {
		return Region{}, fmt.Errorf("invalid allocation size %d", size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return Region{}, fmt.Errorf("alignment %d is not a power of 2", align)
	}
	if a.mem == nil {
		return Region{}, errors.New("dma arena is closed")
	}

	off := (a.next + align - 1) &^ (align - 1)
	if off+size > len(a.mem) {
		return Region{}, fmt.Errorf("%w: %d bytes requested, %d free", ErrArenaExhausted, size, len(a.mem)-off)
	}

	a.next = off + size
	return Region{
		Bus:   a.base + uint32(off),
		Bytes: a.mem[off : off+size : off+size],
	}, nil
}

// Slice resolves a bus address range to the memory backing it. This is the
// view the DMA engine has of the arena.
func (a *Arena) Slice(bus uint32, n int) ([]byte, error) {
	if bus < a.base || n < 0 {
		return nil, fmt.Errorf("%w: %#x", ErrBadAddress, bus)
	}
	off := int(bus - a.base)
	if off+n > len(a.mem) {
		return nil, fmt.Errorf("%w: %#x+%d", ErrBadAddress, bus, n)
	}
	return a.mem[off : off+n : off+n], nil
}

// Base returns the bus address of the first byte of the arena.
func (a *Arena) Base() uint32 {
	return a.base
}

// Size returns the number of bytes reserved by the arena.
func (a *Arena) Size() int {
	return len(a.mem)
}

// Used returns the number of bytes allocated so far, including alignment
// padding.
func (a *Arena) Used() int {
	return a.next
}

// Close releases the memory. Regions handed out earlier must not be used
// afterwards.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	a.mem = nil
	a.next = 0
	if a.release != nil {
		return a.release()
	}
	return nil
}
