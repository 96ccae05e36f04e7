//go:build linux

package dma

import (
	"golang.org/x/sys/unix"
)

// allocate maps anonymous memory so the arena lives outside the Go heap and
// starts on a page boundary.
func allocate(size int) ([]byte, func() error, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, nil, err
	}

	return mem, func() error { return unix.Munmap(mem) }, nil
}
