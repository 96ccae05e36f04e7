//go:build !linux

package dma

import (
	"unsafe"
)

const pageSize = 4096

// allocate falls back to the Go heap. The slice is re-sliced to start on a
// page boundary so alignment guarantees match the mmap backed arena.
func allocate(size int) ([]byte, func() error, error) {
	raw := make([]byte, size+pageSize)
	off := 0
	if rem := uintptr(unsafe.Pointer(&raw[0])) % pageSize; rem != 0 {
		off = int(pageSize - rem)
	}
	return raw[off : off+size : off+size], nil, nil
}
