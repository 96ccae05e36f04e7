package hw

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// DescriptorSize is the size in bytes of one enhanced buffer descriptor.
const DescriptorSize = 32

// DescriptorAlignment is the alignment required for descriptor rings and
// buffers.
const DescriptorAlignment = 64

// Transmit descriptor word 0.
const (
	TBD0_R           uint32 = 0x80000000 // Ready, owned by the DMA engine
	TBD0_TO1         uint32 = 0x40000000
	TBD0_W           uint32 = 0x20000000 // Wrap
	TBD0_TO2         uint32 = 0x10000000
	TBD0_L           uint32 = 0x08000000 // Last buffer of the frame
	TBD0_TC          uint32 = 0x04000000 // Transmit CRC
	TBD0_ABC         uint32 = 0x02000000
	TBD0_DATA_LENGTH uint32 = 0x0000FFFF
)

// Transmit descriptor word 2.
const (
	TBD2_INT uint32 = 0x40000000
	TBD2_TS  uint32 = 0x20000000
)

// Transmit descriptor word 4.
const TBD4_BDU uint32 = 0x80000000

// Receive descriptor word 0.
const (
	RBD0_E           uint32 = 0x80000000 // Empty, owned by the DMA engine
	RBD0_RO1         uint32 = 0x40000000
	RBD0_W           uint32 = 0x20000000 // Wrap
	RBD0_RO2         uint32 = 0x10000000
	RBD0_L           uint32 = 0x08000000 // Last buffer of the frame
	RBD0_M           uint32 = 0x01000000 // Promiscuous miss
	RBD0_BC          uint32 = 0x00800000
	RBD0_MC          uint32 = 0x00400000
	RBD0_LG          uint32 = 0x00200000 // Frame length violation
	RBD0_NO          uint32 = 0x00100000 // Non-octet aligned frame
	RBD0_CR          uint32 = 0x00040000 // CRC error
	RBD0_OV          uint32 = 0x00020000 // FIFO overrun
	RBD0_TR          uint32 = 0x00010000 // Truncated
	RBD0_DATA_LENGTH uint32 = 0x0000FFFF

	// RBD0_ERRORS is every status bit that invalidates a received frame.
	RBD0_ERRORS = RBD0_LG | RBD0_NO | RBD0_CR | RBD0_OV | RBD0_TR
)

// Receive descriptor word 2.
const RBD2_INT uint32 = 0x00800000

// Receive descriptor word 4.
const RBD4_BDU uint32 = 0x80000000

// Descriptor is one enhanced buffer descriptor as laid out in DMA memory.
//
// Word 0 carries the ownership bit. Every word is accessed atomically so that
// a store to word 0 publishes all prior writes to the descriptor and its
// buffer, and a load of word 0 that observes a change of ownership makes them
// visible to the reader.
type Descriptor struct {
	words [8]uint32
}

// Status loads word 0.
func (d *Descriptor) Status() uint32 {
	return atomic.LoadUint32(&d.words[0])
}

// Publish stores word 0. It must be the last write made before handing the
// descriptor to the other side.
func (d *Descriptor) Publish(status uint32) {
	atomic.StoreUint32(&d.words[0], status)
}

// Addr returns the bus address of the buffer.
func (d *Descriptor) Addr() uint32 {
	return atomic.LoadUint32(&d.words[1])
}

func (d *Descriptor) SetAddr(addr uint32) {
	atomic.StoreUint32(&d.words[1], addr)
}

// Word loads any word of the descriptor.
func (d *Descriptor) Word(i int) uint32 {
	return atomic.LoadUint32(&d.words[i])
}

func (d *Descriptor) SetWord(i int, v uint32) {
	atomic.StoreUint32(&d.words[i], v)
}

// Clear zeroes every word, word 0 last.
func (d *Descriptor) Clear() {
	for i := len(d.words) - 1; i >= 0; i-- {
		atomic.StoreUint32(&d.words[i], 0)
	}
}

// Descriptors overlays n descriptors on mem, which must be exactly
// n*DescriptorSize bytes and suitably aligned.
func Descriptors(mem []byte, n int) []Descriptor {
	if n <= 0 || len(mem) != n*DescriptorSize {
		panic(fmt.Sprintf("memory size (%d) does not match %d descriptors", len(mem), n))
	}
	if uintptr(unsafe.Pointer(&mem[0]))%4 != 0 {
		panic("descriptor memory is not word aligned")
	}
	return unsafe.Slice((*Descriptor)(unsafe.Pointer(&mem[0])), n)
}
