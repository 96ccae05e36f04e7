package mac

import (
	"fmt"
	"sync/atomic"

	"github.com/slackhq/enet/hw"
)

// ring is a fixed set of descriptors and their buffers, both carved from DMA
// memory once, plus the index of the next descriptor software will service.
type ring struct {
	descs []hw.Descriptor
	bufs  [][]byte
	addrs []uint32
	base  uint32

	bufSize int
	rx      bool

	// cursor is only advanced by the task that owns the ring. It is atomic
	// because the transmit interrupt handler peeks at it.
	cursor atomic.Uint32
}

func newRing(mem Memory, n, bufSize int, rx bool) (*ring, error) {
	dr, err := mem.Alloc(n*hw.DescriptorSize, hw.DescriptorAlignment)
	if err != nil {
		return nil, fmt.Errorf("allocate descriptors: %w", err)
	}

	br, err := mem.Alloc(n*bufSize, hw.DescriptorAlignment)
	if err != nil {
		return nil, fmt.Errorf("allocate buffers: %w", err)
	}

	r := &ring{
		descs:   hw.Descriptors(dr.Bytes, n),
		bufs:    make([][]byte, n),
		addrs:   make([]uint32, n),
		base:    dr.Bus,
		bufSize: bufSize,
		rx:      rx,
	}

	for i := 0; i < n; i++ {
		off := i * bufSize
		r.bufs[i] = br.Bytes[off : off+bufSize : off+bufSize]
		r.addrs[i] = br.Bus + uint32(off)
	}

	return r, nil
}

func (r *ring) size() int {
	return len(r.descs)
}

func (r *ring) isLast(i uint32) bool {
	return int(i) == len(r.descs)-1
}

// init resets every descriptor and the cursor. Receive descriptors are handed
// to the DMA engine, transmit descriptors stay with software.
func (r *ring) init() {
	for i := range r.descs {
		d := &r.descs[i]
		d.Clear()
		d.SetAddr(r.addrs[i])

		var status uint32
		if r.rx {
			d.SetWord(2, hw.RBD2_INT)
			status = hw.RBD0_E
		} else {
			d.SetWord(2, hw.TBD2_INT)
		}

		if r.isLast(uint32(i)) {
			// Same bit position for both rings
			status |= hw.RBD0_W
		}
		d.Publish(status)
	}

	r.cursor.Store(0)
}

func (r *ring) current() (uint32, *hw.Descriptor) {
	i := r.cursor.Load()
	return i, &r.descs[i]
}

// advance moves the cursor to the next descriptor and returns its index.
func (r *ring) advance() uint32 {
	next := (r.cursor.Load() + 1) % uint32(len(r.descs))
	r.cursor.Store(next)
	return next
}

func (r *ring) ownedByHardware(i uint32) bool {
	if r.rx {
		return r.descs[i].Status()&hw.RBD0_E != 0
	}
	return r.descs[i].Status()&hw.TBD0_R != 0
}
