package sim

import (
	"bytes"

	"github.com/slackhq/enet/hw"
)

var broadcast = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// descriptor resolves descriptor i of the ring starting at base. Requires d.mu.
func (d *Device) descriptor(base, i uint32) (*hw.Descriptor, bool) {
	if i >= d.maxRingLen {
		return nil, false
	}
	b, err := d.mem.Slice(base+i*hw.DescriptorSize, hw.DescriptorSize)
	if err != nil {
		return nil, false
	}
	return &hw.Descriptors(b, 1)[0], true
}

// ProcessTx walks the transmit ring from the DMA pointer, sending every ready
// descriptor until it finds one owned by software. It returns the number of
// frames sent.
func (d *Device) ProcessTx() int {
	d.mu.Lock()
	if !d.running() || d.regs[hw.TDAR] == 0 {
		d.mu.Unlock()
		return 0
	}

	var frames [][]byte
	for {
		desc, ok := d.descriptor(d.regs[hw.TDSR], d.txIdx)
		if !ok {
			d.busError()
			break
		}

		status := desc.Status()
		if status&hw.TBD0_R == 0 {
			break
		}

		n := int(status & hw.TBD0_DATA_LENGTH)
		buf, err := d.mem.Slice(desc.Addr(), n)
		if err != nil {
			d.busError()
			break
		}
		frame := bytes.Clone(buf)
		frames = append(frames, frame)
		d.countTx(frame)

		desc.SetWord(4, hw.TBD4_BDU)
		desc.Publish(status &^ hw.TBD0_R)

		if desc.Word(2)&hw.TBD2_INT != 0 {
			d.regs[hw.EIR] |= hw.EIR_TXF | hw.EIR_TXB
		}

		if status&hw.TBD0_W != 0 {
			d.txIdx = 0
		} else {
			d.txIdx++
		}
	}

	// Descriptor list exhausted
	d.regs[hw.TDAR] = 0
	d.mu.Unlock()

	for _, f := range frames {
		if d.backend == nil {
			continue
		}
		if err := d.backend.Transmit(f); err != nil {
			d.l.WithError(err).Warn("Backend failed to transmit frame")
		}
	}

	d.raise()
	return len(frames)
}

// countTx requires d.mu.
func (d *Device) countTx(frame []byte) {
	d.regs[hw.RMON_T_PACKETS]++
	d.regs[hw.IEEE_T_FRAME_OK]++
	d.regs[hw.RMON_T_OCTETS] += uint32(len(frame))
	if len(frame) >= 6 {
		if bytes.Equal(frame[:6], broadcast) {
			d.regs[hw.RMON_T_BC_PKT]++
		} else if frame[0]&0x01 != 0 {
			d.regs[hw.RMON_T_MC_PKT]++
		}
	}
}

// Inject delivers a frame from the wire to the receive DMA engine. It reports
// whether the frame was written to a descriptor.
func (d *Device) Inject(frame []byte) bool {
	return d.InjectStatus(frame, 0, 0)
}

// InjectStatus is Inject with receive status bits forced on (set) or off
// (clear) in the descriptor, used to produce damaged frames.
func (d *Device) InjectStatus(frame []byte, set, clear uint32) bool {
	d.mu.Lock()
	ok := d.receive(frame, set, clear)
	d.mu.Unlock()

	d.raise()
	return ok
}

// receive requires d.mu.
func (d *Device) receive(frame []byte, set, clear uint32) bool {
	if d.regs[hw.ECR]&hw.ECR_ETHEREN == 0 {
		return false
	}

	accept, flags := d.match(frame)
	if !accept {
		return false
	}

	if !d.running() || d.regs[hw.RDAR] == 0 {
		d.regs[hw.IEEE_R_DROP]++
		return false
	}

	desc, ok := d.descriptor(d.regs[hw.RDSR], d.rxIdx)
	if !ok {
		d.busError()
		return false
	}

	status := desc.Status()
	if status&hw.RBD0_E == 0 {
		// No empty descriptor, the receiver stops polling
		d.regs[hw.RDAR] = 0
		d.regs[hw.IEEE_R_DROP]++
		return false
	}

	wrap := status & hw.RBD0_W
	out := wrap | hw.RBD0_L | flags

	n := len(frame)
	if maxFL := hw.RCRMaxFrameLength(d.regs[hw.RCR]); uint32(n) > maxFL {
		out |= hw.RBD0_LG
		d.regs[hw.RMON_R_OVERSIZE]++
	}
	if mrbr := int(d.regs[hw.MRBR]); n > mrbr {
		out |= hw.RBD0_TR
		n = mrbr
	}

	buf, err := d.mem.Slice(desc.Addr(), n)
	if err != nil {
		d.busError()
		return false
	}
	copy(buf, frame[:n])

	out |= set
	out &^= clear
	out = (out &^ hw.RBD0_DATA_LENGTH) | uint32(n)

	desc.SetWord(4, hw.RBD4_BDU)
	desc.Publish(out &^ hw.RBD0_E)

	if wrap != 0 {
		d.rxIdx = 0
	} else {
		d.rxIdx++
	}

	d.regs[hw.RMON_R_PACKETS]++
	d.regs[hw.RMON_R_OCTETS] += uint32(n)
	switch {
	case flags&hw.RBD0_BC != 0:
		d.regs[hw.RMON_R_BC_PKT]++
	case flags&hw.RBD0_MC != 0:
		d.regs[hw.RMON_R_MC_PKT]++
	}
	if out&hw.RBD0_CR != 0 {
		d.regs[hw.IEEE_R_CRC]++
		d.regs[hw.RMON_R_CRC_ALIGN]++
	}
	if out&hw.RBD0_ERRORS == 0 {
		d.regs[hw.IEEE_R_FRAME_OK]++
	}

	if desc.Word(2)&hw.RBD2_INT != 0 {
		d.regs[hw.EIR] |= hw.EIR_RXF | hw.EIR_RXB
	}
	return true
}

// match applies destination address filtering. Requires d.mu.
func (d *Device) match(frame []byte) (bool, uint32) {
	if len(frame) < 6 {
		return false, 0
	}
	dst := frame[:6]
	prom := d.regs[hw.RCR]&hw.RCR_PROM != 0

	if bytes.Equal(dst, broadcast) {
		if d.regs[hw.RCR]&hw.RCR_BC_REJ != 0 && !prom {
			return false, 0
		}
		return true, hw.RBD0_BC
	}

	if dst[0]&0x01 != 0 {
		if hashHit(dst, d.regs[hw.GALR], d.regs[hw.GAUR]) {
			return true, hw.RBD0_MC
		}
		if prom {
			return true, hw.RBD0_MC | hw.RBD0_M
		}
		return false, 0
	}

	if bytes.Equal(dst, d.stationAddress()) {
		return true, 0
	}
	if hashHit(dst, d.regs[hw.IALR], d.regs[hw.IAUR]) {
		return true, 0
	}
	if prom {
		return true, hw.RBD0_M
	}
	return false, 0
}

// stationAddress requires d.mu.
func (d *Device) stationAddress() []byte {
	lower := d.regs[hw.PALR]
	upper := d.regs[hw.PAUR] >> 16
	return []byte{
		byte(lower >> 24), byte(lower >> 16), byte(lower >> 8), byte(lower),
		byte(upper >> 8), byte(upper),
	}
}

func hashHit(addr []byte, lower, upper uint32) bool {
	k := hw.HashIndex(addr)
	if k < 32 {
		return lower&(1<<k) != 0
	}
	return upper&(1<<(k-32)) != 0
}

// mdioFrame executes a management frame on the attached bus. Requires d.mu.
func (d *Device) mdioFrame(v uint32) {
	st, op, pa, ra, _, data := hw.MMFRFields(v)
	if st == 1 {
		p, ok := d.phys[uint8(pa)]
		switch uint8(op) {
		case hw.SMIOpcodeWrite:
			if ok {
				p.WriteReg(uint8(ra), data)
			}
		case hw.SMIOpcodeRead:
			// An empty bus reads back all ones
			val := uint16(0xFFFF)
			if ok {
				val = p.ReadReg(uint8(ra))
			}
			d.regs[hw.MMFR] = (v &^ hw.MMFR_DATA_MASK) | uint32(val)
		}
	}
	d.regs[hw.EIR] |= hw.EIR_MII
}
