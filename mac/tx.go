package mac

import (
	"fmt"

	"github.com/slackhq/enet/hw"
)

// Send copies payload into the descriptor at the transmit cursor and hands it
// to the DMA engine. It never blocks: a descriptor still owned by the DMA
// engine yields [ErrBusy] and leaves the ring untouched. Calls to Send must be
// serialized by the caller.
func (d *Driver) Send(payload []byte) error {
	n := len(payload)
	if n > d.tx.bufSize {
		d.metrics.txInvalidLength.Inc(1)
		// The frame consumed no descriptor, the transmitter is still ready
		d.nic.SignalTxReady()
		return fmt.Errorf("%w: %d bytes exceeds the %d byte buffer", ErrInvalidLength, n, d.tx.bufSize)
	}

	i, desc := d.tx.current()
	if desc.Status()&hw.TBD0_R != 0 {
		d.metrics.txBusy.Inc(1)
		return ErrBusy
	}

	copy(d.tx.bufs[i], payload)

	desc.SetWord(4, 0)

	status := hw.TBD0_R | hw.TBD0_L | hw.TBD0_TC | (uint32(n) & hw.TBD0_DATA_LENGTH)
	if d.tx.isLast(i) {
		status |= hw.TBD0_W
	}
	desc.Publish(status)

	next := d.tx.advance()

	d.regs.Write(hw.TDAR, hw.DAR_ACTIVE)
	d.metrics.txFrames.Inc(1)

	if !d.tx.ownedByHardware(next) {
		d.nic.SignalTxReady()
	}

	return nil
}

// TxIRQHandler services the transmit interrupt line.
func (d *Driver) TxIRQHandler() {
	if d.regs.Read(hw.EIR)&hw.EIR_TXF == 0 {
		return
	}

	d.regs.Write(hw.EIR, hw.EIR_TXF)

	if !d.tx.ownedByHardware(d.tx.cursor.Load()) {
		d.nic.SignalTxReady()
	}

	d.regs.Write(hw.TDAR, hw.DAR_ACTIVE)
}
