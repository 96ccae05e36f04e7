package mac

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
)

// ReceiveOne services the descriptor at the receive cursor. It returns
// [ErrBufferEmpty] without side effects when the DMA engine still owns it.
// Otherwise a valid frame is handed to the interface, an invalid one is
// reported as [ErrInvalidPacket], and in both cases the descriptor goes back to
// the DMA engine.
func (d *Driver) ReceiveOne() error {
	i, desc := d.rx.current()

	status := desc.Status()
	if status&hw.RBD0_E != 0 {
		return ErrBufferEmpty
	}

	var err error
	switch {
	case status&hw.RBD0_L == 0:
		// Frames spanning several buffers are not supported
		err = ErrInvalidPacket
	case status&hw.RBD0_ERRORS != 0:
		err = ErrInvalidPacket
	default:
		n := min(int(status&hw.RBD0_DATA_LENGTH), d.rx.bufSize)
		d.nic.ProcessPacket(d.rx.bufs[i][:n], RxAncillary{
			Broadcast: status&hw.RBD0_BC != 0,
			Multicast: status&hw.RBD0_MC != 0,
			Miss:      status&hw.RBD0_M != 0,
		})
		d.metrics.rxFrames.Inc(1)
	}

	if err != nil {
		d.metrics.rxInvalid.Inc(1)
		if d.l.Level >= logrus.DebugLevel {
			d.l.WithField("status", status).WithField("slot", i).Debug("Dropping invalid frame")
		}
	}

	desc.SetWord(4, 0)
	recycled := hw.RBD0_E
	if d.rx.isLast(i) {
		recycled |= hw.RBD0_W
	}
	desc.Publish(recycled)

	d.rx.advance()

	d.regs.Write(hw.RDAR, hw.DAR_ACTIVE)

	return err
}

// RxIRQHandler services the receive interrupt line. Further receive
// interrupts stay masked until the next EventHandler pass.
func (d *Driver) RxIRQHandler() {
	if d.regs.Read(hw.EIR)&hw.EIR_RXF == 0 {
		return
	}

	d.clearBits(hw.EIMR, hw.EIR_RXF)
	d.nic.SignalEvent()
}

// ErrIRQHandler services the error interrupt line.
func (d *Driver) ErrIRQHandler() {
	if d.regs.Read(hw.EIR)&hw.EIR_EBERR == 0 {
		return
	}

	d.clearBits(hw.EIMR, hw.EIR_EBERR)
	d.nic.SignalEvent()
}

// EventHandler runs in task context after an interrupt handler signalled an
// event. It drains the receive ring, recovers from a bus error and re-arms
// every interrupt source.
func (d *Driver) EventHandler() {
	status := d.regs.Read(hw.EIR)

	if status&hw.EIR_RXF != 0 {
		d.regs.Write(hw.EIR, hw.EIR_RXF)

		// Runs until the cursor reaches a descriptor the DMA engine still
		// owns. Recycled slots may be refilled while the loop is running.
		for {
			if err := d.ReceiveOne(); errors.Is(err, ErrBufferEmpty) {
				break
			}
		}
	}

	if status&hw.EIR_EBERR != 0 {
		d.regs.Write(hw.EIR, hw.EIR_EBERR)
		d.recover()
	}

	d.regs.Write(hw.EIMR, enabledEvents)
}

// recover restarts the MAC after a system bus error. Frames in flight in
// either ring are dropped.
func (d *Driver) recover() {
	d.metrics.busErrors.Inc(1)
	d.l.WithFields(logrus.Fields{
		"txCursor": d.tx.cursor.Load(),
		"rxCursor": d.rx.cursor.Load(),
	}).Warn("System bus error, resetting descriptor rings")

	d.clearBits(hw.ECR, hw.ECR_ETHEREN)
	d.initBufferDesc()
	d.setBits(hw.ECR, hw.ECR_ETHEREN)
	d.regs.Write(hw.RDAR, hw.DAR_ACTIVE)

	// Every transmit slot is free again and no completion will report it
	d.nic.SignalTxReady()
}
