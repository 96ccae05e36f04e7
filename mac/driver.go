// Package mac drives an ENET Ethernet MAC through its DMA descriptor rings.
//
// A [Driver] owns one transmit and one receive ring. Descriptors are shared
// with the DMA engine, and the ownership bit in word 0 of each descriptor is
// the only synchronization between the two sides: software reads or writes a
// buffer only while it owns the descriptor, and hands the descriptor over with
// a single store once the buffer is complete.
//
// Interrupt handlers only touch the event and mask registers and wake the
// interface task, which then calls [Driver.EventHandler] to drain the receive
// ring and recover from bus errors.
package mac

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/util"
)

// enabledEvents is the set of interrupt sources armed after every event
// handler pass.
const enabledEvents = hw.EIR_TXF | hw.EIR_RXF | hw.EIR_EBERR

type Driver struct {
	l    *logrus.Logger
	regs hw.Registers
	nic  Interface
	phy  PhyDriver
	sw   SwitchDriver

	tx *ring
	rx *ring

	rmii        bool
	mdcDivider  uint32
	pollTimeout time.Duration
	irq         hw.InterruptController

	metrics *driverMetrics
}

// NewDriver allocates both descriptor rings from mem. The rings live as long
// as the driver; Init and the recovery paths only re-initialize them.
func NewDriver(l *logrus.Logger, regs hw.Registers, mem Memory, nic Interface, options ...Option) (*Driver, error) {
	opts := optionDefaults
	opts.apply(options)
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid driver options: %w", err)
	}

	tx, err := newRing(mem, opts.txRingSize, opts.bufferSize, false)
	if err != nil {
		return nil, fmt.Errorf("create tx ring: %w", err)
	}

	rx, err := newRing(mem, opts.rxRingSize, opts.bufferSize, true)
	if err != nil {
		return nil, fmt.Errorf("create rx ring: %w", err)
	}

	return &Driver{
		l:           l,
		regs:        regs,
		nic:         nic,
		tx:          tx,
		rx:          rx,
		rmii:        opts.rmii,
		mdcDivider:  opts.mdcDivider,
		pollTimeout: opts.pollTimeout,
		irq:         opts.irq,
		metrics:     newDriverMetrics(opts.registry),
	}, nil
}

// AttachPhy binds the transceiver driven through the MAC. It must be called
// before Init.
func (d *Driver) AttachPhy(p PhyDriver) {
	d.phy = p
}

// AttachSwitch binds an Ethernet switch. A PHY takes precedence if both are
// attached.
func (d *Driver) AttachSwitch(s SwitchDriver) {
	d.sw = s
}

// BufferSize is the capacity of every transmit and receive buffer.
func (d *Driver) BufferSize() int {
	return d.tx.bufSize
}

// Init resets the MAC, brings up the PHY or switch, programs the station
// address and both rings, and enables the MAC. It fails with
// [ErrConfiguration] when no PHY or switch is attached.
func (d *Driver) Init() error {
	d.l.Info("Initializing ENET MAC")

	d.regs.Write(hw.ECR, hw.ECR_RESET)
	if !d.waitFor(func() bool { return d.regs.Read(hw.ECR)&hw.ECR_RESET == 0 }) {
		return util.NewContextualError("MAC did not leave reset", map[string]any{"timeout": d.pollTimeout}, ErrResetTimeout)
	}

	rcr := hw.RCR_MAX_FL(uint32(d.rx.bufSize)) | hw.RCR_MII_MODE
	if d.rmii {
		rcr |= hw.RCR_RMII_MODE
	}
	d.regs.Write(hw.RCR, rcr)
	d.regs.Write(hw.TCR, 0)
	d.regs.Write(hw.MSCR, hw.MSCR_MII_SPEED(d.mdcDivider))

	var err error
	switch {
	case d.phy != nil:
		err = d.phy.Init()
	case d.sw != nil:
		err = d.sw.Init()
	default:
		return util.NewContextualError("The interface is not properly configured", nil, ErrConfiguration)
	}
	if err != nil {
		return util.ContextualizeIfNeeded("Failed to initialize the PHY", err)
	}

	d.writeStationAddress()
	d.regs.Write(hw.IALR, 0)
	d.regs.Write(hw.IAUR, 0)
	d.regs.Write(hw.GALR, 0)
	d.regs.Write(hw.GAUR, 0)

	d.regs.Write(hw.TACC, 0)
	d.regs.Write(hw.RACC, 0)

	// Enhanced buffer descriptors
	d.regs.Write(hw.ECR, hw.ECR_EN1588)

	d.regs.Write(hw.MIBC, hw.MIBC_MIB_CLEAR)
	d.regs.Write(hw.MIBC, 0)

	d.initBufferDesc()

	d.regs.Write(hw.EIR, 0xFFFFFFFF)
	d.regs.Write(hw.EIMR, enabledEvents)

	d.setBits(hw.ECR, hw.ECR_ETHEREN)
	d.regs.Write(hw.RDAR, hw.DAR_ACTIVE)

	d.nic.SignalTxReady()

	d.l.WithFields(logrus.Fields{
		"txRing":     d.tx.size(),
		"rxRing":     d.rx.size(),
		"bufferSize": d.tx.bufSize,
		"rmii":       d.rmii,
	}).Info("ENET MAC initialized")

	return nil
}

// initBufferDesc re-initializes both rings and points the DMA engine at them.
// No memory is allocated.
func (d *Driver) initBufferDesc() {
	d.tx.init()
	d.rx.init()

	d.regs.Write(hw.TDSR, d.tx.base)
	d.regs.Write(hw.RDSR, d.rx.base)
	d.regs.Write(hw.MRBR, uint32(d.rx.bufSize))
}

// Tick is called periodically by the interface task to poll the link.
func (d *Driver) Tick() {
	switch {
	case d.phy != nil:
		d.phy.Tick()
	case d.sw != nil:
		d.sw.Tick()
	}
}

// EnableIrq unmasks the MAC interrupt lines and the PHY or switch interrupt.
func (d *Driver) EnableIrq() {
	if d.irq != nil {
		d.irq.EnableIRQ(hw.IRQTx)
		d.irq.EnableIRQ(hw.IRQRx)
		d.irq.EnableIRQ(hw.IRQErr)
	}

	switch {
	case d.phy != nil:
		d.phy.EnableIrq()
	case d.sw != nil:
		d.sw.EnableIrq()
	}
}

// DisableIrq masks the MAC interrupt lines and the PHY or switch interrupt.
func (d *Driver) DisableIrq() {
	if d.irq != nil {
		d.irq.DisableIRQ(hw.IRQTx)
		d.irq.DisableIRQ(hw.IRQRx)
		d.irq.DisableIRQ(hw.IRQErr)
	}

	switch {
	case d.phy != nil:
		d.phy.DisableIrq()
	case d.sw != nil:
		d.sw.DisableIrq()
	}
}

// Stop disables the MAC and masks every interrupt source.
func (d *Driver) Stop() {
	d.regs.Write(hw.EIMR, 0)
	d.clearBits(hw.ECR, hw.ECR_ETHEREN)
}

func (d *Driver) writeStationAddress() {
	a := d.nic.MacAddr()
	if len(a) != 6 {
		d.l.WithField("macAddr", a.String()).Warn("Interface MAC address is not 6 bytes, station address left unchanged")
		return
	}

	upper := uint32(a[4])<<8 | uint32(a[5])
	d.regs.Write(hw.PAUR, hw.PAUR_PADDR2(upper)|hw.PAUR_TYPE(hw.PauseFrameType))

	lower := uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
	d.regs.Write(hw.PALR, lower)
}

func (d *Driver) setBits(off, mask uint32) {
	d.regs.Write(off, d.regs.Read(off)|mask)
}

func (d *Driver) clearBits(off, mask uint32) {
	d.regs.Write(off, d.regs.Read(off)&^mask)
}

// waitFor spins until cond holds or the poll timeout passes.
func (d *Driver) waitFor(cond func() bool) bool {
	deadline := time.Now().Add(d.pollTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			return cond()
		}
		runtime.Gosched()
	}
	return true
}
