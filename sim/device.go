// Package sim emulates the ENET MAC peripheral: its register file, the DMA
// engine walking the descriptor rings, an attached MDIO bus, and the three
// interrupt lines. Frames leave and enter the simulated wire through a
// [Backend].
package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
)

// Memory is the view the DMA engine has of system memory.
type Memory interface {
	Slice(bus uint32, n int) ([]byte, error)
}

// Device is a simulated ENET MAC. It implements [hw.Registers] and
// [hw.InterruptController].
type Device struct {
	l       *logrus.Logger
	mem     Memory
	backend Backend

	mu   sync.Mutex
	regs map[uint32]uint32
	phys map[uint8]MDIODevice

	handlers  [hw.NumIRQLines]func()
	enabled   [hw.NumIRQLines]bool
	inService [hw.NumIRQLines]bool

	txIdx  uint32
	rxIdx  uint32
	halted bool

	manualTx   bool
	maxRingLen uint32
}

// NewDevice creates a peripheral in its reset state. backend may be nil, in
// which case transmitted frames are discarded.
func NewDevice(l *logrus.Logger, mem Memory, backend Backend, options ...Option) *Device {
	opts := optionDefaults
	opts.apply(options)

	d := &Device{
		l:          l,
		mem:        mem,
		backend:    backend,
		phys:       make(map[uint8]MDIODevice),
		manualTx:   opts.manualTx,
		maxRingLen: opts.maxRingLen,
	}
	d.reset()
	return d
}

// reset restores the power-on register values. Statistics are kept.
func (d *Device) reset() {
	old := d.regs
	d.regs = make(map[uint32]uint32)
	for _, c := range hw.MIBCounters {
		d.regs[c.Offset] = old[c.Offset]
	}
	d.regs[hw.RCR] = hw.RCR_MAX_FL(1518) | hw.RCR_MII_MODE
	d.txIdx = 0
	d.rxIdx = 0
	d.halted = false
}

// AttachIRQ connects an interrupt line to its handler. Lines start disabled.
func (d *Device) AttachIRQ(line hw.IRQLine, handler func()) {
	d.mu.Lock()
	d.handlers[line] = handler
	d.mu.Unlock()
}

// AttachPHY puts a management device on the MDIO bus at addr.
func (d *Device) AttachPHY(addr uint8, p MDIODevice) {
	d.mu.Lock()
	d.phys[addr&0x1F] = p
	d.mu.Unlock()
}

func (d *Device) EnableIRQ(line hw.IRQLine) {
	d.mu.Lock()
	d.enabled[line] = true
	d.mu.Unlock()
	d.raise()
}

func (d *Device) DisableIRQ(line hw.IRQLine) {
	d.mu.Lock()
	d.enabled[line] = false
	d.mu.Unlock()
}

func (d *Device) Read(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[offset]
}

func (d *Device) Write(offset uint32, value uint32) {
	d.mu.Lock()
	kickTx := false

	switch offset {
	case hw.EIR:
		d.regs[hw.EIR] &^= value

	case hw.ECR:
		if value&hw.ECR_RESET != 0 {
			d.reset()
			break
		}
		old := d.regs[hw.ECR]
		d.regs[hw.ECR] = value
		if old&hw.ECR_ETHEREN == 0 && value&hw.ECR_ETHEREN != 0 {
			// Enabling the MAC restarts both DMA channels at the ring start
			d.txIdx = 0
			d.rxIdx = 0
			d.halted = false
		}
		if value&hw.ECR_ETHEREN == 0 {
			d.regs[hw.TDAR] = 0
			d.regs[hw.RDAR] = 0
		}

	case hw.TDAR:
		if d.running() {
			d.regs[hw.TDAR] = hw.DAR_ACTIVE
			kickTx = !d.manualTx
		}

	case hw.RDAR:
		if d.running() {
			d.regs[hw.RDAR] = hw.DAR_ACTIVE
		}

	case hw.MMFR:
		d.regs[hw.MMFR] = value
		d.mdioFrame(value)

	case hw.MIBC:
		if value&hw.MIBC_MIB_CLEAR != 0 {
			for _, c := range hw.MIBCounters {
				d.regs[c.Offset] = 0
			}
		}
		d.regs[hw.MIBC] = value &^ hw.MIBC_MIB_CLEAR

	default:
		d.regs[offset] = value
	}

	d.mu.Unlock()

	if kickTx {
		d.ProcessTx()
	}
	d.raise()
}

// running reports whether the DMA engine accepts doorbells. Requires d.mu.
func (d *Device) running() bool {
	return d.regs[hw.ECR]&hw.ECR_ETHEREN != 0 && !d.halted
}

// InjectBusError raises a system bus error. Both DMA channels halt until the
// MAC is disabled and enabled again.
func (d *Device) InjectBusError() {
	d.mu.Lock()
	d.busError()
	d.mu.Unlock()
	d.raise()
}

// busError requires d.mu.
func (d *Device) busError() {
	d.regs[hw.EIR] |= hw.EIR_EBERR
	d.regs[hw.TDAR] = 0
	d.regs[hw.RDAR] = 0
	d.halted = true
}

// Halted reports whether the DMA engine stopped on a bus error.
func (d *Device) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.halted
}

// raise runs the handler of every enabled line with a pending unmasked event.
// Handlers run without the register lock held, like an interrupt preempting
// whatever touched the registers. A line is never re-entered.
func (d *Device) raise() {
	for {
		fired := false
		for line := hw.IRQLine(0); line < hw.NumIRQLines; line++ {
			d.mu.Lock()
			h := d.handlers[line]
			pending := d.regs[hw.EIR] & d.regs[hw.EIMR] & line.Events()
			if h == nil || !d.enabled[line] || d.inService[line] || pending == 0 {
				d.mu.Unlock()
				continue
			}
			d.inService[line] = true
			d.mu.Unlock()

			h()

			d.mu.Lock()
			d.inService[line] = false
			d.mu.Unlock()
			fired = true
		}
		if !fired {
			return
		}
	}
}

// Run feeds frames from the backend into the receive DMA engine until ctx is
// done or the backend closes.
func (d *Device) Run(ctx context.Context) error {
	if d.backend == nil {
		<-ctx.Done()
		return nil
	}

	for {
		frame, err := d.backend.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.Inject(frame)
	}
}

// Close closes the backend.
func (d *Device) Close() error {
	if d.backend == nil {
		return nil
	}
	return d.backend.Close()
}
